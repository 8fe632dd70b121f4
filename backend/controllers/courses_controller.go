package controllers

import (
	"errors"
	"strings"
	"time"

	"lms/backend/config"
	"lms/backend/middleware"
	"lms/backend/models"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CoursesController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *utils.Logger
}

func NewCoursesController(db *gorm.DB, cfg *config.Config, log *utils.Logger) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg, Log: log}
}

type CourseInput struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	ShortDesc   string `json:"short_desc" validate:"max=500"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	Category    string `json:"category" validate:"max=100"`
	Difficulty  string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
}

type UpdateCourseInput struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=200"`
	ShortDesc   *string `json:"short_desc" validate:"omitempty,max=500"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	Difficulty  *string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	IsPublished *bool   `json:"is_published"`
}

type ChapterInput struct {
	Title          string     `json:"title" validate:"notblank,max=200"`
	Description    string     `json:"description"`
	IsPublished    bool       `json:"is_published"`
	AvailableFrom  *time.Time `json:"available_from"`
	AvailableUntil *time.Time `json:"available_until"`
}

type LessonInput struct {
	Title          string         `json:"title" validate:"notblank,max=200"`
	ContentType    string         `json:"content_type" validate:"required,oneof=VIDEO ATTACHMENT TEXT SCENE"`
	VideoURL       string         `json:"video_url" validate:"required_if=ContentType VIDEO,omitempty,url"`
	AttachmentURL  string         `json:"attachment_url" validate:"required_if=ContentType ATTACHMENT,omitempty,url"`
	TextContent    string         `json:"text_content" validate:"required_if=ContentType TEXT"`
	SceneConfig    datatypes.JSON `json:"scene_config"`
	AvailableFrom  *time.Time     `json:"available_from"`
	AvailableUntil *time.Time     `json:"available_until"`
}

type ProgressInput struct {
	LessonID uint `json:"lesson_id" validate:"required"`
}

// CreateCourse godoc
// @Summary Create course
// @Description Creates an unpublished course owned by the caller
// @Tags courses
// @Accept json
// @Produce json
// @Param course body CourseInput true "Course data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses [post]
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input CourseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.Title = strings.TrimSpace(input.Title)
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	slug, err := utils.UniqueCourseSlug(cc.DB, utils.GenerateSlug(input.Title))
	if err != nil {
		return err
	}

	course := models.Course{
		Title:        input.Title,
		Slug:         slug,
		ShortDesc:    input.ShortDesc,
		Description:  input.Description,
		ImageURL:     input.ImageURL,
		Category:     input.Category,
		Difficulty:   input.Difficulty,
		InstructorID: user.ID,
		IsPublished:  false,
	}
	if err := cc.DB.Create(&course).Error; err != nil {
		return err
	}

	return utils.Created(c, course)
}

// ListCourses godoc
// @Summary Course catalog
// @Description Paginated list of published courses
// @Tags courses
// @Produce json
// @Param search query string false "Title or description contains"
// @Param category query string false "Category"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(10)
// @Success 200 {object} utils.PaginatedResponse
// @Router /courses [get]
func (cc *CoursesController) ListCourses(c *fiber.Ctx) error {
	page, pageSize, offset := pagination(c)

	query := cc.DB.Model(&models.Course{}).Where("is_published = ?", true)
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(short_desc) LIKE ?", like, like)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var courses []models.Course
	if err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(pageSize).Find(&courses).Error; err != nil {
		return err
	}

	return utils.Paginate(c, courses, total, page, pageSize)
}

// GetCourseDetails godoc
// @Summary Course details
// @Description Full course tree for its owner and admins; published content for everybody else
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [get]
func (cc *CoursesController) GetCourseDetails(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	course, err := courseFromParam(c, cc.DB)
	if err != nil {
		return err
	}
	manager := user.Manages(course)
	if !manager && !course.IsPublished {
		return utils.NotFound(c, "Course not found")
	}

	published := func(db *gorm.DB) *gorm.DB {
		db = db.Order("position").Order("id")
		if !manager {
			db = db.Where("is_published = ?", true)
		}
		return db
	}
	query := cc.DB.
		Preload("Chapters", published).
		Preload("Chapters.Lessons", ordered).
		Preload("Chapters.Quiz", func(db *gorm.DB) *gorm.DB {
			if !manager {
				db = db.Where("is_published = ?", true)
			}
			return db
		}).
		Preload("Chapters.Assignments", func(db *gorm.DB) *gorm.DB {
			if !manager {
				db = db.Where("is_published = ?", true)
			}
			return db.Order("id")
		})
	if manager {
		query = query.
			Preload("Chapters.Quiz.Questions", ordered).
			Preload("Rubrics.Criteria", ordered).
			Preload("ReleaseConditions").
			Preload("Announcements")
	}
	if err := query.First(course, course.ID).Error; err != nil {
		return err
	}

	var enrollment *models.Enrollment
	var e models.Enrollment
	err = cc.DB.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&e).Error
	switch {
	case err == nil:
		enrollment = &e
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course":   course,
		"progress": enrollment,
	})
}

func ordered(db *gorm.DB) *gorm.DB {
	return db.Order("position").Order("id")
}

// UpdateCourse godoc
// @Summary Update course
// @Description Updates course metadata and the published flag
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param course body UpdateCourseInput true "Fields to change"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [put]
func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	course, err := managedCourse(c, cc.DB)
	if err != nil {
		return err
	}

	var input UpdateCourseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	// Update fields
	if input.Title != nil {
		course.Title = strings.TrimSpace(*input.Title)
	}
	if input.ShortDesc != nil {
		course.ShortDesc = *input.ShortDesc
	}
	if input.Description != nil {
		course.Description = *input.Description
	}
	if input.ImageURL != nil {
		course.ImageURL = *input.ImageURL
	}
	if input.Category != nil {
		course.Category = *input.Category
	}
	if input.Difficulty != nil {
		course.Difficulty = *input.Difficulty
	}
	if input.IsPublished != nil {
		course.IsPublished = *input.IsPublished
	}

	if err := cc.DB.Save(course).Error; err != nil {
		return err
	}

	return utils.Success(c, fiber.StatusOK, course)
}

// AddChapter godoc
// @Summary Add chapter
// @Description Appends a chapter at the next position
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param chapter body ChapterInput true "Chapter data"
// @Success 201 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/chapters [post]
func (cc *CoursesController) AddChapter(c *fiber.Ctx) error {
	course, err := managedCourse(c, cc.DB)
	if err != nil {
		return err
	}

	var input ChapterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.Title = strings.TrimSpace(input.Title)
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}
	if windowInverted(input.AvailableFrom, input.AvailableUntil) {
		return utils.ValidationError(c, []utils.FieldError{{Field: "available_until", Error: "available_until must not be before available_from"}})
	}

	position, err := nextPosition(cc.DB.Model(&models.Chapter{}).Where("course_id = ?", course.ID))
	if err != nil {
		return err
	}

	chapter := models.Chapter{
		CourseID:       course.ID,
		Title:          input.Title,
		Description:    input.Description,
		Position:       position,
		IsPublished:    input.IsPublished,
		AvailableFrom:  input.AvailableFrom,
		AvailableUntil: input.AvailableUntil,
	}
	if err := cc.DB.Create(&chapter).Error; err != nil {
		return err
	}

	return utils.Created(c, chapter)
}

// AddLesson godoc
// @Summary Add lesson
// @Description Appends a lesson to a chapter
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param chapterId path int true "Chapter ID"
// @Param lesson body LessonInput true "Lesson data"
// @Success 201 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/chapters/{chapterId}/lessons [post]
func (cc *CoursesController) AddLesson(c *fiber.Ctx) error {
	course, err := managedCourse(c, cc.DB)
	if err != nil {
		return err
	}
	chapter, err := chapterFromParam(c, cc.DB, course)
	if err != nil {
		return err
	}

	var input LessonInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.Title = strings.TrimSpace(input.Title)
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}
	if input.ContentType == models.ContentScene && len(input.SceneConfig) == 0 {
		return utils.ValidationError(c, []utils.FieldError{{Field: "scene_config", Error: "scene_config is required for SCENE lessons"}})
	}
	if windowInverted(input.AvailableFrom, input.AvailableUntil) {
		return utils.ValidationError(c, []utils.FieldError{{Field: "available_until", Error: "available_until must not be before available_from"}})
	}

	// Get current lesson count to set sequence order
	position, err := nextPosition(cc.DB.Model(&models.Lesson{}).Where("chapter_id = ?", chapter.ID))
	if err != nil {
		return err
	}

	lesson := models.Lesson{
		ChapterID:      chapter.ID,
		Title:          input.Title,
		Position:       position,
		ContentType:    input.ContentType,
		VideoURL:       input.VideoURL,
		AttachmentURL:  input.AttachmentURL,
		TextContent:    input.TextContent,
		SceneConfig:    input.SceneConfig,
		AvailableFrom:  input.AvailableFrom,
		AvailableUntil: input.AvailableUntil,
	}
	if err := cc.DB.Create(&lesson).Error; err != nil {
		return err
	}

	return utils.Created(c, lesson)
}

// Enroll godoc
// @Summary Enroll in course
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 201 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/enroll [post]
func (cc *CoursesController) Enroll(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	course, err := courseFromParam(c, cc.DB)
	if err != nil {
		return err
	}
	if !course.IsPublished && !user.Manages(course) {
		return utils.NotFound(c, "Course not found")
	}

	now := time.Now()
	enrollment := models.Enrollment{UserID: user.ID, CourseID: course.ID, LastAccessedAt: &now}
	res := cc.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&enrollment)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.Conflict(c, "Already enrolled")
	}

	return utils.Created(c, enrollment)
}

// UpdateCourseProgress godoc
// @Summary Mark lesson completed
// @Description Records a completed lesson and recomputes the completion rate
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param input body ProgressInput true "Completed lesson"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/progress [post]
func (cc *CoursesController) UpdateCourseProgress(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	course, err := courseFromParam(c, cc.DB)
	if err != nil {
		return err
	}

	var input ProgressInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var enrollment models.Enrollment
	if err := cc.DB.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Forbidden(c, "Not enrolled in this course")
		}
		return err
	}

	var lesson models.Lesson
	if err := cc.DB.Joins("JOIN chapters ON chapters.id = lessons.chapter_id").
		Where("lessons.id = ? AND chapters.course_id = ?", input.LessonID, course.ID).
		First(&lesson).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Lesson not found")
		}
		return err
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		completion := models.LessonCompletion{UserID: user.ID, LessonID: lesson.ID, CourseID: course.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&completion).Error; err != nil {
			return err
		}

		var completed, total int64
		if err := tx.Model(&models.LessonCompletion{}).
			Where("user_id = ? AND course_id = ?", user.ID, course.ID).
			Count(&completed).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Lesson{}).
			Joins("JOIN chapters ON chapters.id = lessons.chapter_id AND chapters.deleted_at IS NULL").
			Where("chapters.course_id = ?", course.ID).
			Count(&total).Error; err != nil {
			return err
		}

		now := time.Now()
		enrollment.LessonsCompleted = int(completed)
		enrollment.CompletionRate = 0
		if total > 0 {
			enrollment.CompletionRate = float64(completed) / float64(total) * 100
		}
		enrollment.LastAccessedAt = &now
		return tx.Save(&enrollment).Error
	})
	if err != nil {
		return err
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":  "Progress updated",
		"progress": enrollment,
	})
}

// nextPosition returns one past the highest position in the scoped table.
func nextPosition(scope *gorm.DB) (int, error) {
	var highest *int
	if err := scope.Select("MAX(position)").Scan(&highest).Error; err != nil {
		return 0, err
	}
	if highest == nil {
		return 1, nil
	}
	return *highest + 1, nil
}

func windowInverted(from, until *time.Time) bool {
	return from != nil && until != nil && until.Before(*from)
}
