package services

import (
	"context"
	"strings"

	"lms/backend/models"
	"lms/backend/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CloneOptions is the body of a clone request. Every include toggle defaults to true
// and DateShiftDays defaults to 0 when omitted.
type CloneOptions struct {
	Title                    string `json:"title" validate:"notblank,max=200"`
	DateShiftDays            *int   `json:"dateShiftDays" validate:"omitempty,min=-3650,max=3650"`
	IncludeAssignments       *bool  `json:"includeAssignments"`
	IncludeAssessments       *bool  `json:"includeAssessments"`
	IncludeRubrics           *bool  `json:"includeRubrics"`
	IncludeReleaseConditions *bool  `json:"includeReleaseConditions"`
	IncludeAnnouncements     *bool  `json:"includeAnnouncements"`
}

func (o CloneOptions) shiftDays() int {
	if o.DateShiftDays == nil {
		return 0
	}
	return *o.DateShiftDays
}

func included(flag *bool) bool {
	return flag == nil || *flag
}

// CloneResult describes the newly created course.
type CloneResult struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`

	Chapters          int `json:"-"`
	Lessons           int `json:"-"`
	Quizzes           int `json:"-"`
	Questions         int `json:"-"`
	Assignments       int `json:"-"`
	Rubrics           int `json:"-"`
	ReleaseConditions int `json:"-"`
	Announcements     int `json:"-"`
}

// CourseCloner deep-copies a course aggregate into a new unpublished course owned by the caller.
type CourseCloner struct {
	DB  *gorm.DB
	Log *utils.Logger
}

func NewCourseCloner(db *gorm.DB, log *utils.Logger) *CourseCloner {
	return &CourseCloner{DB: db, Log: log}
}

// Clone copies course sourceID for actor. Errors:
//   - ErrNotFound: the source course does not exist
//   - ErrForbidden: actor neither owns the course nor is an admin
//   - *ValidationError: opts are invalid
//
// Anything else is a persistence failure; the whole copy runs in one transaction,
// so no partial course is left behind.
func (s *CourseCloner) Clone(ctx context.Context, actor *models.User, sourceID uint, opts CloneOptions) (*CloneResult, error) {
	db := s.DB.WithContext(ctx)

	var source models.Course
	if err := db.First(&source, sourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "course %d", sourceID)
		}
		return nil, errors.Wrap(err, "load source course")
	}

	if actor == nil || !actor.Manages(&source) {
		return nil, ErrForbidden
	}

	opts.Title = strings.TrimSpace(opts.Title)
	if err := validate(opts); err != nil {
		return nil, err
	}

	var result *CloneResult
	err := db.Transaction(func(tx *gorm.DB) error {
		aggregate, err := loadAggregate(tx, sourceID)
		if err != nil {
			return err
		}

		c := &cloneRun{
			tx:       tx,
			opts:     opts,
			days:     opts.shiftDays(),
			actor:    actor,
			rubrics:  make(map[uint]uint),
			chapters: make(map[uint]uint),
		}
		result, err = c.run(aggregate)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("course cloned",
		"source_id", sourceID,
		"course_id", result.ID,
		"slug", result.Slug,
		"actor_id", actor.ID,
		"chapters", result.Chapters,
		"lessons", result.Lessons,
		"quizzes", result.Quizzes,
		"questions", result.Questions,
		"assignments", result.Assignments,
		"rubrics", result.Rubrics,
		"release_conditions", result.ReleaseConditions,
		"announcements", result.Announcements,
	)
	return result, nil
}

func ordered(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(column).Order("id")
	}
}

// loadAggregate reads the course with everything a clone may copy.
func loadAggregate(tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	err := tx.
		Preload("Chapters", ordered("position")).
		Preload("Chapters.Lessons", ordered("position")).
		Preload("Chapters.Quiz").
		Preload("Chapters.Quiz.Questions", ordered("position")).
		Preload("Chapters.Assignments", ordered("id")).
		Preload("Rubrics", ordered("id")).
		Preload("Rubrics.Criteria", ordered("position")).
		Preload("ReleaseConditions", ordered("id")).
		Preload("Announcements", ordered("id")).
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Where("chapter_id IS NULL").Order("id")
		}).
		First(&course, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "course %d", id)
		}
		return nil, errors.Wrap(err, "load course aggregate")
	}
	return &course, nil
}

type cloneRun struct {
	tx    *gorm.DB
	opts  CloneOptions
	days  int
	actor *models.User

	course   *models.Course
	rubrics  map[uint]uint
	chapters map[uint]uint
	result   CloneResult
}

func (c *cloneRun) run(src *models.Course) (*CloneResult, error) {
	if err := c.createCourse(src); err != nil {
		return nil, err
	}
	// rubrics first: assignments refer to them through the ID map
	if included(c.opts.IncludeRubrics) {
		for i := range src.Rubrics {
			if err := c.cloneRubric(&src.Rubrics[i]); err != nil {
				return nil, err
			}
		}
	}
	for i := range src.Chapters {
		if err := c.cloneChapter(&src.Chapters[i]); err != nil {
			return nil, err
		}
	}
	if included(c.opts.IncludeAssignments) {
		for i := range src.Assignments {
			if err := c.cloneAssignment(&src.Assignments[i], nil); err != nil {
				return nil, err
			}
		}
	}
	if included(c.opts.IncludeReleaseConditions) {
		for i := range src.ReleaseConditions {
			if err := c.cloneReleaseCondition(&src.ReleaseConditions[i]); err != nil {
				return nil, err
			}
		}
	}
	if included(c.opts.IncludeAnnouncements) {
		for i := range src.Announcements {
			if err := c.cloneAnnouncement(&src.Announcements[i]); err != nil {
				return nil, err
			}
		}
	}

	c.result.ID = c.course.ID
	c.result.Title = c.course.Title
	c.result.Slug = c.course.Slug
	return &c.result, nil
}

func (c *cloneRun) createCourse(src *models.Course) error {
	slug, err := utils.UniqueCourseSlug(c.tx, src.Slug+"-copy")
	if err != nil {
		return errors.Wrap(err, "resolve clone slug")
	}

	c.course = &models.Course{
		Title:        c.opts.Title,
		Slug:         slug,
		ShortDesc:    src.ShortDesc,
		Description:  src.Description,
		ImageURL:     src.ImageURL,
		Category:     src.Category,
		Difficulty:   src.Difficulty,
		InstructorID: c.actor.ID,
		IsPublished:  false,
	}
	return errors.Wrap(c.tx.Create(c.course).Error, "create course")
}

func (c *cloneRun) cloneRubric(src *models.Rubric) error {
	rubric := models.Rubric{
		CourseID:    c.course.ID,
		Title:       src.Title,
		Description: src.Description,
	}
	if err := c.tx.Create(&rubric).Error; err != nil {
		return errors.Wrapf(err, "create rubric %d", src.ID)
	}
	c.rubrics[src.ID] = rubric.ID
	c.result.Rubrics++

	if len(src.Criteria) == 0 {
		return nil
	}
	criteria := make([]models.RubricCriterion, 0, len(src.Criteria))
	for _, cr := range src.Criteria {
		criteria = append(criteria, models.RubricCriterion{
			RubricID:    rubric.ID,
			Title:       cr.Title,
			Description: cr.Description,
			Position:    cr.Position,
			Levels:      append([]models.RubricLevel(nil), cr.Levels...),
		})
	}
	return errors.Wrapf(c.tx.Create(&criteria).Error, "create criteria of rubric %d", src.ID)
}

func (c *cloneRun) cloneChapter(src *models.Chapter) error {
	chapter := models.Chapter{
		CourseID:       c.course.ID,
		Title:          src.Title,
		Description:    src.Description,
		Position:       src.Position,
		IsPublished:    false,
		AvailableFrom:  utils.ShiftDate(src.AvailableFrom, c.days),
		AvailableUntil: utils.ShiftDate(src.AvailableUntil, c.days),
	}
	if err := c.tx.Create(&chapter).Error; err != nil {
		return errors.Wrapf(err, "create chapter %d", src.ID)
	}
	c.chapters[src.ID] = chapter.ID
	c.result.Chapters++

	if len(src.Lessons) > 0 {
		lessons := make([]models.Lesson, 0, len(src.Lessons))
		for _, l := range src.Lessons {
			lessons = append(lessons, models.Lesson{
				ChapterID:      chapter.ID,
				Title:          l.Title,
				Position:       l.Position,
				ContentType:    l.ContentType,
				VideoURL:       l.VideoURL,
				AttachmentURL:  l.AttachmentURL,
				TextContent:    l.TextContent,
				SceneConfig:    l.SceneConfig,
				AvailableFrom:  utils.ShiftDate(l.AvailableFrom, c.days),
				AvailableUntil: utils.ShiftDate(l.AvailableUntil, c.days),
			})
		}
		if err := c.tx.Create(&lessons).Error; err != nil {
			return errors.Wrapf(err, "create lessons of chapter %d", src.ID)
		}
		c.result.Lessons += len(lessons)
	}

	if src.Quiz != nil && included(c.opts.IncludeAssessments) {
		if err := c.cloneQuiz(src.Quiz, chapter.ID); err != nil {
			return err
		}
	}

	if included(c.opts.IncludeAssignments) {
		for i := range src.Assignments {
			if err := c.cloneAssignment(&src.Assignments[i], &chapter.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *cloneRun) cloneQuiz(src *models.Quiz, chapterID uint) error {
	quiz := models.Quiz{
		ChapterID:          chapterID,
		Title:              src.Title,
		Description:        src.Description,
		TimeLimitMinutes:   src.TimeLimitMinutes,
		MaxAttempts:        src.MaxAttempts,
		PassingScore:       src.PassingScore,
		ShuffleQuestions:   src.ShuffleQuestions,
		ShuffleAnswers:     src.ShuffleAnswers,
		ShowResults:        src.ShowResults,
		LatePolicy:         src.LatePolicy,
		LatePenalty:        src.LatePenalty,
		RequiresProctoring: src.RequiresProctoring,
		LockdownBrowser:    src.LockdownBrowser,
		IsPublished:        false,
		AvailableFrom:      utils.ShiftDate(src.AvailableFrom, c.days),
		AvailableUntil:     utils.ShiftDate(src.AvailableUntil, c.days),
	}
	if err := c.tx.Create(&quiz).Error; err != nil {
		return errors.Wrapf(err, "create quiz %d", src.ID)
	}
	c.result.Quizzes++

	if len(src.Questions) == 0 {
		return nil
	}
	questions := make([]models.Question, 0, len(src.Questions))
	for _, q := range src.Questions {
		questions = append(questions, models.Question{
			QuizID:         quiz.ID,
			Type:           q.Type,
			Text:           q.Text,
			Position:       q.Position,
			Points:         q.Points,
			Explanation:    q.Explanation,
			Options:        q.Options,
			CorrectAnswer:  q.CorrectAnswer,
			CorrectAnswers: q.CorrectAnswers,
			MatchingPairs:  q.MatchingPairs,
			OrderingItems:  q.OrderingItems,
			Blanks:         q.Blanks,
		})
	}
	if err := c.tx.Create(&questions).Error; err != nil {
		return errors.Wrapf(err, "create questions of quiz %d", src.ID)
	}
	c.result.Questions += len(questions)
	return nil
}

// cloneAssignment copies src under the new course; chapterID is nil for course-level assignments.
func (c *cloneRun) cloneAssignment(src *models.Assignment, chapterID *uint) error {
	var rubricID *uint
	if src.RubricID != nil {
		// unknown or skipped rubrics degrade to no rubric
		if id, ok := c.rubrics[*src.RubricID]; ok {
			rubricID = &id
		}
	}

	assignment := models.Assignment{
		CourseID:       c.course.ID,
		ChapterID:      chapterID,
		Title:          src.Title,
		Description:    src.Description,
		Instructions:   src.Instructions,
		DueDate:        utils.ShiftDate(src.DueDate, c.days),
		Points:         src.Points,
		MaxSubmissions: src.MaxSubmissions,
		AllowLate:      src.AllowLate,
		LatePolicy:     src.LatePolicy,
		LatePenalty:    src.LatePenalty,
		RubricID:       rubricID,
		AvailableFrom:  utils.ShiftDate(src.AvailableFrom, c.days),
		AvailableUntil: utils.ShiftDate(src.AvailableUntil, c.days),
		IsGroup:        src.IsGroup,
		IsPublished:    src.IsPublished,
	}
	if err := c.tx.Create(&assignment).Error; err != nil {
		return errors.Wrapf(err, "create assignment %d", src.ID)
	}
	c.result.Assignments++
	return nil
}

func (c *cloneRun) cloneReleaseCondition(src *models.ReleaseCondition) error {
	targetType, targetID := TargetOf(src).Remap(c.chapters).Pair()

	rc := models.ReleaseCondition{
		CourseID:   c.course.ID,
		TargetType: targetType,
		TargetID:   targetID,
		RuleType:   src.RuleType,
		RuleConfig: src.RuleConfig,
	}
	if err := c.tx.Create(&rc).Error; err != nil {
		return errors.Wrapf(err, "create release condition %d", src.ID)
	}
	c.result.ReleaseConditions++
	return nil
}

func (c *cloneRun) cloneAnnouncement(src *models.Announcement) error {
	announcement := models.Announcement{
		CourseID:    c.course.ID,
		AuthorID:    c.actor.ID,
		Title:       src.Title,
		Body:        src.Body,
		IsPublished: false,
	}
	if err := c.tx.Create(&announcement).Error; err != nil {
		return errors.Wrapf(err, "create announcement %d", src.ID)
	}
	c.result.Announcements++
	return nil
}
