package controllers

import (
	"strings"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RubricsController manages grading rubrics and release conditions, the two
// course-level rule sets instructors author alongside content.
type RubricsController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *utils.Logger
}

func NewRubricsController(db *gorm.DB, cfg *config.Config, log *utils.Logger) *RubricsController {
	return &RubricsController{DB: db, Cfg: cfg, Log: log}
}

type RubricLevelInput struct {
	Label       string  `json:"label" validate:"notblank"`
	Description string  `json:"description"`
	Points      float64 `json:"points" validate:"min=0"`
}

type CriterionInput struct {
	Title       string             `json:"title" validate:"notblank"`
	Description string             `json:"description"`
	Levels      []RubricLevelInput `json:"levels" validate:"required,min=1,dive"`
}

type RubricInput struct {
	Title       string           `json:"title" validate:"notblank,max=200"`
	Description string           `json:"description"`
	Criteria    []CriterionInput `json:"criteria" validate:"dive"`
}

type ReleaseConditionInput struct {
	TargetType string         `json:"target_type" validate:"required,oneof=CHAPTER LESSON QUIZ ASSIGNMENT"`
	TargetID   uint           `json:"target_id" validate:"required"`
	RuleType   string         `json:"rule_type" validate:"required,oneof=AFTER_DATE COMPLETED_CHAPTER COMPLETED_LESSON MIN_SCORE"`
	RuleConfig datatypes.JSON `json:"rule_config"`
}

// CreateRubric godoc
// @Summary Create rubric
// @Description Creates a course rubric with its criteria and scoring levels
// @Tags rubrics
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param rubric body RubricInput true "Rubric data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/rubrics [post]
func (rc *RubricsController) CreateRubric(c *fiber.Ctx) error {
	course, err := managedCourse(c, rc.DB)
	if err != nil {
		return err
	}

	var input RubricInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.Title = strings.TrimSpace(input.Title)
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	rubric := models.Rubric{CourseID: course.ID, Title: input.Title, Description: input.Description}
	err = rc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rubric).Error; err != nil {
			return err
		}
		if len(input.Criteria) == 0 {
			return nil
		}
		criteria := make([]models.RubricCriterion, 0, len(input.Criteria))
		for i, cr := range input.Criteria {
			levels := make([]models.RubricLevel, 0, len(cr.Levels))
			for _, l := range cr.Levels {
				levels = append(levels, models.RubricLevel{Label: l.Label, Description: l.Description, Points: l.Points})
			}
			criteria = append(criteria, models.RubricCriterion{
				RubricID:    rubric.ID,
				Title:       strings.TrimSpace(cr.Title),
				Description: cr.Description,
				Position:    i + 1,
				Levels:      levels,
			})
		}
		if err := tx.Create(&criteria).Error; err != nil {
			return err
		}
		rubric.Criteria = criteria
		return nil
	})
	if err != nil {
		return err
	}

	return utils.Created(c, rubric)
}

// ListRubrics godoc
// @Summary List rubrics
// @Tags rubrics
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/rubrics [get]
func (rc *RubricsController) ListRubrics(c *fiber.Ctx) error {
	course, err := managedCourse(c, rc.DB)
	if err != nil {
		return err
	}

	var rubrics []models.Rubric
	if err := rc.DB.Preload("Criteria", ordered).Where("course_id = ?", course.ID).Order("id").Find(&rubrics).Error; err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusOK, rubrics)
}

// CreateReleaseCondition godoc
// @Summary Create release condition
// @Description Gates a chapter, lesson, quiz or assignment of the course behind a rule
// @Tags rubrics
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param condition body ReleaseConditionInput true "Condition data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/release-conditions [post]
func (rc *RubricsController) CreateReleaseCondition(c *fiber.Ctx) error {
	course, err := managedCourse(c, rc.DB)
	if err != nil {
		return err
	}

	var input ReleaseConditionInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.TargetType = strings.ToUpper(strings.TrimSpace(input.TargetType))
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	ok, err := rc.targetInCourse(input.TargetType, input.TargetID, course.ID)
	if err != nil {
		return err
	}
	if !ok {
		return utils.ValidationError(c, []utils.FieldError{{Field: "target_id", Error: "target does not belong to this course"}})
	}

	condition := models.ReleaseCondition{
		CourseID:   course.ID,
		TargetType: input.TargetType,
		TargetID:   input.TargetID,
		RuleType:   input.RuleType,
		RuleConfig: input.RuleConfig,
	}
	if err := rc.DB.Create(&condition).Error; err != nil {
		return err
	}

	return utils.Created(c, condition)
}

func (rc *RubricsController) targetInCourse(targetType string, id, courseID uint) (bool, error) {
	var query *gorm.DB
	switch targetType {
	case models.TargetChapter:
		query = rc.DB.Model(&models.Chapter{}).Where("id = ? AND course_id = ?", id, courseID)
	case models.TargetAssignment:
		query = rc.DB.Model(&models.Assignment{}).Where("id = ? AND course_id = ?", id, courseID)
	case models.TargetLesson:
		query = rc.DB.Model(&models.Lesson{}).
			Joins("JOIN chapters ON chapters.id = lessons.chapter_id").
			Where("lessons.id = ? AND chapters.course_id = ?", id, courseID)
	case models.TargetQuiz:
		query = rc.DB.Model(&models.Quiz{}).
			Joins("JOIN chapters ON chapters.id = quizzes.chapter_id").
			Where("quizzes.id = ? AND chapters.course_id = ?", id, courseID)
	default:
		return false, nil
	}

	var n int64
	if err := query.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
