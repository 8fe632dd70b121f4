package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lms/backend/config"
	"lms/backend/middleware"
	"lms/backend/models"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizzesController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *utils.Logger
}

func NewQuizzesController(db *gorm.DB, cfg *config.Config, log *utils.Logger) *QuizzesController {
	return &QuizzesController{DB: db, Cfg: cfg, Log: log}
}

type QuestionInput struct {
	Type           string         `json:"type" validate:"required,oneof=MULTIPLE_CHOICE TRUE_FALSE MATCHING ORDERING ESSAY FILL_IN_BLANK MULTI_SELECT"`
	Text           string         `json:"text" validate:"notblank"`
	Points         float64        `json:"points" validate:"min=0"`
	Explanation    string         `json:"explanation"`
	Options        datatypes.JSON `json:"options"`
	CorrectAnswer  datatypes.JSON `json:"correct_answer"`
	CorrectAnswers datatypes.JSON `json:"correct_answers"`
	MatchingPairs  datatypes.JSON `json:"matching_pairs"`
	OrderingItems  datatypes.JSON `json:"ordering_items"`
	Blanks         datatypes.JSON `json:"blanks"`
}

type QuizInput struct {
	Title              string          `json:"title" validate:"notblank,max=200"`
	Description        string          `json:"description"`
	TimeLimitMinutes   int             `json:"time_limit_minutes" validate:"min=0"`
	MaxAttempts        int             `json:"max_attempts" validate:"min=0"`
	PassingScore       float64         `json:"passing_score" validate:"min=0,max=100"`
	ShuffleQuestions   bool            `json:"shuffle_questions"`
	ShuffleAnswers     bool            `json:"shuffle_answers"`
	ShowResults        bool            `json:"show_results"`
	LatePolicy         string          `json:"late_policy" validate:"omitempty,oneof=ALLOW DENY PENALTY"`
	LatePenalty        float64         `json:"late_penalty" validate:"min=0,max=100"`
	RequiresProctoring bool            `json:"requires_proctoring"`
	LockdownBrowser    bool            `json:"lockdown_browser"`
	IsPublished        bool            `json:"is_published"`
	AvailableFrom      *time.Time      `json:"available_from"`
	AvailableUntil     *time.Time      `json:"available_until"`
	Questions          []QuestionInput `json:"questions" validate:"dive"`
}

// answerFields lists, per question type, the structured fields the type needs.
var answerFields = map[string][]string{
	models.QuestionMultipleChoice: {"options", "correct_answer"},
	models.QuestionTrueFalse:      {"correct_answer"},
	models.QuestionMatching:       {"matching_pairs"},
	models.QuestionOrdering:       {"ordering_items"},
	models.QuestionEssay:          nil,
	models.QuestionFillInBlank:    {"blanks"},
	models.QuestionMultiSelect:    {"options", "correct_answers"},
}

func (q QuestionInput) field(name string) datatypes.JSON {
	switch name {
	case "options":
		return q.Options
	case "correct_answer":
		return q.CorrectAnswer
	case "correct_answers":
		return q.CorrectAnswers
	case "matching_pairs":
		return q.MatchingPairs
	case "ordering_items":
		return q.OrderingItems
	case "blanks":
		return q.Blanks
	}
	return nil
}

// questionErrors checks the type-specific answer fields of q; prefix locates q in the request.
func questionErrors(prefix string, q QuestionInput) []utils.FieldError {
	var fields []utils.FieldError
	for _, name := range answerFields[q.Type] {
		raw := q.field(name)
		if len(raw) == 0 || string(raw) == "null" {
			fields = append(fields, utils.FieldError{
				Field: prefix + name,
				Error: fmt.Sprintf("%s is required for %s questions", name, q.Type),
			})
		}
	}
	return fields
}

func (q QuestionInput) model(quizID uint, position int) models.Question {
	return models.Question{
		QuizID:         quizID,
		Type:           q.Type,
		Text:           strings.TrimSpace(q.Text),
		Position:       position,
		Points:         q.Points,
		Explanation:    q.Explanation,
		Options:        q.Options,
		CorrectAnswer:  q.CorrectAnswer,
		CorrectAnswers: q.CorrectAnswers,
		MatchingPairs:  q.MatchingPairs,
		OrderingItems:  q.OrderingItems,
		Blanks:         q.Blanks,
	}
}

// CreateQuiz godoc
// @Summary Create chapter quiz
// @Description Creates the quiz of a chapter together with its ordered questions
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param chapterId path int true "Chapter ID"
// @Param quiz body QuizInput true "Quiz data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/chapters/{chapterId}/quiz [post]
func (qc *QuizzesController) CreateQuiz(c *fiber.Ctx) error {
	course, err := managedCourse(c, qc.DB)
	if err != nil {
		return err
	}
	chapter, err := chapterFromParam(c, qc.DB, course)
	if err != nil {
		return err
	}

	var input QuizInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.Title = strings.TrimSpace(input.Title)
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}
	var fields []utils.FieldError
	for i, q := range input.Questions {
		fields = append(fields, questionErrors(fmt.Sprintf("questions[%d].", i), q)...)
	}
	if windowInverted(input.AvailableFrom, input.AvailableUntil) {
		fields = append(fields, utils.FieldError{Field: "available_until", Error: "available_until must not be before available_from"})
	}
	if len(fields) > 0 {
		return utils.ValidationError(c, fields)
	}

	var existing int64
	if err := qc.DB.Model(&models.Quiz{}).Where("chapter_id = ?", chapter.ID).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return utils.Conflict(c, "Chapter already has a quiz")
	}

	policy := input.LatePolicy
	if policy == "" {
		policy = models.LatePolicyAllow
	}
	quiz := models.Quiz{
		ChapterID:          chapter.ID,
		Title:              input.Title,
		Description:        input.Description,
		TimeLimitMinutes:   input.TimeLimitMinutes,
		MaxAttempts:        input.MaxAttempts,
		PassingScore:       input.PassingScore,
		ShuffleQuestions:   input.ShuffleQuestions,
		ShuffleAnswers:     input.ShuffleAnswers,
		ShowResults:        input.ShowResults,
		LatePolicy:         policy,
		LatePenalty:        input.LatePenalty,
		RequiresProctoring: input.RequiresProctoring,
		LockdownBrowser:    input.LockdownBrowser,
		IsPublished:        input.IsPublished,
		AvailableFrom:      input.AvailableFrom,
		AvailableUntil:     input.AvailableUntil,
	}

	err = qc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&quiz).Error; err != nil {
			return err
		}
		if len(input.Questions) == 0 {
			return nil
		}
		questions := make([]models.Question, 0, len(input.Questions))
		for i, q := range input.Questions {
			questions = append(questions, q.model(quiz.ID, i+1))
		}
		if err := tx.Create(&questions).Error; err != nil {
			return err
		}
		quiz.Questions = questions
		return nil
	})
	if err != nil {
		return err
	}

	return utils.Created(c, quiz)
}

// AddQuestion godoc
// @Summary Add question
// @Description Appends a question to a chapter quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param chapterId path int true "Chapter ID"
// @Param question body QuestionInput true "Question data"
// @Success 201 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/chapters/{chapterId}/quiz/questions [post]
func (qc *QuizzesController) AddQuestion(c *fiber.Ctx) error {
	course, err := managedCourse(c, qc.DB)
	if err != nil {
		return err
	}
	chapter, err := chapterFromParam(c, qc.DB, course)
	if err != nil {
		return err
	}

	var input QuestionInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}
	if fields := questionErrors("", input); len(fields) > 0 {
		return utils.ValidationError(c, fields)
	}

	var quiz models.Quiz
	if err := qc.DB.Where("chapter_id = ?", chapter.ID).First(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Quiz not found")
		}
		return err
	}

	// Get current question count to set sequence order
	position, err := nextPosition(qc.DB.Model(&models.Question{}).Where("quiz_id = ?", quiz.ID))
	if err != nil {
		return err
	}
	question := input.model(quiz.ID, position)
	if err := qc.DB.Create(&question).Error; err != nil {
		return err
	}

	return utils.Created(c, question)
}

// GetQuiz godoc
// @Summary Get chapter quiz
// @Description Owners and admins get the full quiz; enrolled students get a published quiz without answers
// @Tags quizzes
// @Produce json
// @Param id path int true "Course ID"
// @Param chapterId path int true "Chapter ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/chapters/{chapterId}/quiz [get]
func (qc *QuizzesController) GetQuiz(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	course, err := courseFromParam(c, qc.DB)
	if err != nil {
		return err
	}
	chapter, err := chapterFromParam(c, qc.DB, course)
	if err != nil {
		return err
	}
	manager := user.Manages(course)

	if !manager {
		var enrolled int64
		if err := qc.DB.Model(&models.Enrollment{}).
			Where("user_id = ? AND course_id = ?", user.ID, course.ID).
			Count(&enrolled).Error; err != nil {
			return err
		}
		if enrolled == 0 {
			return utils.Forbidden(c, "Not enrolled in this course")
		}
	}

	query := qc.DB.Preload("Questions", ordered).Where("chapter_id = ?", chapter.ID)
	if !manager {
		query = query.Where("is_published = ?", true)
	}
	var quiz models.Quiz
	if err := query.First(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Quiz not found")
		}
		return err
	}

	if !manager {
		for i := range quiz.Questions {
			quiz.Questions[i].CorrectAnswer = nil
			quiz.Questions[i].CorrectAnswers = nil
			quiz.Questions[i].Explanation = ""
		}
	}

	return utils.Success(c, fiber.StatusOK, quiz)
}
