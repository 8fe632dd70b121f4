package controllers

import (
	"lms/backend/config"
	"lms/backend/middleware"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AssignmentsController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Log     *utils.Logger
	Grading *services.Grading
}

func NewAssignmentsController(db *gorm.DB, cfg *config.Config, log *utils.Logger) *AssignmentsController {
	return &AssignmentsController{DB: db, Cfg: cfg, Log: log, Grading: services.NewGrading(db, log)}
}

// CreateAssignment godoc
// @Summary Create assignment
// @Description Creates an assignment, optionally inside a chapter and graded with a course rubric
// @Tags assignments
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param assignment body services.AssignmentInput true "Assignment data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/assignments [post]
func (ac *AssignmentsController) CreateAssignment(c *fiber.Ctx) error {
	courseID, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var input services.AssignmentInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	assignment, err := ac.Grading.CreateAssignment(c.UserContext(), middleware.CurrentUser(c), courseID, input)
	if err != nil {
		return serviceError(c, ac.Log, err, "Could not create assignment")
	}
	return utils.Created(c, assignment)
}

// Submit godoc
// @Summary Submit assignment
// @Description Records a new attempt for the calling student
// @Tags assignments
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param submission body services.SubmissionInput true "Submission"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /assignments/{id}/submissions [post]
func (ac *AssignmentsController) Submit(c *fiber.Ctx) error {
	assignmentID, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid assignment ID")
	}

	var input services.SubmissionInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	submission, err := ac.Grading.Submit(c.UserContext(), middleware.CurrentUser(c), assignmentID, input)
	if err != nil {
		return serviceError(c, ac.Log, err, "Could not save submission")
	}
	return utils.Created(c, submission)
}

// Grade godoc
// @Summary Grade submission
// @Description Scores a submission and applies the late penalty of the assignment
// @Tags assignments
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param grade body services.GradeInput true "Score and feedback"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /submissions/{id}/grade [post]
func (ac *AssignmentsController) Grade(c *fiber.Ctx) error {
	submissionID, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid submission ID")
	}

	var input services.GradeInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	submission, err := ac.Grading.Grade(c.UserContext(), middleware.CurrentUser(c), submissionID, input)
	if err != nil {
		return serviceError(c, ac.Log, err, "Could not grade submission")
	}
	return utils.Success(c, fiber.StatusOK, submission)
}
