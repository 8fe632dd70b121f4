package controllers

import (
	"encoding/json"

	"lms/backend/config"
	"lms/backend/middleware"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CloneController exposes course duplication.
type CloneController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Log    *utils.Logger
	Cloner *services.CourseCloner
}

func NewCloneController(db *gorm.DB, cfg *config.Config, log *utils.Logger) *CloneController {
	return &CloneController{DB: db, Cfg: cfg, Log: log, Cloner: services.NewCourseCloner(db, log)}
}

// CloneResponse is the body returned for a successful clone
type CloneResponse struct {
	ID      uint   `json:"id" example:"42"`
	Title   string `json:"title" example:"Statics 2025"`
	Slug    string `json:"slug" example:"statics-copy"`
	Message string `json:"message" example:"Course cloned successfully"`
}

// CloneCourse godoc
// @Summary Clone course
// @Description Deep-copies a course into a new unpublished course owned by the caller.
// @Description Dates can be shifted and parts of the course left out; all include flags default to true.
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Source course ID"
// @Param input body services.CloneOptions true "Clone options"
// @Success 201 {object} CloneResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/clone [post]
func (cc *CloneController) CloneCourse(c *fiber.Ctx) error {
	sourceID, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid course ID")
	}
	// 404/403 раньше ошибок тела запроса
	if _, err := managedCourse(c, cc.DB); err != nil {
		return err
	}

	var opts services.CloneOptions
	if err := c.BodyParser(&opts); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return utils.ValidationError(c, []utils.FieldError{{Field: typeErr.Field, Error: "must be " + typeErr.Type.String()}})
		}
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	user := middleware.CurrentUser(c)
	result, err := cc.Cloner.Clone(c.UserContext(), user, sourceID, opts)
	if err != nil {
		return serviceError(c, cc.Log.With("course_id", sourceID, "user_id", user.ID), err, "Failed to clone course")
	}

	return c.Status(fiber.StatusCreated).JSON(CloneResponse{
		ID:      result.ID,
		Title:   result.Title,
		Slug:    result.Slug,
		Message: "Course cloned successfully",
	})
}
