package controllers

import (
	"strconv"
	"strings"

	"lms/backend/middleware"
	"lms/backend/models"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// paramID reads a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func pagination(c *fiber.Ctx) (page, pageSize, offset int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	pageSize, _ = strconv.Atoi(c.Query("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize, (page - 1) * pageSize
}

// serviceError maps a services error to its HTTP response. Unexpected errors are
// logged and answered with a generic message.
func serviceError(c *fiber.Ctx, log *utils.Logger, err error, internalMsg string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return utils.ValidationError(c, verr.Fields)
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFound(c, "Not found")
	case errors.Is(err, services.ErrForbidden):
		return utils.Forbidden(c, "Forbidden")
	case errors.Is(err, services.ErrConflict):
		return utils.Conflict(c, "Conflict")
	case errors.Is(err, services.ErrRejected):
		return utils.BadRequest(c, rejectionReason(err))
	default:
		log.Error(internalMsg, "path", c.Path(), "error", err)
		return utils.InternalServerError(c, internalMsg)
	}
}

// rejectionReason strips the sentinel suffix from a wrapped ErrRejected.
func rejectionReason(err error) string {
	return strings.TrimSuffix(err.Error(), ": "+services.ErrRejected.Error())
}

// courseFromParam loads the course named by the ":id" route parameter.
func courseFromParam(c *fiber.Ctx, db *gorm.DB) (*models.Course, error) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid course ID")
	}
	var course models.Course
	if err := db.WithContext(c.UserContext()).First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Course not found")
		}
		return nil, errors.Wrap(err, "load course")
	}
	return &course, nil
}

// managedCourse is courseFromParam restricted to the course owner and admins.
func managedCourse(c *fiber.Ctx, db *gorm.DB) (*models.Course, error) {
	course, err := courseFromParam(c, db)
	if err != nil {
		return nil, err
	}
	if !middleware.CurrentUser(c).Manages(course) {
		return nil, fiber.NewError(fiber.StatusForbidden, "You don't have permission to manage this course")
	}
	return course, nil
}

// chapterFromParam loads the ":chapterId" chapter of course.
func chapterFromParam(c *fiber.Ctx, db *gorm.DB, course *models.Course) (*models.Chapter, error) {
	id, ok := paramID(c, "chapterId")
	if !ok {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid chapter ID")
	}
	var chapter models.Chapter
	if err := db.WithContext(c.UserContext()).Where("id = ? AND course_id = ?", id, course.ID).First(&chapter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Chapter not found")
		}
		return nil, errors.Wrap(err, "load chapter")
	}
	return &chapter, nil
}
