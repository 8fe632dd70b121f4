package controllers

import (
	"strings"
	"time"

	"lms/backend/config"
	"lms/backend/middleware"
	"lms/backend/models"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AnnouncementsController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *utils.Logger
}

func NewAnnouncementsController(db *gorm.DB, cfg *config.Config, log *utils.Logger) *AnnouncementsController {
	return &AnnouncementsController{DB: db, Cfg: cfg, Log: log}
}

// AddAnnouncementRequest defines the request body for posting an announcement
type AddAnnouncementRequest struct {
	Title       string `json:"title" example:"Midterm moved" validate:"notblank,max=200"`
	Body        string `json:"body" example:"The midterm is now on Friday." validate:"max=10000"`
	IsPublished bool   `json:"is_published"`
}

// AddAnnouncement godoc
// @Summary Add announcement to course
// @Description Posts an announcement; published ones are stamped with the publication time
// @Tags announcements
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param input body AddAnnouncementRequest true "Announcement data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/announcements [post]
func (ac *AnnouncementsController) AddAnnouncement(c *fiber.Ctx) error {
	course, err := managedCourse(c, ac.DB)
	if err != nil {
		return err
	}

	var input AddAnnouncementRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.Title = strings.TrimSpace(input.Title)
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	announcement := models.Announcement{
		CourseID:    course.ID,
		AuthorID:    middleware.CurrentUser(c).ID,
		Title:       input.Title,
		Body:        input.Body,
		IsPublished: input.IsPublished,
	}
	if input.IsPublished {
		now := time.Now()
		announcement.PublishedAt = &now
	}

	if err := ac.DB.Create(&announcement).Error; err != nil {
		return err
	}

	return utils.Created(c, announcement)
}

// GetAnnouncements godoc
// @Summary Get course announcements
// @Description Returns published announcements, newest first; owners and admins also see drafts
// @Tags announcements
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/announcements [get]
func (ac *AnnouncementsController) GetAnnouncements(c *fiber.Ctx) error {
	course, err := courseFromParam(c, ac.DB)
	if err != nil {
		return err
	}
	manager := middleware.CurrentUser(c).Manages(course)
	if !manager && !course.IsPublished {
		return utils.NotFound(c, "Course not found")
	}

	query := ac.DB.Where("course_id = ?", course.ID)
	if !manager {
		query = query.Where("is_published = ?", true)
	}

	var announcements []models.Announcement
	if err := query.Order("created_at DESC").Order("id DESC").Find(&announcements).Error; err != nil {
		return err
	}
	if announcements == nil {
		announcements = []models.Announcement{}
	}

	return utils.Success(c, fiber.StatusOK, announcements)
}
