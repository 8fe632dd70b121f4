package controllers

import (
	"time"

	"lms/backend/config"
	"lms/backend/middleware"
	"lms/backend/models"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	overviewActiveCourses = 3
	overviewUpcoming      = 5
	overviewRecommended   = 3
)

type OverviewController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *utils.Logger
}

func NewOverviewController(db *gorm.DB, cfg *config.Config, log *utils.Logger) *OverviewController {
	return &OverviewController{DB: db, Cfg: cfg, Log: log}
}

type courseCard struct {
	ID        uint    `json:"id"`
	Title     string  `json:"title"`
	Slug      string  `json:"slug"`
	ShortDesc string  `json:"short_desc"`
	Progress  float64 `json:"progress,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

type upcomingAssignment struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	CourseID    uint      `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	DueDate     time.Time `json:"due_date"`
	Points      float64   `json:"points"`
}

// GetUserOverview godoc
// @Summary Student dashboard
// @Description Active courses, upcoming unsubmitted assignments and course recommendations
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/overview [get]
func (oc *OverviewController) GetUserOverview(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	now := time.Now()

	// Активные курсы
	active := []courseCard{}
	if err := oc.DB.Table("enrollments").
		Select("courses.id, courses.title, courses.slug, courses.short_desc, enrollments.completion_rate AS progress").
		Joins("JOIN courses ON courses.id = enrollments.course_id AND courses.deleted_at IS NULL").
		Where("enrollments.user_id = ? AND enrollments.deleted_at IS NULL AND enrollments.completion_rate < 100", user.ID).
		Order("enrollments.updated_at DESC").
		Limit(overviewActiveCourses).
		Scan(&active).Error; err != nil {
		return err
	}

	// Ближайшие задания без отправленных решений
	upcoming := []upcomingAssignment{}
	if err := oc.DB.Table("assignments").
		Select("assignments.id, assignments.title, assignments.course_id, courses.title AS course_title, assignments.due_date, assignments.points").
		Joins("JOIN enrollments ON enrollments.course_id = assignments.course_id AND enrollments.deleted_at IS NULL").
		Joins("JOIN courses ON courses.id = assignments.course_id AND courses.deleted_at IS NULL").
		Where("enrollments.user_id = ? AND assignments.deleted_at IS NULL AND assignments.is_published = ?", user.ID, true).
		Where("assignments.due_date >= ?", now).
		Where("NOT EXISTS (SELECT 1 FROM submissions s WHERE s.assignment_id = assignments.id AND s.student_id = ? AND s.deleted_at IS NULL)", user.ID).
		Order("assignments.due_date").
		Limit(overviewUpcoming).
		Scan(&upcoming).Error; err != nil {
		return err
	}

	recommendations, err := oc.recommendedCourses(user)
	if err != nil {
		oc.Log.Error("recommendations", "user_id", user.ID, "error", err)
		return utils.InternalServerError(c, "Failed to get recommendations")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"active_courses":       active,
		"upcoming_assignments": upcoming,
		"recommendations":      recommendations,
	})
}

// recommendedCourses suggests published courses the user is not enrolled in:
// first from the categories they already study, then the most popular ones.
func (oc *OverviewController) recommendedCourses(user *models.User) ([]courseCard, error) {
	enrolled := oc.DB.Model(&models.Enrollment{}).Select("course_id").Where("user_id = ?", user.ID)
	candidates := func() *gorm.DB {
		return oc.DB.Model(&models.Course{}).
			Select("courses.id, courses.title, courses.slug, courses.short_desc").
			Where("courses.is_published = ? AND courses.instructor_id <> ?", true, user.ID).
			Where("courses.id NOT IN (?)", enrolled).
			Order("(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = courses.id AND e.deleted_at IS NULL) DESC").
			Order("courses.id")
	}

	var byCategory []courseCard
	if err := candidates().
		Where("courses.category <> '' AND courses.category IN (?)",
			oc.DB.Model(&models.Course{}).Select("category").Where("id IN (?)", enrolled)).
		Limit(overviewRecommended).
		Scan(&byCategory).Error; err != nil {
		return nil, err
	}
	recommendations := make([]courseCard, 0, overviewRecommended)
	seen := map[uint]bool{}
	for _, card := range byCategory {
		card.Reason = "Same category as your courses"
		seen[card.ID] = true
		recommendations = append(recommendations, card)
	}
	if len(recommendations) == overviewRecommended {
		return recommendations, nil
	}

	// Если не хватило, добавляем популярные курсы
	var popular []courseCard
	if err := candidates().Limit(overviewRecommended * 2).Scan(&popular).Error; err != nil {
		return nil, err
	}
	for _, card := range popular {
		if len(recommendations) == overviewRecommended {
			break
		}
		if seen[card.ID] {
			continue
		}
		card.Reason = "Popular on the platform"
		recommendations = append(recommendations, card)
	}
	return recommendations, nil
}
