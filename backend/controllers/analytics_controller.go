package controllers

import (
	"strings"
	"time"

	"lms/backend/config"
	"lms/backend/middleware"
	"lms/backend/models"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AnalyticsController struct {
	DB   *gorm.DB
	Cfg  *config.Config
	Log  *utils.Logger
	Risk *services.RiskAnalyzer
}

func NewAnalyticsController(db *gorm.DB, cfg *config.Config, log *utils.Logger) *AnalyticsController {
	return &AnalyticsController{DB: db, Cfg: cfg, Log: log, Risk: services.NewRiskAnalyzer(db, log)}
}

// GetAtRiskStudents godoc
// @Summary At-risk students
// @Description Scores every enrolled student by missing work, grades, lateness and inactivity
// @Tags analytics
// @Produce json
// @Param id path int true "Course ID"
// @Param as_of query string false "Evaluation time (RFC3339 or YYYY-MM-DD), defaults to now"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/analytics/at-risk [get]
func (ac *AnalyticsController) GetAtRiskStudents(c *fiber.Ctx) error {
	courseID, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid course ID")
	}

	asOf := time.Now()
	if raw := strings.TrimSpace(c.Query("as_of")); raw != "" {
		parsed, err := utils.ParseDate(raw)
		if err != nil {
			return utils.BadRequest(c, "Invalid as_of format. Use RFC3339 or YYYY-MM-DD")
		}
		asOf = parsed
	}

	report, err := ac.Risk.AtRisk(c.UserContext(), middleware.CurrentUser(c), courseID, asOf)
	if err != nil {
		return serviceError(c, ac.Log, err, "Failed to compute at-risk report")
	}

	summary := map[string]int{models.RiskHigh: 0, models.RiskMedium: 0, models.RiskLow: 0}
	for _, r := range report {
		summary[r.Level]++
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course_id": courseID,
		"as_of":     asOf.Format(time.RFC3339),
		"students":  report,
		"summary":   summary,
	})
}

// GetCourseAnalytics godoc
// @Summary Course analytics
// @Description Enrollment and completion statistics of a course (owner or admin)
// @Tags analytics
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/analytics [get]
func (ac *AnalyticsController) GetCourseAnalytics(c *fiber.Ctx) error {
	course, err := managedCourse(c, ac.DB)
	if err != nil {
		return err
	}

	// Получаем статистику по курсу
	var stats struct {
		TotalEnrollments  int64   `json:"total_enrollments"`
		Completed         int64   `json:"completed"`
		AvgCompletionRate float64 `json:"avg_completion_rate"`
	}
	enrollments := ac.DB.Model(&models.Enrollment{}).Where("course_id = ?", course.ID).Session(&gorm.Session{})
	if err := enrollments.Count(&stats.TotalEnrollments).Error; err != nil {
		return err
	}
	if err := enrollments.Where("completion_rate >= 100").Count(&stats.Completed).Error; err != nil {
		return err
	}
	if err := enrollments.Select("COALESCE(AVG(completion_rate), 0)").Scan(&stats.AvgCompletionRate).Error; err != nil {
		return err
	}

	// Прогресс по урокам
	var lessonStats []struct {
		LessonID    uint   `json:"lesson_id"`
		LessonTitle string `json:"lesson_title"`
		Completed   int64  `json:"completed"`
	}
	if err := ac.DB.Raw(`
		SELECT l.id AS lesson_id, l.title AS lesson_title, COUNT(lc.id) AS completed
		FROM lessons l
		JOIN chapters ch ON ch.id = l.chapter_id AND ch.deleted_at IS NULL
		LEFT JOIN lesson_completions lc ON lc.lesson_id = l.id AND lc.deleted_at IS NULL
		WHERE ch.course_id = ? AND l.deleted_at IS NULL
		GROUP BY l.id, l.title, ch.position, l.position
		ORDER BY ch.position, l.position
	`, course.ID).Scan(&lessonStats).Error; err != nil {
		return err
	}

	trends, err := enrollmentTrends(ac.DB, course.ID)
	if err != nil {
		return err
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course_id":    course.ID,
		"course_title": course.Title,
		"stats":        stats,
		"lesson_stats": lessonStats,
		"enrollments":  trends,
	})
}

type enrollmentTrend struct {
	Date        string `json:"date"`
	Enrollments int64  `json:"enrollments"`
}

// enrollmentTrends возвращает динамику записей на курс по дням
func enrollmentTrends(db *gorm.DB, courseID uint) ([]enrollmentTrend, error) {
	trends := []enrollmentTrend{}
	err := db.Raw(`
		SELECT CAST(DATE(created_at) AS TEXT) AS date, COUNT(*) AS enrollments
		FROM enrollments
		WHERE course_id = ? AND deleted_at IS NULL
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at)
	`, courseID).Scan(&trends).Error
	return trends, err
}

// GetPlatformAnalytics godoc
// @Summary Platform analytics
// @Description Platform-wide counters and the most popular courses (admin only)
// @Tags analytics
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/analytics [get]
func (ac *AnalyticsController) GetPlatformAnalytics(c *fiber.Ctx) error {
	now := time.Now()

	var metrics struct {
		TotalUsers        int64   `json:"total_users"`
		ActiveUsers       int64   `json:"active_users"`
		NewUsers          int64   `json:"new_users"`
		TotalCourses      int64   `json:"total_courses"`
		PublishedCourses  int64   `json:"published_courses"`
		TotalSubmissions  int64   `json:"total_submissions"`
		AvgCourseProgress float64 `json:"avg_course_progress"`
	}

	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{ac.DB.Model(&models.User{}), &metrics.TotalUsers},
		{ac.DB.Model(&models.LoginHistory{}).Distinct("user_id").Where("login_time > ?", now.AddDate(0, 0, -30)), &metrics.ActiveUsers},
		{ac.DB.Model(&models.User{}).Where("created_at > ?", now.AddDate(0, 0, -7)), &metrics.NewUsers},
		{ac.DB.Model(&models.Course{}), &metrics.TotalCourses},
		{ac.DB.Model(&models.Course{}).Where("is_published = ?", true), &metrics.PublishedCourses},
		{ac.DB.Model(&models.Submission{}), &metrics.TotalSubmissions},
	}
	for _, q := range counts {
		if err := q.query.Count(q.dest).Error; err != nil {
			return err
		}
	}
	if err := ac.DB.Model(&models.Enrollment{}).
		Select("COALESCE(AVG(completion_rate), 0)").
		Scan(&metrics.AvgCourseProgress).Error; err != nil {
		return err
	}

	// Самые популярные курсы
	var popular []struct {
		ID            uint    `json:"id"`
		Title         string  `json:"title"`
		Enrollments   int64   `json:"enrollments"`
		AvgCompletion float64 `json:"avg_completion"`
	}
	if err := ac.DB.Raw(`
		SELECT c.id, c.title, COUNT(e.id) AS enrollments, COALESCE(AVG(e.completion_rate), 0) AS avg_completion
		FROM courses c
		LEFT JOIN enrollments e ON e.course_id = c.id AND e.deleted_at IS NULL
		WHERE c.deleted_at IS NULL
		GROUP BY c.id, c.title
		ORDER BY enrollments DESC, c.id
		LIMIT 5
	`).Scan(&popular).Error; err != nil {
		return err
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"metrics":         metrics,
		"popular_courses": popular,
		"timestamp":       now.Format(time.RFC3339),
	})
}
