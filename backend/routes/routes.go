package routes

import (
	"lms/backend/config"
	"lms/backend/controllers"
	"lms/backend/middleware"
	"lms/backend/models"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, log *utils.Logger) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg, log)
	auth := app.Group("/api/auth", middleware.RateLimiter(cfg))
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)

	// Public catalog
	coursesController := controllers.NewCoursesController(db, cfg, log)
	app.Get("/api/courses", coursesController.ListCourses)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(db, cfg)
	authorOnly := middleware.RequireRole(models.RoleInstructor, models.RoleAdmin)

	// User routes
	userController := controllers.NewUserController(db, cfg, log)
	overviewController := controllers.NewOverviewController(db, cfg, log)
	user := app.Group("/api/user", authMiddleware)
	user.Get("/profile", userController.GetProfile)
	user.Put("/profile", userController.UpdateProfile)
	user.Get("/courses", userController.GetUserCourses)
	user.Get("/activity", userController.GetUserActivity)
	user.Get("/overview", overviewController.GetUserOverview)

	// Courses routes
	quizzesController := controllers.NewQuizzesController(db, cfg, log)
	rubricsController := controllers.NewRubricsController(db, cfg, log)
	announcementsController := controllers.NewAnnouncementsController(db, cfg, log)
	assignmentsController := controllers.NewAssignmentsController(db, cfg, log)
	analyticsController := controllers.NewAnalyticsController(db, cfg, log)
	cloneController := controllers.NewCloneController(db, cfg, log)

	courses := app.Group("/api/courses", authMiddleware)
	courses.Post("/", authorOnly, coursesController.CreateCourse)
	courses.Get("/:id", coursesController.GetCourseDetails)
	courses.Put("/:id", coursesController.UpdateCourse)
	courses.Post("/:id/clone", cloneController.CloneCourse)
	courses.Post("/:id/enroll", coursesController.Enroll)
	courses.Post("/:id/progress", coursesController.UpdateCourseProgress)

	courses.Post("/:id/chapters", coursesController.AddChapter)
	courses.Post("/:id/chapters/:chapterId/lessons", coursesController.AddLesson)
	courses.Get("/:id/chapters/:chapterId/quiz", quizzesController.GetQuiz)
	courses.Post("/:id/chapters/:chapterId/quiz", quizzesController.CreateQuiz)
	courses.Post("/:id/chapters/:chapterId/quiz/questions", quizzesController.AddQuestion)

	courses.Get("/:id/rubrics", rubricsController.ListRubrics)
	courses.Post("/:id/rubrics", rubricsController.CreateRubric)
	courses.Post("/:id/release-conditions", rubricsController.CreateReleaseCondition)
	courses.Get("/:id/announcements", announcementsController.GetAnnouncements)
	courses.Post("/:id/announcements", announcementsController.AddAnnouncement)
	courses.Post("/:id/assignments", assignmentsController.CreateAssignment)

	courses.Get("/:id/analytics", analyticsController.GetCourseAnalytics)
	courses.Get("/:id/analytics/at-risk", analyticsController.GetAtRiskStudents)

	// Assignments and grading
	app.Post("/api/assignments/:id/submissions", authMiddleware, assignmentsController.Submit)
	app.Post("/api/submissions/:id/grade", authMiddleware, assignmentsController.Grade)

	// Admin routes
	admin := app.Group("/api/admin", authMiddleware, middleware.AdminMiddleware())
	admin.Get("/analytics", analyticsController.GetPlatformAnalytics)
}
