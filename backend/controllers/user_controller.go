package controllers

import (
	"strconv"
	"strings"
	"time"

	"lms/backend/config"
	"lms/backend/middleware"
	"lms/backend/models"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Log *utils.Logger
}

func NewUserController(db *gorm.DB, cfg *config.Config, log *utils.Logger) *UserController {
	return &UserController{DB: db, Cfg: cfg, Log: log}
}

type UpdateUserRequest struct {
	Username    string `json:"username" example:"john_doe" validate:"omitempty,min=3,max=50,alphanumunicode"`
	Email       string `json:"email" example:"user@example.com" validate:"omitempty,email"`
	OldPassword string `json:"old_password" example:"oldPassword123"`
	NewPassword string `json:"new_password" example:"newPassword123" validate:"omitempty,min=8,max=72"`
	Group       string `json:"group" example:"ME-21" validate:"max=50"`
	University  string `json:"university" example:"Stanford University" validate:"max=200"`
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns authenticated user's profile data
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var enrollments int64
	if err := uc.DB.Model(&models.Enrollment{}).Where("user_id = ?", user.ID).Count(&enrollments).Error; err != nil {
		uc.Log.Error("count enrollments", "user_id", user.ID, "error", err)
		return utils.InternalServerError(c, "Failed to load profile")
	}

	var teaching int64
	if user.CanAuthor() {
		if err := uc.DB.Model(&models.Course{}).Where("instructor_id = ?", user.ID).Count(&teaching).Error; err != nil {
			uc.Log.Error("count courses", "user_id", user.ID, "error", err)
			return utils.InternalServerError(c, "Failed to load profile")
		}
	}

	// Формируем ответ без чувствительных данных
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":          user.ID,
		"username":    user.Username,
		"email":       user.Email,
		"role":        user.Role,
		"group":       user.Group,
		"university":  user.University,
		"created_at":  user.CreatedAt,
		"enrollments": enrollments,
		"teaching":    teaching,
	})
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Updates authenticated user's profile data
// @Tags users
// @Accept json
// @Produce json
// @Param input body UpdateUserRequest true "Profile update data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input UpdateUserRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	// Обновление имени пользователя
	if input.Username != "" && input.Username != user.Username {
		taken, err := uc.taken("username", input.Username, user.ID)
		if err != nil {
			uc.Log.Error("check username", "error", err)
			return utils.InternalServerError(c, "Could not update user")
		}
		if taken {
			return utils.Conflict(c, "Username already taken")
		}
		user.Username = input.Username
	}

	// Обновление email
	if input.Email != "" && input.Email != user.Email {
		taken, err := uc.taken("email", input.Email, user.ID)
		if err != nil {
			uc.Log.Error("check email", "error", err)
			return utils.InternalServerError(c, "Could not update user")
		}
		if taken {
			return utils.Conflict(c, "Email already taken")
		}
		user.Email = input.Email
	}

	// Обновление пароля
	if input.NewPassword != "" {
		if input.OldPassword == "" {
			return utils.BadRequest(c, "Old password is required to set new password")
		}

		// Проверяем старый пароль
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
			return utils.Unauthorized(c, "Invalid old password")
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return utils.InternalServerError(c, "Could not hash password")
		}
		user.PasswordHash = string(hashedPassword)
	}

	if input.Group != "" {
		user.Group = input.Group
	}
	if input.University != "" {
		user.University = input.University
	}

	if err := uc.DB.Save(user).Error; err != nil {
		uc.Log.Error("save user", "user_id", user.ID, "error", err)
		return utils.InternalServerError(c, "Could not update user")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Profile updated successfully",
	})
}

// taken reports whether another user already uses value in column.
func (uc *UserController) taken(column, value string, self uint) (bool, error) {
	var n int64
	err := uc.DB.Model(&models.User{}).Where(column+" = ? AND id <> ?", value, self).Count(&n).Error
	return n > 0, err
}

// GetUserCourses godoc
// @Summary Get user's courses
// @Description Returns paginated list of the user's enrollments with progress
// @Tags users
// @Produce json
// @Param status query string false "Filter by status (all|in_progress|completed)" default(all)
// @Param search query string false "Search term"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(10)
// @Success 200 {object} utils.PaginatedResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/courses [get]
func (uc *UserController) GetUserCourses(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	page, pageSize, offset := pagination(c)

	query := uc.DB.Table("enrollments").
		Joins("JOIN courses ON courses.id = enrollments.course_id AND courses.deleted_at IS NULL").
		Where("enrollments.user_id = ? AND enrollments.deleted_at IS NULL", user.ID)

	switch c.Query("status", "all") {
	case "in_progress":
		query = query.Where("enrollments.completion_rate < 100")
	case "completed":
		query = query.Where("enrollments.completion_rate >= 100")
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		query = query.Where("LOWER(courses.title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		uc.Log.Error("count user courses", "user_id", user.ID, "error", err)
		return utils.InternalServerError(c, "Failed to fetch progress data")
	}

	type userCourse struct {
		ID               uint       `json:"id"`
		Title            string     `json:"title"`
		Slug             string     `json:"slug"`
		ShortDesc        string     `json:"short_desc"`
		ImageURL         string     `json:"image_url"`
		CompletionRate   float64    `json:"progress"`
		LessonsCompleted int        `json:"completed"`
		LastAccessedAt   *time.Time `json:"last_accessed"`
	}
	var courses []userCourse
	if err := query.
		Select("courses.id, courses.title, courses.slug, courses.short_desc, courses.image_url, " +
			"enrollments.completion_rate, enrollments.lessons_completed, enrollments.last_accessed_at").
		Order("enrollments.updated_at DESC").
		Offset(offset).Limit(pageSize).
		Scan(&courses).Error; err != nil {
		uc.Log.Error("list user courses", "user_id", user.ID, "error", err)
		return utils.InternalServerError(c, "Failed to fetch progress data")
	}

	return utils.Paginate(c, courses, total, page, pageSize)
}

// GetUserActivity godoc
// @Summary Get user activity
// @Description Returns the user's recent logins
// @Tags users
// @Produce json
// @Param days query int false "Number of days to look back" default(7)
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/activity [get]
func (uc *UserController) GetUserActivity(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	days, err := strconv.Atoi(c.Query("days", "7"))
	if err != nil || days < 1 {
		return utils.BadRequest(c, "days must be a positive integer")
	}

	var logins []models.LoginHistory
	if err := uc.DB.Where("user_id = ? AND login_time >= ?", user.ID, time.Now().AddDate(0, 0, -days)).
		Order("login_time DESC").
		Find(&logins).Error; err != nil {
		uc.Log.Error("login history", "user_id", user.ID, "error", err)
		return utils.InternalServerError(c, "Failed to fetch login history")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"logins":      logins,
		"period_days": days,
	})
}
