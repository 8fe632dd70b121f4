// Package testutil provides an in-memory database and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"lms/backend/config"
	"lms/backend/models"
	"lms/backend/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const Password = "Passw0rd!"

// Config returns a configuration suitable for tests.
func Config() *config.Config {
	return &config.Config{
		DBDriver:         "sqlite",
		DBPath:           ":memory:",
		JWTSecret:        "testsecret",
		JWTTTL:           time.Hour,
		ServerPort:       "8080",
		LogMode:          "development",
		CORSAllowOrigins: "*",
		RateLimitMax:     1000,
		RateLimitWindow:  time.Minute,
	}
}

// DB opens a fresh migrated in-memory sqlite database that is closed when t ends.
func DB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := utils.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func SeedUser(t testing.TB, db *gorm.DB, username, role string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

func SeedCourse(t testing.TB, db *gorm.DB, instructorID uint, title, slug string) models.Course {
	t.Helper()

	course := models.Course{
		Title:        title,
		Slug:         slug,
		Description:  fmt.Sprintf("%s description", title),
		Category:     "engineering",
		InstructorID: instructorID,
		IsPublished:  true,
	}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("seed course %s: %v", slug, err)
	}
	return course
}

func SeedChapter(t testing.TB, db *gorm.DB, courseID uint, title string, position int) models.Chapter {
	t.Helper()

	chapter := models.Chapter{CourseID: courseID, Title: title, Position: position, IsPublished: true}
	if err := db.Create(&chapter).Error; err != nil {
		t.Fatalf("seed chapter %s: %v", title, err)
	}
	return chapter
}

func Enroll(t testing.TB, db *gorm.DB, userID, courseID uint, lastAccess *time.Time) models.Enrollment {
	t.Helper()

	enrollment := models.Enrollment{UserID: userID, CourseID: courseID, LastAccessedAt: lastAccess}
	if err := db.Create(&enrollment).Error; err != nil {
		t.Fatalf("enroll user %d: %v", userID, err)
	}
	return enrollment
}

// Token signs an access token for user with the test configuration.
func Token(t testing.TB, cfg *config.Config, user models.User) string {
	t.Helper()

	token, err := utils.GenerateJWTToken(user.ID, user.Role, cfg)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
