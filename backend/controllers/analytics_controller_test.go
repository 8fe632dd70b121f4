package controllers_test

import (
	"fmt"
	"testing"
	"time"

	"lms/backend/models"
	"lms/backend/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtRiskStudents(t *testing.T) {
	a := newTestApp(t)
	owner := testutil.SeedUser(t, a.db, "prof", models.RoleInstructor)
	course := testutil.SeedCourse(t, a.db, owner.ID, "Statics", "statics")
	active := testutil.SeedUser(t, a.db, "active", models.RoleStudent)
	idle := testutil.SeedUser(t, a.db, "idle", models.RoleStudent)

	asOf := testutil.Date(2024, time.March, 1)
	recent := asOf
	stale := asOf.AddDate(0, 0, -20)
	testutil.Enroll(t, a.db, active.ID, course.ID, &recent)
	testutil.Enroll(t, a.db, idle.ID, course.ID, &stale)

	path := fmt.Sprintf("/api/courses/%d/analytics/at-risk?as_of=2024-03-01", course.ID)

	status, _ := a.call(t, "GET", path, testutil.Token(t, a.cfg, active), nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = a.call(t, "GET", fmt.Sprintf("/api/courses/%d/analytics/at-risk?as_of=yesterday", course.ID), testutil.Token(t, a.cfg, owner), nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = a.call(t, "GET", "/api/courses/777/analytics/at-risk", testutil.Token(t, a.cfg, owner), nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body := a.call(t, "GET", path, testutil.Token(t, a.cfg, owner), nil)
	require.Equal(t, fiber.StatusOK, status, body)
	report := data(t, body)
	students := report["students"].([]interface{})
	require.Len(t, students, 2)

	// no assignments yet: inactivity alone drives the score
	first := students[0].(map[string]interface{})
	assert.Equal(t, "idle", first["username"])
	assert.EqualValues(t, 20, first["score"])
	assert.Equal(t, models.RiskLow, first["level"])
	second := students[1].(map[string]interface{})
	assert.EqualValues(t, 0, second["score"])

	summary := report["summary"].(map[string]interface{})
	assert.EqualValues(t, 2, summary[models.RiskLow])
}

func TestCourseAndPlatformAnalytics(t *testing.T) {
	a := newTestApp(t)
	owner := testutil.SeedUser(t, a.db, "prof", models.RoleInstructor)
	admin := testutil.SeedUser(t, a.db, "root", models.RoleAdmin)
	student := testutil.SeedUser(t, a.db, "student", models.RoleStudent)
	course := testutil.SeedCourse(t, a.db, owner.ID, "Statics", "statics")
	chapter := testutil.SeedChapter(t, a.db, course.ID, "Forces", 1)
	lesson := models.Lesson{ChapterID: chapter.ID, Title: "One", Position: 1, ContentType: models.ContentText}
	require.NoError(t, a.db.Create(&lesson).Error)
	enrollment := testutil.Enroll(t, a.db, student.ID, course.ID, nil)
	require.NoError(t, a.db.Model(&enrollment).Update("completion_rate", 100).Error)
	require.NoError(t, a.db.Create(&models.LessonCompletion{UserID: student.ID, LessonID: lesson.ID, CourseID: course.ID}).Error)

	status, body := a.call(t, "GET", fmt.Sprintf("/api/courses/%d/analytics", course.ID), testutil.Token(t, a.cfg, owner), nil)
	require.Equal(t, fiber.StatusOK, status, body)
	d := data(t, body)
	stats := d["stats"].(map[string]interface{})
	assert.EqualValues(t, 1, stats["total_enrollments"])
	assert.EqualValues(t, 1, stats["completed"])
	assert.EqualValues(t, 100, stats["avg_completion_rate"])
	lessonStats := d["lesson_stats"].([]interface{})
	require.Len(t, lessonStats, 1)
	assert.EqualValues(t, 1, lessonStats[0].(map[string]interface{})["completed"])
	assert.Len(t, d["enrollments"].([]interface{}), 1)

	status, _ = a.call(t, "GET", "/api/admin/analytics", testutil.Token(t, a.cfg, owner), nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = a.call(t, "GET", "/api/admin/analytics", testutil.Token(t, a.cfg, admin), nil)
	require.Equal(t, fiber.StatusOK, status, body)
	metrics := data(t, body)["metrics"].(map[string]interface{})
	assert.EqualValues(t, 3, metrics["total_users"])
	assert.EqualValues(t, 1, metrics["published_courses"])
}
