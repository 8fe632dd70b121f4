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

func TestAssignmentWorkflow(t *testing.T) {
	a := newTestApp(t)
	owner := testutil.SeedUser(t, a.db, "prof", models.RoleInstructor)
	student := testutil.SeedUser(t, a.db, "student", models.RoleStudent)
	outsider := testutil.SeedUser(t, a.db, "outsider", models.RoleStudent)
	course := testutil.SeedCourse(t, a.db, owner.ID, "Statics", "statics")
	testutil.Enroll(t, a.db, student.ID, course.ID, nil)

	ownerToken := testutil.Token(t, a.cfg, owner)
	studentToken := testutil.Token(t, a.cfg, student)

	// due 36 hours ago: two started days late
	due := time.Now().Add(-36 * time.Hour).UTC()
	assignment := map[string]interface{}{
		"title":        "Truss analysis",
		"points":       100,
		"due_date":     due.Format(time.RFC3339),
		"allow_late":   true,
		"late_policy":  models.LatePolicyPenalty,
		"late_penalty": 10,
		"is_published": true,
	}

	create := fmt.Sprintf("/api/courses/%d/assignments", course.ID)
	status, _ := a.call(t, "POST", create, studentToken, assignment)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := a.call(t, "POST", create, ownerToken, map[string]interface{}{"title": "No points"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, fieldNames(t, body), "points")

	status, body = a.call(t, "POST", create, ownerToken, assignment)
	require.Equal(t, fiber.StatusCreated, status, body)
	assignmentID := uint(data(t, body)["ID"].(float64))

	submit := fmt.Sprintf("/api/assignments/%d/submissions", assignmentID)
	status, _ = a.call(t, "POST", submit, testutil.Token(t, a.cfg, outsider), map[string]string{"content": "answer"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = a.call(t, "POST", submit, studentToken, map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, fieldNames(t, body), "content")

	status, body = a.call(t, "POST", submit, studentToken, map[string]string{"content": "F = 12 kN"})
	require.Equal(t, fiber.StatusCreated, status, body)
	submission := data(t, body)
	assert.Equal(t, true, submission["is_late"])
	assert.EqualValues(t, 2, submission["days_late"])
	assert.EqualValues(t, 1, submission["attempt"])
	submissionID := uint(submission["ID"].(float64))

	grade := fmt.Sprintf("/api/submissions/%d/grade", submissionID)
	status, _ = a.call(t, "POST", grade, studentToken, map[string]interface{}{"score": 50})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = a.call(t, "POST", grade, ownerToken, map[string]interface{}{"score": 150})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, fieldNames(t, body), "score")

	status, body = a.call(t, "POST", grade, ownerToken, map[string]interface{}{"score": 50, "feedback": "Check units"})
	require.Equal(t, fiber.StatusOK, status, body)
	graded := data(t, body)
	assert.Equal(t, models.SubmissionGraded, graded["status"])
	assert.EqualValues(t, 20, graded["penalty_percent"])
	assert.EqualValues(t, 40, graded["final_score"])

	status, _ = a.call(t, "POST", "/api/submissions/999/grade", ownerToken, map[string]interface{}{"score": 1})
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestSubmitRejectedWhenClosed(t *testing.T) {
	a := newTestApp(t)
	owner := testutil.SeedUser(t, a.db, "prof", models.RoleInstructor)
	student := testutil.SeedUser(t, a.db, "student", models.RoleStudent)
	course := testutil.SeedCourse(t, a.db, owner.ID, "Statics", "statics")
	testutil.Enroll(t, a.db, student.ID, course.ID, nil)

	due := time.Now().Add(-time.Hour)
	assignment := models.Assignment{
		CourseID:    course.ID,
		Title:       "Quiz prep",
		Points:      10,
		DueDate:     &due,
		LatePolicy:  models.LatePolicyDeny,
		AllowLate:   true,
		IsPublished: true,
	}
	require.NoError(t, a.db.Create(&assignment).Error)

	status, body := a.call(t, "POST", fmt.Sprintf("/api/assignments/%d/submissions", assignment.ID),
		testutil.Token(t, a.cfg, student), map[string]string{"content": "late"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "late submissions are not accepted", body["message"])
}
