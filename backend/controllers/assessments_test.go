package controllers_test

import (
	"fmt"
	"testing"

	"lms/backend/models"
	"lms/backend/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuizLifecycle(t *testing.T) {
	a := newTestApp(t)
	owner := testutil.SeedUser(t, a.db, "prof", models.RoleInstructor)
	student := testutil.SeedUser(t, a.db, "student", models.RoleStudent)
	course := testutil.SeedCourse(t, a.db, owner.ID, "Statics", "statics")
	chapter := testutil.SeedChapter(t, a.db, course.ID, "Forces", 1)
	ownerToken := testutil.Token(t, a.cfg, owner)
	studentToken := testutil.Token(t, a.cfg, student)

	path := fmt.Sprintf("/api/courses/%d/chapters/%d/quiz", course.ID, chapter.ID)

	status, body := a.call(t, "POST", path, ownerToken, map[string]interface{}{
		"title":     "Check",
		"questions": []map[string]interface{}{{"type": "MULTIPLE_CHOICE", "text": "Pick one", "points": 1}},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.ElementsMatch(t, []string{"questions[0].options", "questions[0].correct_answer"}, fieldNames(t, body))

	quiz := map[string]interface{}{
		"title":        "Check",
		"is_published": true,
		"questions": []map[string]interface{}{
			{"type": "TRUE_FALSE", "text": "Moments are vectors", "points": 1, "correct_answer": true, "explanation": "They have direction"},
			{"type": "ESSAY", "text": "Explain equilibrium", "points": 4},
		},
	}
	status, body = a.call(t, "POST", path, ownerToken, quiz)
	require.Equal(t, fiber.StatusCreated, status, body)
	created := data(t, body)
	assert.Equal(t, models.LatePolicyAllow, created["late_policy"])
	assert.Len(t, created["questions"], 2)

	status, _ = a.call(t, "POST", path, ownerToken, quiz)
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = a.call(t, "POST", path+"/questions", ownerToken, map[string]interface{}{
		"type": "ORDERING", "text": "Order the steps", "points": 2, "ordering_items": []string{"draw", "sum", "solve"},
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.EqualValues(t, 3, data(t, body)["position"])

	status, _ = a.call(t, "GET", path, studentToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	testutil.Enroll(t, a.db, student.ID, course.ID, nil)
	status, body = a.call(t, "GET", path, studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	questions := data(t, body)["questions"].([]interface{})
	require.Len(t, questions, 3)
	first := questions[0].(map[string]interface{})
	assert.Nil(t, first["correct_answer"])
	assert.Empty(t, first["explanation"])

	status, body = a.call(t, "GET", path, ownerToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	first = data(t, body)["questions"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, true, first["correct_answer"])
}

func TestRubricsAndReleaseConditions(t *testing.T) {
	a := newTestApp(t)
	owner := testutil.SeedUser(t, a.db, "prof", models.RoleInstructor)
	course := testutil.SeedCourse(t, a.db, owner.ID, "Statics", "statics")
	other := testutil.SeedCourse(t, a.db, owner.ID, "Dynamics", "dynamics")
	chapter := testutil.SeedChapter(t, a.db, course.ID, "Forces", 1)
	foreign := testutil.SeedChapter(t, a.db, other.ID, "Motion", 1)
	token := testutil.Token(t, a.cfg, owner)

	rubrics := fmt.Sprintf("/api/courses/%d/rubrics", course.ID)
	status, body := a.call(t, "POST", rubrics, token, map[string]interface{}{
		"title": "Report",
		"criteria": []map[string]interface{}{
			{"title": "Clarity", "levels": []map[string]interface{}{{"label": "Good", "points": 5}, {"label": "Poor", "points": 1}}},
			{"title": "Accuracy", "levels": []map[string]interface{}{{"label": "Exact", "points": 5}}},
		},
	})
	require.Equal(t, fiber.StatusCreated, status, body)

	status, body = a.call(t, "POST", rubrics, token, map[string]interface{}{
		"title":    "Empty levels",
		"criteria": []map[string]interface{}{{"title": "Clarity"}},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, fieldNames(t, body), "criteria[0].levels")

	status, body = a.call(t, "GET", rubrics, token, nil)
	require.Equal(t, fiber.StatusOK, status)
	list := body["data"].([]interface{})
	require.Len(t, list, 1)
	criteria := list[0].(map[string]interface{})["criteria"].([]interface{})
	require.Len(t, criteria, 2)
	assert.Equal(t, "Clarity", criteria[0].(map[string]interface{})["title"])

	conditions := fmt.Sprintf("/api/courses/%d/release-conditions", course.ID)
	status, body = a.call(t, "POST", conditions, token, map[string]interface{}{
		"target_type": "chapter",
		"target_id":   chapter.ID,
		"rule_type":   "AFTER_DATE",
		"rule_config": map[string]string{"date": "2025-01-01"},
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, models.TargetChapter, data(t, body)["target_type"])

	status, body = a.call(t, "POST", conditions, token, map[string]interface{}{
		"target_type": "CHAPTER",
		"target_id":   foreign.ID,
		"rule_type":   "AFTER_DATE",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, fieldNames(t, body), "target_id")
}

func TestAnnouncements(t *testing.T) {
	a := newTestApp(t)
	owner := testutil.SeedUser(t, a.db, "prof", models.RoleInstructor)
	student := testutil.SeedUser(t, a.db, "student", models.RoleStudent)
	course := testutil.SeedCourse(t, a.db, owner.ID, "Statics", "statics")
	path := fmt.Sprintf("/api/courses/%d/announcements", course.ID)
	ownerToken := testutil.Token(t, a.cfg, owner)

	status, _ := a.call(t, "POST", path, testutil.Token(t, a.cfg, student), map[string]interface{}{"title": "Hi"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := a.call(t, "POST", path, ownerToken, map[string]interface{}{"title": "Welcome", "body": "Read chapter 1", "is_published": true})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.NotNil(t, data(t, body)["published_at"])
	assert.EqualValues(t, owner.ID, data(t, body)["author_id"])

	status, _ = a.call(t, "POST", path, ownerToken, map[string]interface{}{"title": "Draft note"})
	require.Equal(t, fiber.StatusCreated, status)

	status, body = a.call(t, "GET", path, testutil.Token(t, a.cfg, student), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = a.call(t, "GET", path, ownerToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 2)
}

func TestUserOverview(t *testing.T) {
	a := newTestApp(t)
	owner := testutil.SeedUser(t, a.db, "prof", models.RoleInstructor)
	student := testutil.SeedUser(t, a.db, "student", models.RoleStudent)
	statics := testutil.SeedCourse(t, a.db, owner.ID, "Statics", "statics")
	dynamics := testutil.SeedCourse(t, a.db, owner.ID, "Dynamics", "dynamics")
	testutil.Enroll(t, a.db, student.ID, statics.ID, nil)

	status, body := a.call(t, "GET", "/api/user/overview", testutil.Token(t, a.cfg, student), nil)
	require.Equal(t, fiber.StatusOK, status, body)
	d := data(t, body)
	assert.Len(t, d["active_courses"], 1)
	assert.Empty(t, d["upcoming_assignments"])
	recs := d["recommendations"].([]interface{})
	require.Len(t, recs, 1)
	assert.EqualValues(t, dynamics.ID, recs[0].(map[string]interface{})["id"])
	assert.Equal(t, "Same category as your courses", recs[0].(map[string]interface{})["reason"])
}
