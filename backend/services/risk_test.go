package services

import (
	"context"
	"testing"
	"time"

	"lms/backend/models"
	"lms/backend/testutil"
	"lms/backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskLevel(t *testing.T) {
	assert.Equal(t, models.RiskLow, RiskLevel(0))
	assert.Equal(t, models.RiskLow, RiskLevel(29))
	assert.Equal(t, models.RiskMedium, RiskLevel(30))
	assert.Equal(t, models.RiskMedium, RiskLevel(59))
	assert.Equal(t, models.RiskHigh, RiskLevel(60))
}

func TestAtRiskReport(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	asOf := testutil.Date(2024, time.June, 1)

	owner := testutil.SeedUser(t, db, "prof", models.RoleInstructor)
	course := testutil.SeedCourse(t, db, owner.ID, "Thermo", "thermo")

	diligent := testutil.SeedUser(t, db, "diligent", models.RoleStudent)
	absent := testutil.SeedUser(t, db, "absent", models.RoleStudent)
	fresh := testutil.SeedUser(t, db, "fresh", models.RoleStudent)

	yesterday := asOf.AddDate(0, 0, -1)
	longAgo := asOf.AddDate(0, 0, -30)
	testutil.Enroll(t, db, diligent.ID, course.ID, &yesterday)
	testutil.Enroll(t, db, absent.ID, course.ID, &longAgo)
	testutil.Enroll(t, db, fresh.ID, course.ID, &asOf)

	due1 := asOf.AddDate(0, 0, -10)
	due2 := asOf.AddDate(0, 0, -3)
	future := asOf.AddDate(0, 0, 5)
	hw1 := models.Assignment{CourseID: course.ID, Title: "HW1", Points: 10, DueDate: &due1, IsPublished: true}
	hw2 := models.Assignment{CourseID: course.ID, Title: "HW2", Points: 20, DueDate: &due2, IsPublished: true}
	hw3 := models.Assignment{CourseID: course.ID, Title: "HW3", Points: 10, DueDate: &future, IsPublished: true}
	draft := models.Assignment{CourseID: course.ID, Title: "Draft", Points: 10, DueDate: &due1}
	for _, a := range []*models.Assignment{&hw1, &hw2, &hw3, &draft} {
		require.NoError(t, db.Create(a).Error)
	}

	graded := func(a models.Assignment, student models.User, final float64, late bool) {
		s := models.Submission{
			AssignmentID: a.ID,
			StudentID:    student.ID,
			Attempt:      1,
			SubmittedAt:  asOf.AddDate(0, 0, -12),
			IsLate:       late,
			Status:       models.SubmissionGraded,
			FinalScore:   &final,
		}
		require.NoError(t, db.Create(&s).Error)
	}
	graded(hw1, diligent, 10, false)
	graded(hw2, diligent, 18, false)
	// absent: one late submission scored 7.5/10, hw2 missing
	graded(hw1, absent, 7.5, true)

	report, err := NewRiskAnalyzer(db, utils.NopLogger()).AtRisk(ctx, &owner, course.ID, asOf)
	require.NoError(t, err)
	require.Len(t, report, 3)

	top := report[0]
	assert.Equal(t, absent.ID, top.UserID)
	assert.Equal(t, "absent", top.Username)
	assert.Equal(t, 2, top.PastDue)
	assert.Equal(t, 1, top.Missing)
	assert.Equal(t, 0.5, top.MissingRatio)
	assert.Equal(t, 0.25, top.GradeDeficit)
	assert.Equal(t, 1.0, top.LateRatio)
	assert.Equal(t, 1.0, top.Inactivity)
	// 0.35*0.5 + 0.30*0.25 + 0.20*1 + 0.15*1 = 0.6
	assert.Equal(t, 60, top.Score)
	assert.Equal(t, models.RiskHigh, top.Level)

	// fresh never submitted: missing 2/2 and no other signal
	assert.Equal(t, fresh.ID, report[1].UserID)
	assert.Equal(t, 35, report[1].Score)
	assert.Equal(t, models.RiskMedium, report[1].Level)

	// diligent: deficit 1 - (1.0 + 0.9)/2 = 0.05, one day inactive
	low := report[2]
	assert.Equal(t, diligent.ID, low.UserID)
	assert.Equal(t, 0, low.Missing)
	assert.Equal(t, 1, low.DaysInactive)
	assert.Equal(t, 3, low.Score)
	assert.Equal(t, models.RiskLow, low.Level)
}

func TestAtRiskTiesAndAccess(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	asOf := testutil.Date(2024, time.June, 1)

	owner := testutil.SeedUser(t, db, "prof", models.RoleInstructor)
	course := testutil.SeedCourse(t, db, owner.ID, "Optics", "optics")
	a := testutil.SeedUser(t, db, "a", models.RoleStudent)
	b := testutil.SeedUser(t, db, "b", models.RoleStudent)
	testutil.Enroll(t, db, b.ID, course.ID, &asOf)
	testutil.Enroll(t, db, a.ID, course.ID, &asOf)

	analyzer := NewRiskAnalyzer(db, utils.NopLogger())
	report, err := analyzer.AtRisk(ctx, &owner, course.ID, asOf)
	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.Equal(t, a.ID, report[0].UserID)
	assert.Equal(t, b.ID, report[1].UserID)
	assert.Zero(t, report[0].Score)

	_, err = analyzer.AtRisk(ctx, &a, course.ID, asOf)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = analyzer.AtRisk(ctx, &owner, 404, asOf)
	assert.ErrorIs(t, err, ErrNotFound)
}
