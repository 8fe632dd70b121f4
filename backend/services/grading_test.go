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
	"gorm.io/gorm"
)

type gradingFixture struct {
	grading *Grading
	owner   models.User
	student models.User
	course  models.Course
	due     time.Time
}

func newGradingFixture(t *testing.T) (*gorm.DB, gradingFixture) {
	t.Helper()

	db := testutil.DB(t)
	f := gradingFixture{
		grading: NewGrading(db, utils.NopLogger()),
		owner:   testutil.SeedUser(t, db, "prof", models.RoleInstructor),
		student: testutil.SeedUser(t, db, "alice", models.RoleStudent),
		due:     testutil.Date(2024, time.April, 10),
	}
	f.course = testutil.SeedCourse(t, db, f.owner.ID, "Mechanics", "mechanics")
	testutil.Enroll(t, db, f.student.ID, f.course.ID, nil)
	return db, f
}

func (f gradingFixture) at(ts time.Time) {
	f.grading.Now = func() time.Time { return ts }
}

func (f gradingFixture) assignment(t *testing.T, in AssignmentInput) *models.Assignment {
	t.Helper()
	if in.Title == "" {
		in.Title = "Homework"
	}
	if in.Points == 0 {
		in.Points = 100
	}
	in.IsPublished = true
	a, err := f.grading.CreateAssignment(context.Background(), &f.owner, f.course.ID, in)
	require.NoError(t, err)
	return a
}

func floatPtr(v float64) *float64 { return &v }

func TestDaysLate(t *testing.T) {
	due := testutil.Date(2024, time.April, 10)

	assert.Equal(t, 0, DaysLate(due, due))
	assert.Equal(t, 0, DaysLate(due, due.Add(-time.Hour)))
	assert.Equal(t, 1, DaysLate(due, due.Add(time.Minute)))
	assert.Equal(t, 1, DaysLate(due, due.Add(24*time.Hour)))
	assert.Equal(t, 2, DaysLate(due, due.Add(25*time.Hour)))
}

func TestApplyLatePenalty(t *testing.T) {
	penalized := &models.Assignment{LatePolicy: models.LatePolicyPenalty, LatePenalty: 10}

	p, final := ApplyLatePenalty(penalized, &models.Submission{IsLate: true, DaysLate: 2}, 80)
	assert.Equal(t, 20.0, p)
	assert.Equal(t, 64.0, final)

	p, final = ApplyLatePenalty(penalized, &models.Submission{IsLate: true, DaysLate: 15}, 80)
	assert.Equal(t, 100.0, p)
	assert.Equal(t, 0.0, final)

	p, final = ApplyLatePenalty(penalized, &models.Submission{}, 77.777)
	assert.Zero(t, p)
	assert.Equal(t, 77.78, final)

	allow := &models.Assignment{LatePolicy: models.LatePolicyAllow, LatePenalty: 10}
	p, final = ApplyLatePenalty(allow, &models.Submission{IsLate: true, DaysLate: 3}, 50)
	assert.Zero(t, p)
	assert.Equal(t, 50.0, final)
}

func TestCreateAssignmentValidation(t *testing.T) {
	db, f := newGradingFixture(t)
	ctx := context.Background()

	other := testutil.SeedCourse(t, db, f.owner.ID, "Other", "other")
	foreign := models.Rubric{CourseID: other.ID, Title: "Foreign"}
	require.NoError(t, db.Create(&foreign).Error)

	_, err := f.grading.CreateAssignment(ctx, &f.owner, f.course.ID, AssignmentInput{Title: "HW", Points: 10, RubricID: &foreign.ID})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "rubric_id", verr.Fields[0].Field)

	_, err = f.grading.CreateAssignment(ctx, &f.owner, f.course.ID, AssignmentInput{Title: "HW", Points: 0})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "points", verr.Fields[0].Field)

	_, err = f.grading.CreateAssignment(ctx, &f.student, f.course.ID, AssignmentInput{Title: "HW", Points: 10})
	assert.ErrorIs(t, err, ErrForbidden)

	a, err := f.grading.CreateAssignment(ctx, &f.owner, f.course.ID, AssignmentInput{Title: "HW", Points: 10})
	require.NoError(t, err)
	assert.Equal(t, models.LatePolicyAllow, a.LatePolicy)
}

func TestSubmitRules(t *testing.T) {
	_, f := newGradingFixture(t)
	ctx := context.Background()

	opens := f.due.AddDate(0, 0, -7)
	closes := f.due.AddDate(0, 0, 3)
	a := f.assignment(t, AssignmentInput{
		DueDate:        &f.due,
		MaxSubmissions: 2,
		AllowLate:      true,
		LatePolicy:     models.LatePolicyPenalty,
		LatePenalty:    10,
		AvailableFrom:  &opens,
		AvailableUntil: &closes,
	})

	f.at(opens.Add(-time.Hour))
	_, err := f.grading.Submit(ctx, &f.student, a.ID, SubmissionInput{Content: "early"})
	assert.ErrorIs(t, err, ErrRejected)

	f.at(f.due.Add(-time.Hour))
	first, err := f.grading.Submit(ctx, &f.student, a.ID, SubmissionInput{Content: "v1"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Attempt)
	assert.False(t, first.IsLate)

	f.at(f.due.Add(30 * time.Hour))
	second, err := f.grading.Submit(ctx, &f.student, a.ID, SubmissionInput{Content: "v2"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Attempt)
	assert.True(t, second.IsLate)
	assert.Equal(t, 2, second.DaysLate)

	_, err = f.grading.Submit(ctx, &f.student, a.ID, SubmissionInput{Content: "v3"})
	assert.ErrorIs(t, err, ErrRejected)
}

func TestSubmitLateDenied(t *testing.T) {
	_, f := newGradingFixture(t)
	ctx := context.Background()

	deny := f.assignment(t, AssignmentInput{DueDate: &f.due, AllowLate: true, LatePolicy: models.LatePolicyDeny})
	noLate := f.assignment(t, AssignmentInput{DueDate: &f.due, AllowLate: false, LatePolicy: models.LatePolicyPenalty})
	f.at(f.due.Add(time.Minute))

	for _, a := range []*models.Assignment{deny, noLate} {
		_, err := f.grading.Submit(ctx, &f.student, a.ID, SubmissionInput{Content: "late"})
		assert.ErrorIs(t, err, ErrRejected)
	}
}

func TestSubmitRequiresEnrollmentAndContent(t *testing.T) {
	db, f := newGradingFixture(t)
	ctx := context.Background()
	a := f.assignment(t, AssignmentInput{})
	f.at(f.due)

	outsider := testutil.SeedUser(t, db, "bob", models.RoleStudent)
	_, err := f.grading.Submit(ctx, &outsider, a.ID, SubmissionInput{Content: "hi"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.grading.Submit(ctx, &f.student, a.ID, SubmissionInput{})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.grading.Submit(ctx, &f.student, 999, SubmissionInput{Content: "hi"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGradeAppliesPenalty(t *testing.T) {
	_, f := newGradingFixture(t)
	ctx := context.Background()
	a := f.assignment(t, AssignmentInput{DueDate: &f.due, AllowLate: true, LatePolicy: models.LatePolicyPenalty, LatePenalty: 15})

	f.at(f.due.Add(36 * time.Hour))
	sub, err := f.grading.Submit(ctx, &f.student, a.ID, SubmissionInput{Content: "late work"})
	require.NoError(t, err)

	_, err = f.grading.Grade(ctx, &f.owner, sub.ID, GradeInput{Score: floatPtr(120)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "score", verr.Fields[0].Field)

	_, err = f.grading.Grade(ctx, &f.student, sub.ID, GradeInput{Score: floatPtr(50)})
	assert.ErrorIs(t, err, ErrForbidden)

	graded, err := f.grading.Grade(ctx, &f.owner, sub.ID, GradeInput{Score: floatPtr(90), Feedback: "good"})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionGraded, graded.Status)
	assert.Equal(t, 30.0, graded.PenaltyPercent)
	require.NotNil(t, graded.FinalScore)
	assert.Equal(t, 63.0, *graded.FinalScore)
	assert.Equal(t, 90.0, *graded.RawScore)
	assert.Equal(t, f.owner.ID, *graded.GraderID)

	zero, err := f.grading.Grade(ctx, &f.owner, sub.ID, GradeInput{Score: floatPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, *zero.FinalScore)
}
