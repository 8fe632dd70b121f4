package services

import (
	"context"
	"math"
	"strings"
	"time"

	"lms/backend/models"
	"lms/backend/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// AssignmentInput is the payload for creating an assignment.
type AssignmentInput struct {
	ChapterID      *uint      `json:"chapter_id"`
	Title          string     `json:"title" validate:"notblank,max=200"`
	Description    string     `json:"description"`
	Instructions   string     `json:"instructions"`
	DueDate        *time.Time `json:"due_date"`
	Points         float64    `json:"points" validate:"gt=0"`
	MaxSubmissions int        `json:"max_submissions" validate:"min=0"`
	AllowLate      bool       `json:"allow_late"`
	LatePolicy     string     `json:"late_policy" validate:"omitempty,oneof=ALLOW DENY PENALTY"`
	LatePenalty    float64    `json:"late_penalty" validate:"min=0,max=100"`
	RubricID       *uint      `json:"rubric_id"`
	AvailableFrom  *time.Time `json:"available_from"`
	AvailableUntil *time.Time `json:"available_until"`
	IsGroup        bool       `json:"is_group"`
	IsPublished    bool       `json:"is_published"`
}

type SubmissionInput struct {
	Content       string `json:"content" validate:"required_without=AttachmentURL"`
	AttachmentURL string `json:"attachment_url" validate:"omitempty,url"`
}

type GradeInput struct {
	Score    *float64 `json:"score" validate:"required,min=0"`
	Feedback string   `json:"feedback" validate:"max=5000"`
}

// Grading owns the assignment submission workflow.
type Grading struct {
	DB  *gorm.DB
	Log *utils.Logger
	Now func() time.Time
}

func NewGrading(db *gorm.DB, log *utils.Logger) *Grading {
	return &Grading{DB: db, Log: log, Now: time.Now}
}

func (g *Grading) CreateAssignment(ctx context.Context, actor *models.User, courseID uint, in AssignmentInput) (*models.Assignment, error) {
	db := g.DB.WithContext(ctx)

	course, err := findCourse(db, courseID)
	if err != nil {
		return nil, err
	}
	if !actor.Manages(course) {
		return nil, ErrForbidden
	}

	in.Title = strings.TrimSpace(in.Title)
	if err := validate(in); err != nil {
		return nil, err
	}
	if in.AvailableFrom != nil && in.AvailableUntil != nil && in.AvailableUntil.Before(*in.AvailableFrom) {
		return nil, newValidationError("available_until", "available_until must not be before available_from")
	}
	if in.ChapterID != nil {
		if err := belongsToCourse(db, &models.Chapter{}, *in.ChapterID, courseID); err != nil {
			return nil, newValidationError("chapter_id", "chapter does not belong to this course")
		}
	}
	if in.RubricID != nil {
		if err := belongsToCourse(db, &models.Rubric{}, *in.RubricID, courseID); err != nil {
			return nil, newValidationError("rubric_id", "rubric does not belong to this course")
		}
	}

	policy := in.LatePolicy
	if policy == "" {
		policy = models.LatePolicyAllow
	}
	assignment := &models.Assignment{
		CourseID:       courseID,
		ChapterID:      in.ChapterID,
		Title:          in.Title,
		Description:    in.Description,
		Instructions:   in.Instructions,
		DueDate:        in.DueDate,
		Points:         in.Points,
		MaxSubmissions: in.MaxSubmissions,
		AllowLate:      in.AllowLate,
		LatePolicy:     policy,
		LatePenalty:    in.LatePenalty,
		RubricID:       in.RubricID,
		AvailableFrom:  in.AvailableFrom,
		AvailableUntil: in.AvailableUntil,
		IsGroup:        in.IsGroup,
		IsPublished:    in.IsPublished,
	}
	if err := db.Create(assignment).Error; err != nil {
		return nil, errors.Wrap(err, "create assignment")
	}
	return assignment, nil
}

// Submit records a new attempt of student on an assignment. Rules are checked in order:
// availability start, attempt limit, late policy, availability end.
func (g *Grading) Submit(ctx context.Context, student *models.User, assignmentID uint, in SubmissionInput) (*models.Submission, error) {
	db := g.DB.WithContext(ctx)

	var assignment models.Assignment
	if err := db.First(&assignment, assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "assignment %d", assignmentID)
		}
		return nil, errors.Wrap(err, "load assignment")
	}
	if !assignment.IsPublished {
		return nil, errors.Wrapf(ErrNotFound, "assignment %d", assignmentID)
	}

	var enrolled int64
	if err := db.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", student.ID, assignment.CourseID).
		Count(&enrolled).Error; err != nil {
		return nil, errors.Wrap(err, "check enrollment")
	}
	if enrolled == 0 {
		return nil, ErrForbidden
	}

	if err := validate(in); err != nil {
		return nil, err
	}

	now := g.Now()
	if assignment.AvailableFrom != nil && now.Before(*assignment.AvailableFrom) {
		return nil, rejected("assignment is not available yet")
	}

	var previous int64
	if err := db.Model(&models.Submission{}).
		Where("assignment_id = ? AND student_id = ?", assignment.ID, student.ID).
		Count(&previous).Error; err != nil {
		return nil, errors.Wrap(err, "count submissions")
	}
	if assignment.MaxSubmissions > 0 && int(previous) >= assignment.MaxSubmissions {
		return nil, rejected("submission limit of %d reached", assignment.MaxSubmissions)
	}

	late := assignment.DueDate != nil && now.After(*assignment.DueDate)
	if late && (assignment.LatePolicy == models.LatePolicyDeny || !assignment.AllowLate) {
		return nil, rejected("late submissions are not accepted")
	}
	if assignment.AvailableUntil != nil && now.After(*assignment.AvailableUntil) {
		return nil, rejected("assignment is closed")
	}

	submission := &models.Submission{
		AssignmentID:  assignment.ID,
		StudentID:     student.ID,
		Attempt:       int(previous) + 1,
		Content:       in.Content,
		AttachmentURL: in.AttachmentURL,
		SubmittedAt:   now,
		IsLate:        late,
		Status:        models.SubmissionSubmitted,
	}
	if late {
		submission.DaysLate = DaysLate(*assignment.DueDate, now)
	}
	if err := db.Create(submission).Error; err != nil {
		return nil, errors.Wrap(err, "create submission")
	}
	return submission, nil
}

// Grade scores a submission and applies the assignment's late penalty.
func (g *Grading) Grade(ctx context.Context, grader *models.User, submissionID uint, in GradeInput) (*models.Submission, error) {
	db := g.DB.WithContext(ctx)

	var submission models.Submission
	if err := db.First(&submission, submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "submission %d", submissionID)
		}
		return nil, errors.Wrap(err, "load submission")
	}
	var assignment models.Assignment
	if err := db.First(&assignment, submission.AssignmentID).Error; err != nil {
		return nil, errors.Wrap(err, "load assignment")
	}
	course, err := findCourse(db, assignment.CourseID)
	if err != nil {
		return nil, err
	}
	if !grader.Manages(course) {
		return nil, ErrForbidden
	}

	if err := validate(in); err != nil {
		return nil, err
	}
	score := *in.Score
	if score > assignment.Points {
		return nil, newValidationError("score", "score must not exceed the assignment points")
	}

	penalty, final := ApplyLatePenalty(&assignment, &submission, score)
	now := g.Now()
	submission.RawScore = &score
	submission.PenaltyPercent = penalty
	submission.FinalScore = &final
	submission.Feedback = in.Feedback
	submission.GraderID = &grader.ID
	submission.GradedAt = &now
	submission.Status = models.SubmissionGraded

	if err := db.Save(&submission).Error; err != nil {
		return nil, errors.Wrap(err, "save grade")
	}
	return &submission, nil
}

// DaysLate counts started days between due and submitted.
func DaysLate(due, submitted time.Time) int {
	if !submitted.After(due) {
		return 0
	}
	return int(math.Ceil(submitted.Sub(due).Hours() / 24))
}

// ApplyLatePenalty returns the penalty percent and the final score for a raw score.
// Only the PENALTY policy reduces the score: latePenalty percent per day, capped at 100.
func ApplyLatePenalty(a *models.Assignment, s *models.Submission, score float64) (penalty, final float64) {
	if s.IsLate && a.LatePolicy == models.LatePolicyPenalty {
		penalty = math.Min(100, a.LatePenalty*float64(s.DaysLate))
	}
	return penalty, round2(score * (1 - penalty/100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func findCourse(db *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	if err := db.First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "course %d", id)
		}
		return nil, errors.Wrap(err, "load course")
	}
	return &course, nil
}

// belongsToCourse fails unless the row of model with id has the given course_id.
func belongsToCourse(db *gorm.DB, model interface{}, id, courseID uint) error {
	var n int64
	if err := db.Model(model).Where("id = ? AND course_id = ?", id, courseID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
