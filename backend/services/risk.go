package services

import (
	"context"
	"math"
	"sort"
	"time"

	"lms/backend/models"
	"lms/backend/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Weights of the at-risk score components.
const (
	weightMissing    = 0.35
	weightDeficit    = 0.30
	weightInactivity = 0.20
	weightLate       = 0.15

	inactivityCapDays = 14
	highRiskScore     = 60
	mediumRiskScore   = 30
)

// RiskAnalyzer scores enrolled students of a course by how likely they are to fall behind.
type RiskAnalyzer struct {
	DB  *gorm.DB
	Log *utils.Logger
}

func NewRiskAnalyzer(db *gorm.DB, log *utils.Logger) *RiskAnalyzer {
	return &RiskAnalyzer{DB: db, Log: log}
}

type enrollmentRow struct {
	UserID         uint
	Username       string
	LastAccessedAt *time.Time
	CreatedAt      time.Time
}

// AtRisk returns one row per enrolled student, highest score first, evaluated at asOf.
func (r *RiskAnalyzer) AtRisk(ctx context.Context, actor *models.User, courseID uint, asOf time.Time) ([]models.StudentRisk, error) {
	db := r.DB.WithContext(ctx)

	course, err := findCourse(db, courseID)
	if err != nil {
		return nil, err
	}
	if !actor.Manages(course) {
		return nil, ErrForbidden
	}

	var enrollments []enrollmentRow
	if err := db.Table("enrollments").
		Select("enrollments.user_id, users.username, enrollments.last_accessed_at, enrollments.created_at").
		Joins("JOIN users ON users.id = enrollments.user_id AND users.deleted_at IS NULL").
		Where("enrollments.course_id = ? AND enrollments.deleted_at IS NULL", courseID).
		Scan(&enrollments).Error; err != nil {
		return nil, errors.Wrap(err, "load enrollments")
	}

	var assignments []models.Assignment
	if err := db.Where("course_id = ? AND is_published = ?", courseID, true).Find(&assignments).Error; err != nil {
		return nil, errors.Wrap(err, "load assignments")
	}
	byID := make(map[uint]*models.Assignment, len(assignments))
	ids := make([]uint, 0, len(assignments))
	for i := range assignments {
		byID[assignments[i].ID] = &assignments[i]
		ids = append(ids, assignments[i].ID)
	}

	var submissions []models.Submission
	if len(ids) > 0 {
		if err := db.Where("assignment_id IN ?", ids).Find(&submissions).Error; err != nil {
			return nil, errors.Wrap(err, "load submissions")
		}
	}
	perStudent := make(map[uint][]models.Submission)
	for _, s := range submissions {
		perStudent[s.StudentID] = append(perStudent[s.StudentID], s)
	}

	report := make([]models.StudentRisk, 0, len(enrollments))
	for _, e := range enrollments {
		report = append(report, scoreStudent(e, assignments, byID, perStudent[e.UserID], asOf))
	}
	sort.Slice(report, func(i, j int) bool {
		if report[i].Score != report[j].Score {
			return report[i].Score > report[j].Score
		}
		return report[i].UserID < report[j].UserID
	})
	return report, nil
}

func scoreStudent(e enrollmentRow, assignments []models.Assignment, byID map[uint]*models.Assignment, subs []models.Submission, asOf time.Time) models.StudentRisk {
	row := models.StudentRisk{UserID: e.UserID, Username: e.Username, SubmissionsCount: len(subs)}

	submitted := make(map[uint]bool, len(subs))
	var late int
	var gradeSum float64
	for _, s := range subs {
		submitted[s.AssignmentID] = true
		if s.IsLate {
			late++
		}
		a := byID[s.AssignmentID]
		if s.Status == models.SubmissionGraded && s.FinalScore != nil && a != nil && a.Points > 0 {
			row.GradedCount++
			gradeSum += *s.FinalScore / a.Points
		}
	}

	for _, a := range assignments {
		if a.DueDate == nil || !a.DueDate.Before(asOf) {
			continue
		}
		row.PastDue++
		if !submitted[a.ID] {
			row.Missing++
		}
	}

	if row.PastDue > 0 {
		row.MissingRatio = float64(row.Missing) / float64(row.PastDue)
	}
	if row.GradedCount > 0 {
		row.GradeDeficit = clamp01(1 - gradeSum/float64(row.GradedCount))
	}
	if len(subs) > 0 {
		row.LateRatio = float64(late) / float64(len(subs))
	}

	lastSeen := e.CreatedAt
	if e.LastAccessedAt != nil {
		lastSeen = *e.LastAccessedAt
	}
	if asOf.After(lastSeen) {
		row.DaysInactive = int(asOf.Sub(lastSeen).Hours() / 24)
	}
	row.Inactivity = float64(min(row.DaysInactive, inactivityCapDays)) / inactivityCapDays

	raw := weightMissing*row.MissingRatio +
		weightDeficit*row.GradeDeficit +
		weightInactivity*row.Inactivity +
		weightLate*row.LateRatio
	row.Score = int(math.Round(100 * raw))
	row.Level = RiskLevel(row.Score)

	row.MissingRatio = round2(row.MissingRatio)
	row.GradeDeficit = round2(row.GradeDeficit)
	row.LateRatio = round2(row.LateRatio)
	row.Inactivity = round2(row.Inactivity)
	return row
}

func RiskLevel(score int) string {
	switch {
	case score >= highRiskScore:
		return models.RiskHigh
	case score >= mediumRiskScore:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
