package models

// Risk levels
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// StudentRisk is one row of a course's at-risk report. It is computed, not stored.
type StudentRisk struct {
	UserID           uint    `json:"user_id"`
	Username         string  `json:"username"`
	Score            int     `json:"score"`
	Level            string  `json:"level"`
	MissingRatio     float64 `json:"missing_ratio"`
	GradeDeficit     float64 `json:"grade_deficit"`
	LateRatio        float64 `json:"late_ratio"`
	Inactivity       float64 `json:"inactivity"`
	DaysInactive     int     `json:"days_inactive"`
	PastDue          int     `json:"past_due"`
	Missing          int     `json:"missing"`
	GradedCount      int     `json:"graded_count"`
	SubmissionsCount int     `json:"submissions_count"`
}
