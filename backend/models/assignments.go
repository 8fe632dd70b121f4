package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission statuses
const (
	SubmissionSubmitted = "SUBMITTED"
	SubmissionGraded    = "GRADED"
)

type Assignment struct {
	gorm.Model
	CourseID       uint       `gorm:"index;not null" json:"course_id"`
	ChapterID      *uint      `gorm:"index" json:"chapter_id"`
	Title          string     `gorm:"not null" json:"title"`
	Description    string     `json:"description"`
	Instructions   string     `json:"instructions"`
	DueDate        *time.Time `json:"due_date"`
	Points         float64    `json:"points"`
	MaxSubmissions int        `json:"max_submissions"` // 0 = unlimited
	AllowLate      bool       `json:"allow_late"`
	LatePolicy     string     `json:"late_policy"`
	LatePenalty    float64    `json:"late_penalty"` // percent per day late
	RubricID       *uint      `gorm:"index" json:"rubric_id"`
	AvailableFrom  *time.Time `json:"available_from"`
	AvailableUntil *time.Time `json:"available_until"`
	IsGroup        bool       `json:"is_group"`
	IsPublished    bool       `json:"is_published"`
}

type Submission struct {
	gorm.Model
	AssignmentID   uint       `gorm:"index;not null" json:"assignment_id"`
	StudentID      uint       `gorm:"index;not null" json:"student_id"`
	Attempt        int        `json:"attempt"`
	Content        string     `json:"content"`
	AttachmentURL  string     `json:"attachment_url"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	IsLate         bool       `json:"is_late"`
	DaysLate       int        `json:"days_late"`
	Status         string     `gorm:"not null" json:"status"`
	RawScore       *float64   `json:"raw_score"`
	PenaltyPercent float64    `json:"penalty_percent"`
	FinalScore     *float64   `json:"final_score"`
	Feedback       string     `json:"feedback"`
	GraderID       *uint      `json:"grader_id"`
	GradedAt       *time.Time `json:"graded_at"`
}

type Rubric struct {
	gorm.Model
	CourseID    uint   `gorm:"index;not null" json:"course_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`

	Criteria []RubricCriterion `json:"criteria,omitempty"`
}

// RubricLevel is one scoring band of a criterion, stored inside RubricCriterion.Levels.
type RubricLevel struct {
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Points      float64 `json:"points"`
}

type RubricCriterion struct {
	gorm.Model
	RubricID    uint                             `gorm:"index;not null" json:"rubric_id"`
	Title       string                           `gorm:"not null" json:"title"`
	Description string                           `json:"description"`
	Position    int                              `json:"position"`
	Levels      datatypes.JSONSlice[RubricLevel] `json:"levels"`
}
