package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Release condition target types
const (
	TargetChapter    = "CHAPTER"
	TargetLesson     = "LESSON"
	TargetQuiz       = "QUIZ"
	TargetAssignment = "ASSIGNMENT"
)

// ReleaseCondition gates access to a course entity. The target is a
// (TargetType, TargetID) pair; see services.ReleaseTarget for the typed view.
type ReleaseCondition struct {
	gorm.Model
	CourseID   uint           `gorm:"index;not null" json:"course_id"`
	TargetType string         `gorm:"not null" json:"target_type"`
	TargetID   uint           `gorm:"not null" json:"target_id"`
	RuleType   string         `gorm:"not null" json:"rule_type"` // e.g. AFTER_DATE, COMPLETED_CHAPTER, MIN_SCORE
	RuleConfig datatypes.JSON `json:"rule_config"`
}

type Announcement struct {
	gorm.Model
	CourseID    uint       `gorm:"index;not null" json:"course_id"`
	AuthorID    uint       `gorm:"not null" json:"author_id"`
	Title       string     `gorm:"not null" json:"title"`
	Body        string     `json:"body"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at"`
}
