package models

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment ties a student to a course and tracks their progress through it.
type Enrollment struct {
	gorm.Model
	UserID           uint       `gorm:"uniqueIndex:idx_enrollment_user_course;not null" json:"user_id"`
	CourseID         uint       `gorm:"uniqueIndex:idx_enrollment_user_course;not null" json:"course_id"`
	LessonsCompleted int        `json:"lessons_completed"`
	CompletionRate   float64    `json:"completion_rate"`
	LastAccessedAt   *time.Time `json:"last_accessed_at"`
}

// LessonCompletion records that a student finished a lesson.
type LessonCompletion struct {
	gorm.Model
	UserID   uint `gorm:"uniqueIndex:idx_completion_user_lesson;not null"`
	LessonID uint `gorm:"uniqueIndex:idx_completion_user_lesson;not null"`
	CourseID uint `gorm:"index;not null"`
}
