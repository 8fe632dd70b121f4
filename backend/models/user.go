package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"not null" json:"role"` // student, instructor, admin
	Group        string `json:"group"`
	University   string `json:"university"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanAuthor reports whether the user may create courses.
func (u *User) CanAuthor() bool {
	return u.Role == RoleInstructor || u.Role == RoleAdmin
}

// Manages reports whether the user owns the course or administers the platform.
func (u *User) Manages(course *Course) bool {
	return u.IsAdmin() || course.InstructorID == u.ID
}

type LoginHistory struct {
	gorm.Model
	UserID    uint      `gorm:"index"`
	LoginTime time.Time
}
