package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Lesson content types
const (
	ContentVideo      = "VIDEO"
	ContentAttachment = "ATTACHMENT"
	ContentText       = "TEXT"
	ContentScene      = "SCENE"
)

type Course struct {
	gorm.Model
	Title        string `gorm:"not null" json:"title"`
	Slug         string `gorm:"uniqueIndex;not null" json:"slug"`
	ShortDesc    string `json:"short_desc"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	Category     string `gorm:"index" json:"category"`
	Difficulty   string `json:"difficulty"` // beginner, intermediate, advanced
	InstructorID uint   `gorm:"index;not null" json:"instructor_id"`
	IsPublished  bool   `json:"is_published"`

	Chapters          []Chapter          `json:"chapters,omitempty"`
	Rubrics           []Rubric           `json:"rubrics,omitempty"`
	ReleaseConditions []ReleaseCondition `json:"release_conditions,omitempty"`
	Announcements     []Announcement     `json:"announcements,omitempty"`
	Assignments       []Assignment       `json:"assignments,omitempty"`
}

type Chapter struct {
	gorm.Model
	CourseID       uint       `gorm:"index;not null" json:"course_id"`
	Title          string     `gorm:"not null" json:"title"`
	Description    string     `json:"description"`
	Position       int        `json:"position"`
	IsPublished    bool       `json:"is_published"`
	AvailableFrom  *time.Time `json:"available_from"`
	AvailableUntil *time.Time `json:"available_until"`

	Lessons     []Lesson     `json:"lessons,omitempty"`
	Quiz        *Quiz        `json:"quiz,omitempty"`
	Assignments []Assignment `json:"assignments,omitempty"`
}

type Lesson struct {
	gorm.Model
	ChapterID      uint           `gorm:"index;not null" json:"chapter_id"`
	Title          string         `gorm:"not null" json:"title"`
	Position       int            `json:"position"`
	ContentType    string         `json:"content_type"`
	VideoURL       string         `json:"video_url"`
	AttachmentURL  string         `json:"attachment_url"`
	TextContent    string         `json:"text_content"`
	SceneConfig    datatypes.JSON `json:"scene_config"`
	AvailableFrom  *time.Time     `json:"available_from"`
	AvailableUntil *time.Time     `json:"available_until"`
}
