package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Question types
const (
	QuestionMultipleChoice = "MULTIPLE_CHOICE"
	QuestionTrueFalse      = "TRUE_FALSE"
	QuestionMatching       = "MATCHING"
	QuestionOrdering       = "ORDERING"
	QuestionEssay          = "ESSAY"
	QuestionFillInBlank    = "FILL_IN_BLANK"
	QuestionMultiSelect    = "MULTI_SELECT"
)

// Late policies shared by quizzes and assignments
const (
	LatePolicyAllow   = "ALLOW"
	LatePolicyDeny    = "DENY"
	LatePolicyPenalty = "PENALTY"
)

type Quiz struct {
	gorm.Model
	ChapterID          uint       `gorm:"uniqueIndex;not null" json:"chapter_id"`
	Title              string     `gorm:"not null" json:"title"`
	Description        string     `json:"description"`
	TimeLimitMinutes   int        `json:"time_limit_minutes"` // 0 = unlimited
	MaxAttempts        int        `json:"max_attempts"`       // 0 = unlimited
	PassingScore       float64    `json:"passing_score"`
	ShuffleQuestions   bool       `json:"shuffle_questions"`
	ShuffleAnswers     bool       `json:"shuffle_answers"`
	ShowResults        bool       `json:"show_results"`
	LatePolicy         string     `json:"late_policy"`
	LatePenalty        float64    `json:"late_penalty"`
	RequiresProctoring bool       `json:"requires_proctoring"`
	LockdownBrowser    bool       `json:"lockdown_browser"`
	IsPublished        bool       `json:"is_published"`
	AvailableFrom      *time.Time `json:"available_from"`
	AvailableUntil     *time.Time `json:"available_until"`

	Questions []Question `json:"questions,omitempty"`
}

// Question is polymorphic by Type; each type only fills the answer
// fields it needs and leaves the rest empty.
type Question struct {
	gorm.Model
	QuizID         uint           `gorm:"index;not null" json:"quiz_id"`
	Type           string         `gorm:"not null" json:"type"`
	Text           string         `gorm:"not null" json:"text"`
	Position       int            `json:"position"`
	Points         float64        `json:"points"`
	Explanation    string         `json:"explanation"`
	Options        datatypes.JSON `json:"options"`
	CorrectAnswer  datatypes.JSON `json:"correct_answer"`
	CorrectAnswers datatypes.JSON `json:"correct_answers"`
	MatchingPairs  datatypes.JSON `json:"matching_pairs"`
	OrderingItems  datatypes.JSON `json:"ordering_items"`
	Blanks         datatypes.JSON `json:"blanks"`
}

var QuestionTypes = []string{
	QuestionMultipleChoice,
	QuestionTrueFalse,
	QuestionMatching,
	QuestionOrdering,
	QuestionEssay,
	QuestionFillInBlank,
	QuestionMultiSelect,
}
