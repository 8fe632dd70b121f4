package services

import (
	"strings"

	"lms/backend/models"
)

// ReleaseTarget is the typed view of a release condition's (TargetType, TargetID) pair.
// Only ChapterTarget participates in clone remapping.
type ReleaseTarget interface {
	// Remap returns the target as seen from a cloned course.
	Remap(chapters map[uint]uint) ReleaseTarget
	Pair() (targetType string, targetID uint)
}

type ChapterTarget struct {
	ChapterID uint
}

func (t ChapterTarget) Remap(chapters map[uint]uint) ReleaseTarget {
	if id, ok := chapters[t.ChapterID]; ok {
		return ChapterTarget{ChapterID: id}
	}
	return t
}

func (t ChapterTarget) Pair() (string, uint) {
	return models.TargetChapter, t.ChapterID
}

// OtherTarget points at an entity the clone does not remap; its ID is carried over as is.
type OtherTarget struct {
	Type string
	ID   uint
}

func (t OtherTarget) Remap(map[uint]uint) ReleaseTarget {
	return t
}

func (t OtherTarget) Pair() (string, uint) {
	return t.Type, t.ID
}

// TargetOf decodes the stored pair of rc. The chapter type is matched case-insensitively.
func TargetOf(rc *models.ReleaseCondition) ReleaseTarget {
	if strings.EqualFold(rc.TargetType, models.TargetChapter) {
		return ChapterTarget{ChapterID: rc.TargetID}
	}
	return OtherTarget{Type: rc.TargetType, ID: rc.TargetID}
}
