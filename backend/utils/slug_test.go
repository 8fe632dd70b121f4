package utils_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"lms/backend/models"
	"lms/backend/testutil"
	"lms/backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlug(t *testing.T) {
	cases := map[string]string{
		"Intro to Go":           "intro-to-go",
		"  Data -- Structures ": "data-structures",
		"C++ & Rust!":           "c-rust",
		"Курс 101":              "курс-101",
		"Économie Générale":     "economie-generale",
		"Мой курс":              "мой-курс",
		"---":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, utils.GenerateSlug(in), in)
	}

	long := utils.GenerateSlug(strings.Repeat("a", 300))
	assert.Len(t, long, 160)
}

func TestGenerateSlugTruncatesByRunes(t *testing.T) {
	slug := utils.GenerateSlug("a" + strings.Repeat("ж", 200))
	assert.True(t, utf8.ValidString(slug), slug)
	assert.Equal(t, 160, utf8.RuneCountInString(slug))

	// accented letters fold to ASCII before the length limit applies
	slug = utils.GenerateSlug("a" + strings.Repeat("é", 100))
	assert.True(t, utf8.ValidString(slug))
	assert.Equal(t, "a"+strings.Repeat("e", 100), slug)
}

func TestUniqueCourseSlug(t *testing.T) {
	db := testutil.DB(t)
	owner := testutil.SeedUser(t, db, "owner", models.RoleInstructor)

	slug, err := utils.UniqueCourseSlug(db, "go-basics-copy")
	require.NoError(t, err)
	assert.Equal(t, "go-basics-copy", slug)

	testutil.SeedCourse(t, db, owner.ID, "Go Basics (Copy)", "go-basics-copy")
	slug, err = utils.UniqueCourseSlug(db, "go-basics-copy")
	require.NoError(t, err)
	assert.Equal(t, "go-basics-copy-1", slug)

	// soft-deleted rows still hold the unique index
	deleted := testutil.SeedCourse(t, db, owner.ID, "Go Basics (Copy)", "go-basics-copy-1")
	require.NoError(t, db.Delete(&deleted).Error)
	slug, err = utils.UniqueCourseSlug(db, "go-basics-copy")
	require.NoError(t, err)
	assert.Equal(t, "go-basics-copy-2", slug)

	slug, err = utils.UniqueCourseSlug(db, "")
	require.NoError(t, err)
	assert.Equal(t, "course", slug)
}
