package utils

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"lms/backend/models"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

const slugMaxLen = 160

// GenerateSlug lower-cases s, strips diacritics from Latin letters (é → e) and collapses every run of
// non-alphanumerics into a single "-". The result is at most slugMaxLen runes.
func GenerateSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	lastDash := false
	var base rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			// диакритика снимается только с латиницы: й остаётся й
			if base != 0 && base >= utf8.RuneSelf {
				b.WriteRune(r)
			}
			continue
		}
		base = 0
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			base = r
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}

	out := strings.Trim(norm.NFC.String(b.String()), "-")
	if utf8.RuneCountInString(out) > slugMaxLen {
		out = strings.Trim(string([]rune(out)[:slugMaxLen]), "-")
	}
	return out
}

// UniqueCourseSlug returns base if no course (soft-deleted ones included) uses it,
// otherwise the first free candidate of base-1, base-2, ...
//
// The check and the later insert are not atomic; the unique index on
// courses.slug is what finally rejects a concurrent duplicate.
func UniqueCourseSlug(db *gorm.DB, base string) (string, error) {
	if base == "" {
		base = "course"
	}

	candidate := base
	for i := 1; ; i++ {
		taken, err := courseSlugTaken(db, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func courseSlugTaken(db *gorm.DB, slug string) (bool, error) {
	var count int64
	if err := db.Unscoped().Model(&models.Course{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
