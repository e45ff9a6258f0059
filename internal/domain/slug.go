package domain

import (
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength — размер колонки posts.slug.
const MaxSlugLength = 255

// Slugify строит URL-безопасный идентификатор из названия с транслитерацией:
// "Jazz Night" -> "jazz-night", "Đêm nhạc" -> "dem-nhac", "Концерт" -> "kontsert".
func Slugify(name string) string {
	s := slug.Make(norm.NFC.String(name))
	s = strings.ReplaceAll(s, "_", "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	if len(s) > MaxSlugLength {
		s = s[:MaxSlugLength]
	}
	return strings.Trim(s, "-")
}
