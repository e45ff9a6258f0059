package domain

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Jazz Night", "jazz-night"},
		{"ampersand", "Rock & Roll: Live!", "rock-and-roll-live"},
		{"vietnamese", "Đêm nhạc Jazz", "dem-nhac-jazz"},
		{"accents", "Café Crème", "cafe-creme"},
		{"trim", "  --Open Mic--  ", "open-mic"},
		{"digits", "Festival 2024", "festival-2024"},
		{"underscore", "open_mic__night", "open-mic-night"},
		{"empty", "!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugifyNonLatinScripts(t *testing.T) {
	for _, name := range []string{"Концерт 2024", "Фестиваль 2024", "Συναυλία", "音乐节"} {
		got := Slugify(name)
		if got == "" || got == "2024" {
			t.Fatalf("Slugify(%q) = %q, letters were dropped", name, got)
		}
	}
	if Slugify("Концерт 2024") == Slugify("Фестиваль 2024") {
		t.Fatal("different cyrillic names must not share a slug")
	}
}

func TestSlugifyLength(t *testing.T) {
	got := Slugify(strings.Repeat("ß", MaxSlugLength))
	if len(got) == 0 || len(got) > MaxSlugLength {
		t.Fatalf("len(slug) = %d, want 1..%d", len(got), MaxSlugLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Fatalf("slug %q ends with a dash", got)
	}

	got = Slugify(strings.Repeat("ab ", 200))
	if len(got) > MaxSlugLength || strings.HasSuffix(got, "-") {
		t.Fatalf("slug %q is not trimmed", got)
	}
}

func TestSlugifyDeterministic(t *testing.T) {
	if Slugify("Jazz Night") != Slugify("Jazz Night") {
		t.Fatal("slug must be deterministic")
	}
}
