package sanitize

import (
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	tests := map[string]string{
		"Jazz Night":                        "Jazz Night",
		"  padded  ":                        "padded",
		"<b>Bold</b> move":                  "Bold move",
		"<script>alert(1)</script>Open Mic": "Open Mic",
		"Rock & Roll":                       "Rock & Roll",
		"Rock &amp; Roll":                   "Rock & Roll",
		"a < b":                             "a < b",
		`<a href="javascript:x()">Link</a>`: "Link",
		"&lt;b&gt;Bold&lt;/b&gt; move":      "Bold move",
	}
	for in, want := range tests {
		if got := Text(in); got != want {
			t.Errorf("Text(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTextEntityEncodedMarkup(t *testing.T) {
	inputs := []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;Open Mic",
		"&amp;lt;img src=x onerror=alert(1)&amp;gt;Open Mic",
		"&#60;iframe src=//evil&#62;&#60;/iframe&#62;Open Mic",
	}
	for _, in := range inputs {
		got := Text(in)
		if strings.Contains(got, "<") {
			t.Errorf("Text(%q) = %q, markup survived", in, got)
		}
		if !strings.Contains(got, "Open Mic") {
			t.Errorf("Text(%q) = %q, text lost", in, got)
		}
	}
}

func TestTextDeeplyEncodedStaysEscaped(t *testing.T) {
	in := "<b>x</b>"
	for i := 0; i < maxPasses+2; i++ {
		in = strings.ReplaceAll(strings.ReplaceAll(strings.ReplaceAll(in, "&", "&amp;"), "<", "&lt;"), ">", "&gt;")
	}
	if got := Text(in); strings.Contains(got, "<") {
		t.Errorf("Text(deeply encoded) = %q, markup survived", got)
	}
}
