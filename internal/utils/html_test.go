package utils

import "testing"

func TestStripHTMLTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text passes through", "hello world", "hello world"},
		{"tags are dropped", "<p>Hello</p><p>World</p>", "Hello World"},
		{"nested markup", "<html><body><p>Dear <strong>Amina</strong>,</p></body></html>", "Dear Amina ,"},
		{"whitespace collapses", "<p>one</p>\n\n<p>two</p>", "one two"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTMLTags(tt.in); got != tt.want {
				t.Errorf("StripHTMLTags(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
