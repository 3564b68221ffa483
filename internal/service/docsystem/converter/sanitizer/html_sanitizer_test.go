package sanitizer

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	s := NewHTMLSanitizer()

	tests := []struct {
		name    string
		input   string
		keep    string
		without string
	}{
		{"script removed", `<p>hi</p><script>alert(1)</script>`, "<p>hi</p>", "<script"},
		{"event handler removed", `<p onclick="steal()">x</p>`, "<p>x</p>", "onclick"},
		{"javascript url removed", `<a href="javascript:alert(1)">x</a>`, "x", "javascript:"},
		{"headings kept", `<h1>Title</h1><ul><li>one</li></ul>`, "<h1>Title</h1><ul><li>one</li></ul>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			if !strings.Contains(got, tt.keep) {
				t.Errorf("Sanitize(%q) = %q, want it to contain %q", tt.input, got, tt.keep)
			}
			if tt.without != "" && strings.Contains(got, tt.without) {
				t.Errorf("Sanitize(%q) = %q, still contains %q", tt.input, got, tt.without)
			}
		})
	}
}
