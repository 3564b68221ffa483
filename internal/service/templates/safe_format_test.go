package templates

import (
	"reflect"
	"testing"
)

func TestSafeFormat(t *testing.T) {
	vars := map[string]string{
		"concept":            "Fjords",
		"length_description": "short",
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"substitutes", "Write a {length_description} text on {concept}.", "Write a short text on Fjords."},
		{"unknown becomes empty", "Guide: {style_guide}.", "Guide: ."},
		{"escaped braces", "{{\"text\": \"{concept}\"}}", "{\"text\": \"Fjords\"}"},
		{"non identifier kept", "{ \"a\": 1 }", "{ \"a\": 1 }"},
		{"unterminated kept", "tail {concept", "tail {concept"},
		{"repeated", "{concept}/{concept}", "Fjords/Fjords"},
		{"digits after first char", "{a1}", ""},
		{"leading digit kept", "{1a}", "{1a}"},
		{"no placeholders", "plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeFormat(tt.text, vars); got != tt.want {
				t.Errorf("SafeFormat(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("{concept} {{literal}} {style_guide} {concept} { x }")
	want := []string{"concept", "style_guide"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Placeholders() = %v, want %v", got, want)
	}
}
