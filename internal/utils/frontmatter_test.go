package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontmatter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantMeta DocumentMetadata
		wantBody string
		wantErr  bool
	}{
		{
			name:     "no frontmatter",
			input:    "# Referat\n\nTekst",
			wantBody: "# Referat\n\nTekst",
		},
		{
			name:  "full frontmatter",
			input: "---\ntitle: \" Møtereferat \"\nstatus: published\ntags: [styre, \" \", budsjett]\n---\n\n# Referat\n",
			wantMeta: DocumentMetadata{
				Title:  "Møtereferat",
				Status: "published",
				Tags:   []string{"styre", "budsjett"},
			},
			wantBody: "# Referat\n",
		},
		{
			name:    "unterminated",
			input:   "---\ntitle: x\n# Referat",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			input:   "---\ntags: [a\n---\nbody",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, body, err := ParseFrontmatter([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMeta, *meta)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
