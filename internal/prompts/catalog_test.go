package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmModels "textvault/internal/domain/models/llm"
)

func TestEveryTemplateTypeHasFallback(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	for _, tt := range llmModels.TemplateTypes {
		text, ok := c.Template(string(tt))
		assert.True(t, ok, "missing fallback for %s", tt)
		assert.NotEmpty(t, text, "empty fallback for %s", tt)
	}

	styled, ok := c.Template(VariantNewContentStyled)
	require.True(t, ok)
	assert.Contains(t, styled, "{style_guide}")
}

func TestLengthBuckets(t *testing.T) {
	c := MustLoad()

	tests := []struct {
		name       string
		wantTokens int
		wantPhrase string
	}{
		{"short", 1500, "short (approximately 500-750 words)"},
		{"medium", 3000, "medium-length (approximately 750-1500 words)"},
		{"long", 4000, "comprehensive (approximately 1500-3000 words)"},
		{"very_long", 4000, "detailed and extensive (3000+ words)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, ok := c.Length(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.wantTokens, l.TargetTokens)
			assert.Equal(t, tt.wantPhrase, l.Phrase)
			assert.Empty(t, l.Constraint)
		})
	}

	micro, ok := c.Length("micro")
	require.True(t, ok)
	assert.Equal(t, "Your response MUST be 50-160 characters (extremely concise)", micro.Constraint)

	assert.Equal(t, "medium", c.LengthOrDefault("gigantic").Name)
}

func TestSeedModelsHaveOneDefault(t *testing.T) {
	c := MustLoad()

	defaults := 0
	for _, m := range c.Models() {
		assert.NotEmpty(t, m.ModelName)
		assert.Positive(t, m.MaxTokens)
		if m.Default {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
	assert.Equal(t, "You are a helpful assistant that generates concise, descriptive titles.", c.SystemPrompt(SystemTitle))
}
