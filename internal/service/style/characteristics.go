package style

import (
	"strings"

	llmModels "textvault/internal/domain/models/llm"
)

const unknown = "Unknown"

// ExtractCharacteristics derives a rough summary from a condensed style text
// using keyword matches. Fields that no keyword matches stay "Unknown".
func ExtractCharacteristics(condensed string) llmModels.StyleCharacteristics {
	c := llmModels.StyleCharacteristics{
		Language:            unknown,
		Tone:                unknown,
		SentenceStructure:   unknown,
		ParagraphStructure:  unknown,
		Vocabulary:          unknown,
		Perspective:         unknown,
		Tense:               unknown,
		DistinctiveElements: unknown,
	}

	// Language names are matched case-sensitively.
	switch {
	case strings.Contains(condensed, "Norwegian"):
		c.Language = "Norwegian"
	case strings.Contains(condensed, "English"):
		c.Language = "English"
	}

	lower := strings.ToLower(condensed)

	// "informal" contains "formal", so informal text reports Formal.
	switch {
	case strings.Contains(lower, "formal"):
		c.Tone = "Formal"
	case strings.Contains(lower, "informal"):
		c.Tone = "Informal"
	case strings.Contains(lower, "casual"):
		c.Tone = "Casual"
	}

	if strings.Contains(lower, "sentence") {
		switch {
		case strings.Contains(lower, "short"):
			c.SentenceStructure = "Short sentences"
		case strings.Contains(lower, "long"):
			c.SentenceStructure = "Long sentences"
		}
	}
	return c
}
