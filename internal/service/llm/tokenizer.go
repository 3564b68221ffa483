package llm

import (
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Tokenizer counts tokens with the tiktoken encoding of the model.
// Models without a known encoding fall back to cl100k_base when they belong to
// an OpenAI family, otherwise to ceil(runes/4). It never fails.
type Tokenizer struct {
	mu     sync.Mutex
	codecs map[string]tokenizer.Codec // nil entry: no codec for the model
}

// NewTokenizer creates a token counter with an empty codec cache.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{codecs: make(map[string]tokenizer.Codec)}
}

// CountTokens returns the token count of text for model.
func (t *Tokenizer) CountTokens(model, text string) int {
	if text == "" {
		return 0
	}
	codec := t.codec(model)
	if codec == nil {
		return approximateTokens(text)
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return approximateTokens(text)
	}
	return len(ids)
}

func (t *Tokenizer) codec(model string) tokenizer.Codec {
	if info, err := ParseModel(model); err == nil {
		model = info.Model
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.codecs[model]; ok {
		return c
	}

	c, err := tokenizer.ForModel(tokenizer.Model(model))
	if err != nil {
		c = nil
		if isOpenAIModel(strings.ToLower(model)) {
			if base, err := tokenizer.Get(tokenizer.Cl100kBase); err == nil {
				c = base
			}
		}
	}
	t.codecs[model] = c
	return c
}

// approximateTokens is the conservative estimate for unknown encodings.
func approximateTokens(text string) int {
	n := len([]rune(text))
	return (n + 3) / 4
}
