package lorem

import (
	"context"
	"fmt"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	domainllm "textvault/internal/domain/services/llm"
)

// Provider is a mock LLM provider that generates lorem ipsum text.
// Used for testing and development without requiring real API keys.
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// GenerateResponse returns lorem ipsum HTML: a heading and paragraphs sized to MaxTokens.
// Requests capped at a few tokens (title generation) get a single short sentence.
func (p *Provider) GenerateResponse(ctx context.Context, req *domainllm.GenerateRequest) (*domainllm.GenerateResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by lorem provider", req.Model)
	}

	select {
	case <-time.After(responseDelay(req.Model)):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	var text string
	if maxTokens <= 50 {
		text = strings.TrimSuffix(p.generator.Sentence(3, 6), ".")
	} else {
		text = p.generateHTML(maxTokens * 4)
	}

	return &domainllm.GenerateResponse{
		Text:         text,
		Model:        req.Model,
		InputTokens:  estimateTokens(req.Messages),
		OutputTokens: len(strings.Fields(text)),
		StopReason:   "end_turn",
	}, nil
}

// responseDelay simulates latency: lorem-slow waits two seconds, others answer at once.
func responseDelay(model string) time.Duration {
	if strings.Contains(model, "slow") {
		return 2 * time.Second
	}
	return 0
}

// generateHTML produces roughly targetChars characters of markup.
func (p *Provider) generateHTML(targetChars int) string {
	var b strings.Builder
	b.WriteString("<h1>")
	b.WriteString(strings.TrimSuffix(p.generator.Sentence(3, 7), "."))
	b.WriteString("</h1>\n")

	for b.Len() < targetChars {
		b.WriteString("<p>")
		b.WriteString(p.generator.Paragraph(3, 5))
		b.WriteString("</p>\n")
		if b.Len() > 4000 {
			break
		}
	}
	return b.String()
}

func estimateTokens(messages []domainllm.Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content) / 4
	}
	return total
}
