package generation

import (
	"fmt"
	"sort"
	"strings"

	"textvault/internal/domain/models/docsystem"
	domainllm "textvault/internal/domain/services/llm"
	"textvault/internal/service/docsystem/content"
)

// SampleSeparator joins document snippets in the combined text.
const SampleSeparator = "\n---\n"

// SamplerOptions bound how much reference text goes into one prompt.
type SamplerOptions struct {
	MaxDocuments        int
	MaxCharsPerDocument int
	MaxTotalTokens      int
}

// DefaultSamplerOptions returns 3 documents, 600 characters each, 3000 tokens.
func DefaultSamplerOptions() SamplerOptions {
	return SamplerOptions{
		MaxDocuments:        3,
		MaxCharsPerDocument: 600,
		MaxTotalTokens:      3000,
	}
}

// Sampler turns a set of reference documents into one bounded block of text.
type Sampler struct {
	opts   SamplerOptions
	tokens domainllm.TokenCounter
}

// SampleResult is the combined text and the documents that made it in.
type SampleResult struct {
	Text      string
	Documents []docsystem.Document
	Tokens    int
}

// NewSampler creates a sampler. Zero options take their defaults.
func NewSampler(tokens domainllm.TokenCounter, opts SamplerOptions) *Sampler {
	defaults := DefaultSamplerOptions()
	if opts.MaxDocuments <= 0 {
		opts.MaxDocuments = defaults.MaxDocuments
	}
	if opts.MaxCharsPerDocument <= 0 {
		opts.MaxCharsPerDocument = defaults.MaxCharsPerDocument
	}
	if opts.MaxTotalTokens <= 0 {
		opts.MaxTotalTokens = defaults.MaxTotalTokens
	}
	return &Sampler{opts: opts, tokens: tokens}
}

// Sample keeps the most recently updated documents when there are more than
// MaxDocuments, cuts each to MaxCharsPerDocument characters, and adds
// snippets until the token budget is reached. A snippet that would overflow
// the budget is skipped, except that the first one is always taken.
func (s *Sampler) Sample(docs []docsystem.Document, model string) SampleResult {
	candidates := docs
	if len(candidates) > s.opts.MaxDocuments {
		candidates = append([]docsystem.Document(nil), docs...)
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
		})
		candidates = candidates[:s.opts.MaxDocuments]
	}

	var (
		snippets []string
		included []docsystem.Document
		total    int
	)
	for _, doc := range candidates {
		snippet := fmt.Sprintf("Title: %s\n\nContent: %s\n\n", doc.Title, truncateRunes(plainText(doc), s.opts.MaxCharsPerDocument))
		n := s.tokens.CountTokens(model, snippet)

		if total+n > s.opts.MaxTotalTokens && len(snippets) > 0 {
			continue
		}
		snippets = append(snippets, snippet)
		included = append(included, doc)
		total += n

		if total >= s.opts.MaxTotalTokens {
			break
		}
	}

	return SampleResult{
		Text:      strings.Join(snippets, SampleSeparator),
		Documents: included,
		Tokens:    total,
	}
}

func plainText(doc docsystem.Document) string {
	if doc.PlainText != "" || doc.Content == "" {
		return doc.PlainText
	}
	return content.PlainText(doc.Content, content.Detect(doc.Content))
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
