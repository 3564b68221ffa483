package generation

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textvault/internal/domain/models/docsystem"
)

type counterFunc func(model, text string) int

func (f counterFunc) CountTokens(model, text string) int { return f(model, text) }

var oneToken = counterFunc(func(string, string) int { return 1 })

func refDoc(title, text string, updated time.Time) docsystem.Document {
	return docsystem.Document{
		ID:        "id-" + title,
		Title:     title,
		PlainText: text,
		UpdatedAt: updated,
	}
}

func TestSampleKeepsMostRecentDocuments(t *testing.T) {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	var docs []docsystem.Document
	for i := 0; i < 5; i++ {
		docs = append(docs, refDoc(fmt.Sprintf("D%d", i), "body", base.Add(time.Duration(i)*time.Hour)))
	}

	got := NewSampler(oneToken, SamplerOptions{}).Sample(docs, "gpt-4o-mini")

	assert.Equal(t, []string{"D4", "D3", "D2"}, titles(got.Documents))
	assert.Equal(t, 2, strings.Count(got.Text, SampleSeparator))
	assert.True(t, strings.HasPrefix(got.Text, "Title: D4\n\nContent: body\n\n"))
	assert.Equal(t, 3, got.Tokens)
	assert.Equal(t, "D0", docs[0].Title, "input must not be reordered")
}

func TestSampleKeepsInputOrderUnderCap(t *testing.T) {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	docs := []docsystem.Document{
		refDoc("old", "a", base),
		refDoc("new", "b", base.Add(time.Hour)),
	}

	got := NewSampler(oneToken, SamplerOptions{}).Sample(docs, "m")

	assert.Equal(t, []string{"old", "new"}, titles(got.Documents))
	assert.Equal(t, "Title: old\n\nContent: a\n\n"+SampleSeparator+"Title: new\n\nContent: b\n\n", got.Text)
}

func TestSampleTruncatesEachDocument(t *testing.T) {
	docs := []docsystem.Document{refDoc("T", "åæøabcdefghij", time.Now())}

	got := NewSampler(oneToken, SamplerOptions{MaxCharsPerDocument: 5}).Sample(docs, "m")

	assert.Equal(t, "Title: T\n\nContent: åæøab\n\n", got.Text)
}

func TestSampleFallsBackToContent(t *testing.T) {
	doc := docsystem.Document{Title: "T", Content: "<p>Hello <b>there</b></p>"}

	got := NewSampler(oneToken, SamplerOptions{}).Sample([]docsystem.Document{doc}, "m")

	assert.Contains(t, got.Text, "Content: Hello there")
}

func TestSampleTokenBudget(t *testing.T) {
	sizes := map[string]int{"small": 30, "big": 40, "tiny": 15, "huge": 500}
	counter := counterFunc(func(_, text string) int {
		for title, n := range sizes {
			if strings.HasPrefix(text, "Title: "+title+"\n") {
				return n
			}
		}
		return 0
	})
	now := time.Now()

	tests := []struct {
		name   string
		docs   []string
		want   []string
		tokens int
	}{
		{"skips a snippet that overflows", []string{"small", "big", "tiny"}, []string{"small", "tiny"}, 45},
		{"first snippet is always taken", []string{"huge", "tiny"}, []string{"huge"}, 500},
		{"everything fits", []string{"small", "tiny"}, []string{"small", "tiny"}, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var docs []docsystem.Document
			for _, title := range tt.docs {
				docs = append(docs, refDoc(title, "x", now))
			}

			got := NewSampler(counter, SamplerOptions{MaxTotalTokens: 50}).Sample(docs, "m")

			assert.Equal(t, tt.want, titles(got.Documents))
			assert.Equal(t, tt.tokens, got.Tokens)
		})
	}
}

func TestSampleEmpty(t *testing.T) {
	got := NewSampler(oneToken, SamplerOptions{}).Sample(nil, "m")
	require.Empty(t, got.Documents)
	assert.Empty(t, got.Text)
	assert.Zero(t, got.Tokens)
}
