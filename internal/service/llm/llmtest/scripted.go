// Package llmtest provides a scripted language model for service tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	domainllm "textvault/internal/domain/services/llm"
)

// Call is one recorded model call.
type Call struct {
	Purpose string
	Request domainllm.GenerateRequest
}

// Reply is a scripted answer. Err wins over Text.
type Reply struct {
	Text string
	Err  error
}

// ScriptedModel answers calls from per-purpose queues and records them. It
// implements domainllm.ModelClient, domainllm.LLMProvider and
// domainllm.ProviderResolver, so it can stand in at either layer.
type ScriptedModel struct {
	mu       sync.Mutex
	replies  map[string][]Reply
	fallback map[string]Reply
	calls    []Call
}

// New creates an empty script. Unscripted calls fail.
func New() *ScriptedModel {
	return &ScriptedModel{
		replies:  make(map[string][]Reply),
		fallback: make(map[string]Reply),
	}
}

// Enqueue adds replies for purpose, consumed in order.
func (m *ScriptedModel) Enqueue(purpose string, replies ...Reply) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[purpose] = append(m.replies[purpose], replies...)
	return m
}

// Always answers every call for purpose with r once the queue is empty.
func (m *ScriptedModel) Always(purpose string, r Reply) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback[purpose] = r
	return m
}

// Calls returns the recorded calls.
func (m *ScriptedModel) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallsFor returns the recorded calls for purpose.
func (m *ScriptedModel) CallsFor(purpose string) []Call {
	var out []Call
	for _, c := range m.Calls() {
		if c.Purpose == purpose {
			out = append(out, c)
		}
	}
	return out
}

// Complete implements domainllm.ModelClient.
func (m *ScriptedModel) Complete(ctx context.Context, purpose string, req *domainllm.GenerateRequest) (*domainllm.GenerateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, Call{Purpose: purpose, Request: *req})
	var r Reply
	if q := m.replies[purpose]; len(q) > 0 {
		r, m.replies[purpose] = q[0], q[1:]
	} else if fb, ok := m.fallback[purpose]; ok {
		r = fb
	} else {
		r = Reply{Err: errors.New("llmtest: no reply scripted for " + purpose)}
	}
	m.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	return &domainllm.GenerateResponse{
		Text:         r.Text,
		Model:        req.Model,
		InputTokens:  len(req.Messages),
		OutputTokens: len(r.Text) / 4,
		StopReason:   "stop",
	}, nil
}

// GenerateResponse implements domainllm.LLMProvider, scripting under the
// "provider" purpose.
func (m *ScriptedModel) GenerateResponse(ctx context.Context, req *domainllm.GenerateRequest) (*domainllm.GenerateResponse, error) {
	return m.Complete(ctx, "provider", req)
}

// Name implements domainllm.LLMProvider.
func (m *ScriptedModel) Name() string { return "scripted" }

// SupportsModel implements domainllm.LLMProvider.
func (m *ScriptedModel) SupportsModel(string) bool { return true }

// ProviderForModel implements domainllm.ProviderResolver.
func (m *ScriptedModel) ProviderForModel(model string) (domainllm.LLMProvider, string, error) {
	return m, model, nil
}
