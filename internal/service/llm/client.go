package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"textvault/internal/domain"
	domainllm "textvault/internal/domain/services/llm"
	"textvault/internal/metrics"
)

// Client sends completion requests to the provider serving the request model.
// Every call is bounded by timeout; nothing is retried.
type Client struct {
	resolver domainllm.ProviderResolver
	timeout  time.Duration
	logger   *slog.Logger
}

// NewClient creates a model client. A zero timeout disables the bound.
func NewClient(resolver domainllm.ProviderResolver, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		resolver: resolver,
		timeout:  timeout,
		logger:   logger,
	}
}

// Complete runs one model call for purpose.
func (c *Client) Complete(ctx context.Context, purpose string, req *domainllm.GenerateRequest) (*domainllm.GenerateResponse, error) {
	provider, model, err := c.resolver.ProviderForModel(req.Model)
	if err != nil {
		return nil, &domain.ProviderError{Provider: req.Model, Err: err}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	call := *req
	call.Model = model

	c.logger.Debug("model call",
		"provider", provider.Name(),
		"purpose", purpose,
		"model", model,
		"max_tokens", call.MaxTokens,
		"messages", len(call.Messages),
	)

	start := time.Now()
	resp, err := provider.GenerateResponse(ctx, &call)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("model call timed out after %s: %w", c.timeout, err)
		}
		var perr *domain.ProviderError
		if !errors.As(err, &perr) {
			err = &domain.ProviderError{Provider: provider.Name(), Err: err}
		}
		metrics.RecordModelCall(provider.Name(), purpose, "error", elapsed.Seconds(), 0, 0)
		c.logger.Error("model call failed",
			"provider", provider.Name(),
			"purpose", purpose,
			"model", model,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	metrics.RecordModelCall(provider.Name(), purpose, "success", elapsed.Seconds(), resp.InputTokens, resp.OutputTokens)
	c.logger.Info("model call completed",
		"provider", provider.Name(),
		"purpose", purpose,
		"model", model,
		"duration_ms", elapsed.Milliseconds(),
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"stop_reason", resp.StopReason,
	)
	return resp, nil
}
