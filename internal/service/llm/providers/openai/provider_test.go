package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textvault/internal/domain"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantBilling bool
	}{
		{
			name:        "timeout",
			err:         fmt.Errorf("Post \"https://api.openai.com/v1/chat/completions\": %w", context.DeadlineExceeded),
			wantBilling: false,
		},
		{
			name: "invalid request mentioning a limit",
			err: &openai.APIError{
				Type:           "invalid_request_error",
				Message:        "max_tokens is too large: 90000. This model supports at most 16384 completion tokens; limit exceeded",
				HTTPStatusCode: http.StatusBadRequest,
			},
			wantBilling: false,
		},
		{
			name:        "server error",
			err:         &openai.RequestError{HTTPStatusCode: http.StatusInternalServerError, Err: errors.New("upstream failed")},
			wantBilling: false,
		},
		{
			name:        "insufficient quota code",
			err:         &openai.APIError{Code: "insufficient_quota", Message: "You exceeded your current quota", HTTPStatusCode: http.StatusForbidden},
			wantBilling: true,
		},
		{
			name:        "hard limit code",
			err:         &openai.APIError{Code: "billing_hard_limit_reached", HTTPStatusCode: http.StatusBadRequest},
			wantBilling: true,
		},
		{
			name:        "insufficient quota type",
			err:         &openai.APIError{Type: "insufficient_quota", HTTPStatusCode: http.StatusBadRequest},
			wantBilling: true,
		},
		{
			name:        "rate limited",
			err:         &openai.APIError{Type: "requests", HTTPStatusCode: http.StatusTooManyRequests},
			wantBilling: true,
		},
		{
			name:        "rate limited without body",
			err:         &openai.RequestError{HTTPStatusCode: http.StatusTooManyRequests, Err: errors.New("too many requests")},
			wantBilling: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyError(tt.err)

			var providerErr *domain.ProviderError
			require.ErrorAs(t, err, &providerErr)
			assert.Equal(t, tt.wantBilling, providerErr.Billing)
			assert.ErrorIs(t, err, domain.ErrProvider)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestClassifyErrorKeepsDeadline(t *testing.T) {
	err := classifyError(fmt.Errorf("request: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotContains(t, err.Error(), "quota exceeded")
}
