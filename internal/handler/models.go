package handler

import (
	"log/slog"
	"net/http"
	"slices"

	"textvault/internal/capabilities"
	"textvault/internal/httputil"
)

// ProviderLister reports which providers the server can call.
type ProviderLister interface {
	Available() []string
}

// ModelsHandler handles HTTP requests for model capabilities
type ModelsHandler struct {
	providers ProviderLister
	registry  *capabilities.Registry
	logger    *slog.Logger
}

// NewModelsHandler creates a new models handler
func NewModelsHandler(providers ProviderLister, registry *capabilities.Registry, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{
		providers: providers,
		registry:  registry,
		logger:    logger,
	}
}

// GetCapabilities returns model capabilities for the configured providers
// GET /api/models/capabilities
func (h *ModelsHandler) GetCapabilities(w http.ResponseWriter, r *http.Request) {
	available := h.providers.Available()

	providers := make([]capabilities.ProviderCapabilities, 0, len(available))
	for _, p := range h.registry.ListAll() {
		if slices.Contains(available, p.Provider) {
			providers = append(providers, p)
		}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"providers": providers,
	})
}
