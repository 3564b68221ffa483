package handler

import (
	"log/slog"
	"net/http"

	docsystem "textvault/internal/domain/models/docsystem"
	"textvault/internal/domain/services"
	llmSvc "textvault/internal/domain/services/llm"
	"textvault/internal/httputil"
)

// GenerationHandler serves the AI endpoints: generation, formatting and quota.
type GenerationHandler struct {
	generator llmSvc.GenerationService
	formatter llmSvc.FormatService
	quota     services.QuotaLedger
	logger    *slog.Logger
}

// NewGenerationHandler creates a new generation handler
func NewGenerationHandler(
	generator llmSvc.GenerationService,
	formatter llmSvc.FormatService,
	quota services.QuotaLedger,
	logger *slog.Logger,
) *GenerationHandler {
	return &GenerationHandler{
		generator: generator,
		formatter: formatter,
		quota:     quota,
		logger:    logger,
	}
}

// generatedDocument is the created document plus the organization's counters.
type generatedDocument struct {
	*docsystem.Document
	AIGenerationsUsed      int `json:"ai_generations_used"`
	AIGenerationsLimit     int `json:"ai_generations_limit"`
	AIGenerationsRemaining int `json:"ai_generations_remaining"`
}

// Generate runs the generation pipeline
// POST /api/ai/generate
// Returns 201 with the new document, or 200 for style-only and debug requests
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id, ok := requireWriter(w, r)
	if !ok {
		return
	}

	var req llmSvc.GenerateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OrganizationID = id.OrganizationID
	req.UserID = id.UserID
	req.Username = id.Username

	result, err := h.generator.Generate(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	switch {
	case result.StyleOnly != nil:
		httputil.RespondJSON(w, http.StatusOK, result.StyleOnly)
	case result.Debug != nil:
		httputil.RespondJSON(w, http.StatusOK, result.Debug)
	default:
		resp := generatedDocument{Document: result.Document}
		if q := result.Quota; q != nil {
			resp.AIGenerationsUsed = q.Used
			resp.AIGenerationsLimit = q.Limit
			resp.AIGenerationsRemaining = q.Remaining
		}
		httputil.RespondJSON(w, http.StatusCreated, resp)
	}
}

// Format asks the model to restructure content as an editor node tree
// POST /api/ai/format
func (h *GenerationHandler) Format(w http.ResponseWriter, r *http.Request) {
	id, ok := requireWriter(w, r)
	if !ok {
		return
	}

	var req llmSvc.FormatDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OrganizationID = id.OrganizationID

	result, err := h.formatter.FormatDocument(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// Quota reports the organization's generation usage
// GET /api/ai/quota
func (h *GenerationHandler) Quota(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	usage, err := h.quota.Usage(r.Context(), id.OrganizationID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, usage)
}
