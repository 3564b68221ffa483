package handler

import (
	"log/slog"
	"net/http"

	llmSvc "textvault/internal/domain/services/llm"
	"textvault/internal/httputil"
)

// SettingsHandler administers prompt templates, model settings and length buckets.
type SettingsHandler struct {
	settings llmSvc.SettingsService
	logger   *slog.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings llmSvc.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		logger:   logger,
	}
}

func globalScope(r *http.Request) bool {
	return r.URL.Query().Get("scope") == "global"
}

// ListTemplates returns global templates plus the organization's overrides
// GET /api/ai/templates
func (h *SettingsHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	templates, err := h.settings.ListTemplates(r.Context(), id.OrganizationID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, templates)
}

// CreateTemplate stores an override for the organization, or a global row
// when the body sets "global"
// POST /api/ai/templates
func (h *SettingsHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req llmSvc.TemplateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, ok := requireScope(w, r, req.Global)
	if !ok {
		return
	}
	req.OrganizationID = &id.OrganizationID

	template, err := h.settings.CreateTemplate(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, template)
}

// UpdateTemplate patches a template's content or active flag
// PATCH /api/ai/templates/{id}
func (h *SettingsHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, ok := PathParam(w, r, "id", "Template ID")
	if !ok {
		return
	}

	var req llmSvc.TemplateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Global = req.Global || globalScope(r)

	id, ok := requireScope(w, r, req.Global)
	if !ok {
		return
	}
	req.OrganizationID = &id.OrganizationID

	template, err := h.settings.UpdateTemplate(r.Context(), templateID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, template)
}

// DeactivateTemplate turns a template off so resolution falls through
// DELETE /api/ai/templates/{id}?scope=global
func (h *SettingsHandler) DeactivateTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, ok := PathParam(w, r, "id", "Template ID")
	if !ok {
		return
	}

	global := globalScope(r)
	id, ok := requireScope(w, r, global)
	if !ok {
		return
	}

	orgID := id.OrganizationID
	if global {
		orgID = ""
	}
	if err := h.settings.DeactivateTemplate(r.Context(), templateID, orgID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListModelSettings returns every model settings row
// GET /api/ai/model-settings
func (h *SettingsHandler) ListModelSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	rows, err := h.settings.ListModelSettings(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	active, err := h.settings.ActiveModelSettings(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"settings": rows,
		"active":   active,
	})
}

// CreateModelSettings adds a model settings row. Model settings are global.
// POST /api/ai/model-settings
func (h *SettingsHandler) CreateModelSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireScope(w, r, true); !ok {
		return
	}

	var req llmSvc.ModelSettingsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	row, err := h.settings.CreateModelSettings(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, row)
}

// UpdateModelSettings patches a model settings row
// PATCH /api/ai/model-settings/{id}
func (h *SettingsHandler) UpdateModelSettings(w http.ResponseWriter, r *http.Request) {
	settingsID, ok := PathParam(w, r, "id", "Settings ID")
	if !ok {
		return
	}
	if _, ok := requireScope(w, r, true); !ok {
		return
	}

	var req llmSvc.ModelSettingsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	row, err := h.settings.UpdateModelSettings(r.Context(), settingsID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, row)
}

// ListLengthSettings returns global buckets plus the organization's overrides
// GET /api/ai/length-settings
func (h *SettingsHandler) ListLengthSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	rows, err := h.settings.ListLengthSettings(r.Context(), id.OrganizationID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rows)
}

// CreateLengthSettings adds a length bucket for the organization
// POST /api/ai/length-settings?scope=global
func (h *SettingsHandler) CreateLengthSettings(w http.ResponseWriter, r *http.Request) {
	global := globalScope(r)
	id, ok := requireScope(w, r, global)
	if !ok {
		return
	}

	var req llmSvc.LengthSettingsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !global {
		req.OrganizationID = &id.OrganizationID
	}

	row, err := h.settings.CreateLengthSettings(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, row)
}

// UpdateLengthSettings patches a length bucket
// PATCH /api/ai/length-settings/{id}?scope=global
func (h *SettingsHandler) UpdateLengthSettings(w http.ResponseWriter, r *http.Request) {
	settingsID, ok := PathParam(w, r, "id", "Settings ID")
	if !ok {
		return
	}

	global := globalScope(r)
	id, ok := requireScope(w, r, global)
	if !ok {
		return
	}

	var req llmSvc.LengthSettingsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !global {
		req.OrganizationID = &id.OrganizationID
	}

	row, err := h.settings.UpdateLengthSettings(r.Context(), settingsID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, row)
}
