package handler

import (
	"log/slog"
	"net/http"

	llmSvc "textvault/internal/domain/services/llm"
	"textvault/internal/httputil"
)

// StyleHandler exposes stored style constraints.
type StyleHandler struct {
	constraints llmSvc.StyleConstraintService
	logger      *slog.Logger
}

// NewStyleHandler creates a new style constraint handler
func NewStyleHandler(constraints llmSvc.StyleConstraintService, logger *slog.Logger) *StyleHandler {
	return &StyleHandler{
		constraints: constraints,
		logger:      logger,
	}
}

// ListConstraints lists the organization's style constraints
// GET /api/style-constraints?include_inactive=true
func (h *StyleHandler) ListConstraints(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	includeInactive, err := httputil.QueryBool(r, "include_inactive", false)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	constraints, err := h.constraints.List(r.Context(), id.OrganizationID, includeInactive)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, constraints)
}

// GetConstraint returns one style constraint
// GET /api/style-constraints/{id}
func (h *StyleHandler) GetConstraint(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	constraintID, ok := PathParam(w, r, "id", "Style constraint ID")
	if !ok {
		return
	}

	constraint, err := h.constraints.Get(r.Context(), constraintID, id.OrganizationID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, constraint)
}

// ReferenceDocuments lists the documents a constraint was derived from
// GET /api/style-constraints/{id}/reference-documents
func (h *StyleHandler) ReferenceDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	constraintID, ok := PathParam(w, r, "id", "Style constraint ID")
	if !ok {
		return
	}

	docs, err := h.constraints.ReferenceDocuments(r.Context(), constraintID, id.OrganizationID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// DeactivateConstraint stops a constraint from being reused
// DELETE /api/style-constraints/{id}
func (h *StyleHandler) DeactivateConstraint(w http.ResponseWriter, r *http.Request) {
	id, ok := requireWriter(w, r)
	if !ok {
		return
	}
	constraintID, ok := PathParam(w, r, "id", "Style constraint ID")
	if !ok {
		return
	}

	if err := h.constraints.Deactivate(r.Context(), constraintID, id.OrganizationID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
