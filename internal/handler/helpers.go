package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"textvault/internal/domain"
	"textvault/internal/domain/models"
	"textvault/internal/httputil"
)

// handleError converts domain errors to HTTP responses. Generation failures
// carry the pipeline stage as an extra "stage" field.
func handleError(w http.ResponseWriter, err error) {
	extras := map[string]interface{}{}
	var stageErr *domain.StageError
	if errors.As(err, &stageErr) {
		extras["stage"] = stageErr.Stage
	}

	var (
		conflictErr *domain.ConflictError
		quotaErr    *domain.QuotaExceededError
		providerErr *domain.ProviderError
	)

	switch {
	case errors.As(err, &quotaErr):
		extras["limit_reached"] = true
		extras["current_plan"] = quotaErr.Plan
		extras["upgrade_options"] = domain.UpgradeOptions
		extras["ai_generations_used"] = quotaErr.Used
		extras["ai_generations_limit"] = quotaErr.Limit
		respondError(w, http.StatusForbidden, quotaErr.Error(), extras)
	case errors.Is(err, domain.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error(), extras)
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error(), extras)
	case errors.Is(err, domain.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, err.Error(), extras)
	case errors.Is(err, domain.ErrForbidden):
		respondError(w, http.StatusForbidden, err.Error(), extras)
	case errors.As(err, &conflictErr):
		if conflictErr.ResourceID != "" {
			extras["resource_type"] = conflictErr.ResourceType
			extras["resource_id"] = conflictErr.ResourceID
		}
		respondError(w, http.StatusConflict, conflictErr.Error(), extras)
	case errors.As(err, &providerErr):
		respondError(w, http.StatusBadGateway, providerErr.Error(), extras)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "the request timed out", extras)
	default:
		slog.Error("unhandled error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error", extras)
	}
}

func respondError(w http.ResponseWriter, status int, detail string, extras map[string]interface{}) {
	if len(extras) == 0 {
		httputil.RespondError(w, status, detail)
		return
	}
	httputil.RespondErrorWithExtras(w, status, detail, extras)
}

// HandleCreateConflict handles conflicts during creation by returning the existing resource with 409
// If the error is a ConflictError naming a resource, fetchFn retrieves it by id
func HandleCreateConflict[T any](w http.ResponseWriter, err error, fetchFn func(id string) (*T, error)) {
	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) && conflictErr.ResourceID != "" {
		existing, fetchErr := fetchFn(conflictErr.ResourceID)
		if fetchErr != nil {
			handleError(w, fetchErr)
			return
		}

		httputil.RespondJSON(w, http.StatusConflict, existing)
		return
	}

	handleError(w, err)
}

// PathParam reads a required path value, answering 400 when it is blank.
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := strings.TrimSpace(r.PathValue(name))
	if value == "" {
		httputil.RespondError(w, http.StatusBadRequest, label+" is required")
		return "", false
	}
	return value, true
}

// identity returns the caller, answering 401 when the auth middleware did not run.
func identity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := httputil.GetIdentity(r)
	if !ok || id.OrganizationID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return models.Identity{}, false
	}
	return id, true
}

// requireWriter rejects viewers.
func requireWriter(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := identity(w, r)
	if !ok {
		return id, false
	}
	if !id.CanWrite() {
		httputil.RespondError(w, http.StatusForbidden, "viewers have read-only access")
		return id, false
	}
	return id, true
}

// requireAdmin allows organization admins and superusers.
func requireAdmin(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := identity(w, r)
	if !ok {
		return id, false
	}
	if !id.IsAdmin() {
		httputil.RespondError(w, http.StatusForbidden, "admin role required")
		return id, false
	}
	return id, true
}

// requireScope checks the caller may write settings in the requested scope:
// organization admins their own organization, superusers the global scope.
func requireScope(w http.ResponseWriter, r *http.Request, global bool) (models.Identity, bool) {
	id, ok := requireAdmin(w, r)
	if !ok {
		return id, false
	}
	if global && !id.IsSuperuser() {
		httputil.RespondError(w, http.StatusForbidden, "only superusers may change global settings")
		return id, false
	}
	return id, true
}
