package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	docsystem "textvault/internal/domain/models/docsystem"
	docsysSvc "textvault/internal/domain/services/docsystem"
	"textvault/internal/httputil"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	docService docsysSvc.DocumentService
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService docsysSvc.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger,
	}
}

// ListDocuments lists the organization's documents
// GET /api/documents?category=&status=&tags=a,b&search=&include_deleted=&latest_only=&limit=&offset=
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	filter, err := documentFilter(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.OrganizationID = id.OrganizationID

	page, err := h.docService.ListDocuments(r.Context(), filter)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, page)
}

func documentFilter(r *http.Request) (*docsystem.DocumentFilter, error) {
	q := r.URL.Query()
	filter := &docsystem.DocumentFilter{
		Tags:   httputil.QueryList(r, "tags"),
		Search: strings.TrimSpace(q.Get("search")),
	}

	switch category := strings.TrimSpace(q.Get("category")); category {
	case "":
	case "null":
		filter.Uncategorized = true
	default:
		filter.CategoryID = &category
	}

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status := docsystem.Status(raw)
		if !status.Valid() {
			return nil, fmt.Errorf("invalid status %q", raw)
		}
		filter.Status = &status
	}

	var err error
	if filter.IncludeDeleted, err = httputil.QueryBool(r, "include_deleted", false); err != nil {
		return nil, err
	}
	if filter.LatestOnly, err = httputil.QueryBool(r, "latest_only", true); err != nil {
		return nil, err
	}
	if filter.Limit, err = httputil.QueryInt(r, "limit", 0); err != nil {
		return nil, err
	}
	if filter.Offset, err = httputil.QueryInt(r, "offset", 0); err != nil {
		return nil, err
	}
	return filter, nil
}

// CreateDocument creates a new document
// POST /api/documents
// Returns 201 if created, 409 with the existing document if an explicit slug is taken
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := requireWriter(w, r)
	if !ok {
		return
	}

	var req docsysSvc.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OrganizationID = id.OrganizationID
	req.UserID = id.UserID

	doc, err := h.docService.CreateDocument(r.Context(), &req)
	if err != nil {
		HandleCreateConflict(w, err, func(docID string) (*docsystem.Document, error) {
			return h.docService.GetDocumentByID(r.Context(), id.OrganizationID, docID)
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// GetDocument retrieves the latest version, or ?version=N
// GET /api/documents/{slug}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	slug, ok := PathParam(w, r, "slug", "Document slug")
	if !ok {
		return
	}

	var version *int
	if r.URL.Query().Has("version") {
		v, err := httputil.QueryInt(r, "version", 0)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		version = &v
	}

	doc, err := h.docService.GetDocument(r.Context(), id.OrganizationID, slug, version)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// updateDocumentBody distinguishes an absent category_id from null.
type updateDocumentBody struct {
	Title      *string                 `json:"title"`
	Content    *string                 `json:"content"`
	CategoryID httputil.OptionalString `json:"category_id"`
	Tags       *[]string               `json:"tags"`
	Status     *string                 `json:"status"`
}

// UpdateDocument edits the latest version in place
// PATCH /api/documents/{slug}
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := requireWriter(w, r)
	if !ok {
		return
	}
	slug, ok := PathParam(w, r, "slug", "Document slug")
	if !ok {
		return
	}

	var body updateDocumentBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req := &docsysSvc.UpdateDocumentRequest{
		Title:         body.Title,
		Content:       body.Content,
		CategoryID:    body.CategoryID.Value,
		ClearCategory: body.CategoryID.Clears(),
		Tags:          body.Tags,
		Status:        body.Status,
	}

	doc, err := h.docService.UpdateDocument(r.Context(), id.OrganizationID, slug, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteDocument soft-deletes a document
// DELETE /api/documents/{slug}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := requireWriter(w, r)
	if !ok {
		return
	}
	slug, ok := PathParam(w, r, "slug", "Document slug")
	if !ok {
		return
	}

	if err := h.docService.DeleteDocument(r.Context(), id.OrganizationID, slug); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListVersions returns every version of a document, oldest first
// GET /api/documents/{slug}/versions
func (h *DocumentHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	slug, ok := PathParam(w, r, "slug", "Document slug")
	if !ok {
		return
	}

	versions, err := h.docService.ListVersions(r.Context(), id.OrganizationID, slug)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, versions)
}

// CreateVersion forks the latest version. The body is optional.
// POST /api/documents/{slug}/versions
func (h *DocumentHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := requireWriter(w, r)
	if !ok {
		return
	}
	slug, ok := PathParam(w, r, "slug", "Document slug")
	if !ok {
		return
	}

	var req docsysSvc.CreateVersionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = id.UserID

	doc, err := h.docService.CreateNewVersion(r.Context(), id.OrganizationID, slug, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// ExportDocument renders a document for download
// GET /api/documents/{slug}/export?format=html|markdown|text
func (h *DocumentHandler) ExportDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	slug, ok := PathParam(w, r, "slug", "Document slug")
	if !ok {
		return
	}

	result, err := h.docService.ExportDocument(r.Context(), id.OrganizationID, slug, r.URL.Query().Get("format"))
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	httputil.RespondText(w, http.StatusOK, result.ContentType, result.Body)
}

// BulkAction applies one action to many documents
// POST /api/bulk/documents/{action}
func (h *DocumentHandler) BulkAction(w http.ResponseWriter, r *http.Request) {
	action, ok := PathParam(w, r, "action", "Bulk action")
	if !ok {
		return
	}

	authorize := requireWriter
	if action == docsysSvc.BulkDeletePermanently {
		authorize = requireAdmin
	}
	id, ok := authorize(w, r)
	if !ok {
		return
	}

	var req docsysSvc.BulkActionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OrganizationID = id.OrganizationID
	req.Action = action

	result, err := h.docService.BulkAction(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// HealthCheck is a simple health check endpoint
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
