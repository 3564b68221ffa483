package docsystem

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textvault/internal/domain"
	models "textvault/internal/domain/models/docsystem"
	docsysSvc "textvault/internal/domain/services/docsystem"
	"textvault/internal/repository/memory"
	"textvault/internal/service/docsystem/converter"
	"textvault/internal/service/docsystem/converter/sanitizer"
)

const org = "org-1"

func newService(t *testing.T) (*documentService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := NewDocumentService(
		memory.NewDocumentRepository(store),
		memory.NewTransactionManager(store),
		converter.NewRegistry(sanitizer.NewHTMLSanitizer()),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return svc.(*documentService), store
}

func create(t *testing.T, svc *documentService, title, body string) *models.Document {
	t.Helper()
	doc, err := svc.CreateDocument(context.Background(), &docsysSvc.CreateDocumentRequest{
		OrganizationID: org,
		UserID:         "user-1",
		Title:          title,
		Content:        body,
	})
	require.NoError(t, err)
	return doc
}

func TestCreateDocumentDerivesFields(t *testing.T) {
	svc, _ := newService(t)

	doc, err := svc.CreateDocument(context.Background(), &docsysSvc.CreateDocumentRequest{
		OrganizationID: org,
		UserID:         "user-1",
		Title:          "  Årsrapport 2024  ",
		Content:        "<h1>Rapport</h1><p>Tekst &amp; tall</p>",
		Tags:           []string{"finance", " finance ", "", "q4"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Årsrapport 2024", doc.Title)
	assert.Equal(t, "arsrapport-2024", doc.Slug)
	assert.Equal(t, models.FormatHTML, doc.ContentFormat)
	assert.Equal(t, "Rapport Tekst & tall", doc.PlainText)
	assert.Equal(t, []string{"finance", "q4"}, doc.Tags)
	assert.Equal(t, models.StatusDraft, doc.Status)
	assert.Equal(t, 1, doc.Version)
	assert.True(t, doc.IsLatest)
	assert.Nil(t, doc.ParentID)
}

func TestCreateDocumentSlugCollision(t *testing.T) {
	svc, _ := newService(t)

	first := create(t, svc, "Hello World", "one")
	second := create(t, svc, "Hello World", "two")

	assert.Equal(t, "hello-world", first.Slug)
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.Regexp(t, `^hello-world-[a-z0-9]{4}$`, second.Slug)
}

func TestCreateDocumentSlugGivesUp(t *testing.T) {
	svc, _ := newService(t)
	svc.suffix = func() string { return "aaaa" }

	create(t, svc, "Hello", "one")
	create(t, svc, "Hello", "two")

	_, err := svc.CreateDocument(context.Background(), &docsysSvc.CreateDocumentRequest{
		OrganizationID: org,
		Title:          "Hello",
	})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Message, "after 10 attempts")
}

func TestCreateDocumentSlugScopedToOrganization(t *testing.T) {
	svc, _ := newService(t)
	create(t, svc, "Shared", "a")

	other, err := svc.CreateDocument(context.Background(), &docsysSvc.CreateDocumentRequest{
		OrganizationID: "org-2",
		Title:          "Shared",
	})
	require.NoError(t, err)
	assert.Equal(t, "shared", other.Slug)
}

func TestCreateDocumentValidation(t *testing.T) {
	tests := []struct {
		name string
		req  docsysSvc.CreateDocumentRequest
	}{
		{"missing title", docsysSvc.CreateDocumentRequest{Title: "   "}},
		{"title too long", docsysSvc.CreateDocumentRequest{Title: strings.Repeat("x", 256)}},
		{"bad status", docsysSvc.CreateDocumentRequest{Title: "ok", Status: "shredded"}},
		{"tag too long", docsysSvc.CreateDocumentRequest{Title: "ok", Tags: []string{strings.Repeat("t", 65)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			tt.req.OrganizationID = org
			_, err := svc.CreateDocument(context.Background(), &tt.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestExplicitSlugConflict(t *testing.T) {
	svc, _ := newService(t)
	existing := create(t, svc, "Taken", "a")

	_, err := svc.CreateDocument(context.Background(), &docsysSvc.CreateDocumentRequest{
		OrganizationID: org,
		Title:          "Another",
		Slug:           "Taken",
	})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, existing.ID, conflict.ResourceID)
}

func TestUpdateDocumentRecomputesPlainText(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	doc := create(t, svc, "Notes", "# Heading\n\n**bold**")
	assert.Equal(t, "Heading\n\nbold", doc.PlainText)

	body := `[{"type":"paragraph","children":[{"text":"rewritten"}]}]`
	title := "Renamed"
	updated, err := svc.UpdateDocument(ctx, org, doc.Slug, &docsysSvc.UpdateDocumentRequest{
		Title:   &title,
		Content: &body,
	})
	require.NoError(t, err)
	assert.Equal(t, "notes", updated.Slug)
	assert.Equal(t, models.FormatLegacy, updated.ContentFormat)
	assert.Equal(t, "rewritten", updated.PlainText)

	got, err := svc.GetDocument(ctx, org, "notes", nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
}

func TestCreateNewVersion(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	v1 := create(t, svc, "Plan", "first")

	content := "second"
	v2, err := svc.CreateNewVersion(ctx, org, v1.Slug, &docsysSvc.CreateVersionRequest{UserID: "user-2", Content: &content})
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, v1.Slug, v2.Slug)
	require.NotNil(t, v2.ParentID)
	assert.Equal(t, v1.ID, *v2.ParentID)
	assert.Equal(t, "second", v2.PlainText)
	assert.Equal(t, "user-2", v2.CreatedBy)

	old, err := svc.GetDocumentByID(ctx, org, v1.ID)
	require.NoError(t, err)
	assert.False(t, old.IsLatest)
	assert.Equal(t, "first", old.Content)

	v3, err := svc.CreateNewVersion(ctx, org, v1.Slug, &docsysSvc.CreateVersionRequest{})
	require.NoError(t, err)

	versions, err := svc.ListVersions(ctx, org, v1.Slug)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	for i, v := range versions {
		assert.Equal(t, i+1, v.Version)
		assert.Equal(t, i == 2, v.IsLatest)
	}
	assert.Equal(t, v3.ID, versions[2].ID)

	one := 1
	got, err := svc.GetDocument(ctx, org, v1.Slug, &one)
	require.NoError(t, err)
	assert.Equal(t, v1.ID, got.ID)
}

func TestCreateNewVersionFromOldVersion(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	v1 := create(t, svc, "Plan", "first")
	_, err := svc.CreateNewVersion(ctx, org, v1.Slug, &docsysSvc.CreateVersionRequest{})
	require.NoError(t, err)

	one := 1
	_, err = svc.CreateNewVersion(ctx, org, v1.Slug, &docsysSvc.CreateVersionRequest{FromVersion: &one})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.EqualError(t, err, "cannot create a new version from an old version")
}

func TestCreateNewVersionRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	v1 := create(t, svc, "Plan", "first")

	empty := " "
	_, err := svc.CreateNewVersion(ctx, org, v1.Slug, &docsysSvc.CreateVersionRequest{Title: &empty})
	require.ErrorIs(t, err, domain.ErrValidation)

	head, err := svc.GetDocument(ctx, org, v1.Slug, nil)
	require.NoError(t, err)
	assert.Equal(t, v1.ID, head.ID)
	assert.True(t, head.IsLatest)
}

func TestCreateNewVersionConcurrent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	v1 := create(t, svc, "Plan", "first")

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateNewVersion(ctx, org, v1.Slug, &docsysSvc.CreateVersionRequest{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	versions, err := svc.ListVersions(ctx, org, v1.Slug)
	require.NoError(t, err)
	require.Len(t, versions, workers+1)

	latest := 0
	for i, v := range versions {
		assert.Equal(t, i+1, v.Version)
		if v.IsLatest {
			latest++
		}
	}
	assert.Equal(t, 1, latest)
}

func TestListDocumentsFilters(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	cat := "cat-1"
	for i, tags := range [][]string{{"a", "b"}, {"a"}, {"b"}} {
		_, err := svc.CreateDocument(ctx, &docsysSvc.CreateDocumentRequest{
			OrganizationID: org,
			Title:          fmt.Sprintf("Doc %d", i),
			Content:        fmt.Sprintf("body %d", i),
			Tags:           tags,
			CategoryID:     &cat,
		})
		require.NoError(t, err)
	}
	deleted := create(t, svc, "Gone", "x")
	require.NoError(t, svc.DeleteDocument(ctx, org, deleted.Slug))

	tests := []struct {
		name   string
		filter models.DocumentFilter
		want   int
	}{
		{"excludes deleted", models.DocumentFilter{}, 3},
		{"include deleted", models.DocumentFilter{IncludeDeleted: true}, 4},
		{"tags use AND", models.DocumentFilter{Tags: []string{"a", "b"}}, 1},
		{"category", models.DocumentFilter{CategoryID: &cat}, 3},
		{"uncategorized", models.DocumentFilter{Uncategorized: true, IncludeDeleted: true}, 1},
		{"search plain text", models.DocumentFilter{Search: "BODY 2"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.filter
			f.OrganizationID = org
			f.LatestOnly = true
			page, err := svc.ListDocuments(ctx, &f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Total)
			assert.Equal(t, 50, page.Limit)
		})
	}
}

func TestBulkActions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	a := create(t, svc, "A", "a")
	b := create(t, svc, "B", "b")
	ids := []string{a.ID, b.ID, "missing"}

	res, err := svc.BulkAction(ctx, &docsysSvc.BulkActionRequest{
		OrganizationID: org, Action: docsysSvc.BulkTags, DocumentIDs: ids, Tags: []string{"x", "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)

	res, err = svc.BulkAction(ctx, &docsysSvc.BulkActionRequest{
		OrganizationID: org, Action: docsysSvc.BulkTags, DocumentIDs: ids, Tags: []string{"y", "z"},
	})
	require.NoError(t, err)
	got, err := svc.GetDocumentByID(ctx, org, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, got.Tags)

	res, err = svc.BulkAction(ctx, &docsysSvc.BulkActionRequest{
		OrganizationID: org, Action: docsysSvc.BulkStatus, DocumentIDs: ids, Status: "published",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)

	_, err = svc.BulkAction(ctx, &docsysSvc.BulkActionRequest{
		OrganizationID: org, Action: docsysSvc.BulkStatus, DocumentIDs: ids, Status: "lost",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	cat := "cat-9"
	res, err = svc.BulkAction(ctx, &docsysSvc.BulkActionRequest{
		OrganizationID: org, Action: docsysSvc.BulkCategory, DocumentIDs: []string{a.ID}, CategoryID: &cat,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	res, err = svc.BulkAction(ctx, &docsysSvc.BulkActionRequest{
		OrganizationID: "org-2", Action: docsysSvc.BulkDelete, DocumentIDs: ids,
	})
	require.NoError(t, err)
	assert.Zero(t, res.Updated, "other organizations cannot touch these documents")

	res, err = svc.BulkAction(ctx, &docsysSvc.BulkActionRequest{
		OrganizationID: org, Action: docsysSvc.BulkDeletePermanently, DocumentIDs: []string{b.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	_, err = svc.GetDocumentByID(ctx, org, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.BulkAction(ctx, &docsysSvc.BulkActionRequest{OrganizationID: org, Action: "archive-all", DocumentIDs: ids})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.BulkAction(ctx, &docsysSvc.BulkActionRequest{OrganizationID: org, Action: docsysSvc.BulkDelete})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestExportDocument(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	doc := create(t, svc, "Export Me", "# Title\n\nBody")

	res, err := svc.ExportDocument(ctx, org, doc.Slug, "")
	require.NoError(t, err)
	assert.Equal(t, "html", res.Format)
	assert.Equal(t, "export-me.html", res.Filename)
	assert.Contains(t, res.Body, "<h1>Title</h1>")

	res, err = svc.ExportDocument(ctx, org, doc.Slug, "text")
	require.NoError(t, err)
	assert.Equal(t, "Title\n\nBody", res.Body)

	_, err = svc.ExportDocument(ctx, org, doc.Slug, "docx")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
