package docsystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "textvault/internal/domain/models/docsystem"
)

func TestBuildDocumentWhere(t *testing.T) {
	published := models.StatusPublished
	category := "cat-1"

	tests := []struct {
		name      string
		filter    models.DocumentFilter
		wantWhere string
		wantArgs  []interface{}
	}{
		{
			name:      "organization only hides deleted",
			filter:    models.DocumentFilter{OrganizationID: "org-1"},
			wantWhere: "organization_id = $1 AND status <> $2",
			wantArgs:  []interface{}{"org-1", "deleted"},
		},
		{
			name:      "tags are encoded as a jsonb array",
			filter:    models.DocumentFilter{OrganizationID: "org-1", Tags: []string{"møte", `a"b`}, IncludeDeleted: true},
			wantWhere: "organization_id = $1 AND tags @> $2::jsonb",
			wantArgs:  []interface{}{"org-1", `["møte","a\"b"]`},
		},
		{
			name: "ids category status and latest",
			filter: models.DocumentFilter{
				OrganizationID: "org-1",
				IDs:            []string{"id-1"},
				CategoryID:     &category,
				Status:         &published,
				LatestOnly:     true,
			},
			wantWhere: "organization_id = $1 AND id = ANY($2::uuid[]) AND category_id = $3 AND status = $4 AND is_latest",
			wantArgs:  []interface{}{"org-1", []string{"id-1"}, "cat-1", "published"},
		},
		{
			name:      "uncategorized search",
			filter:    models.DocumentFilter{OrganizationID: "org-1", Uncategorized: true, IncludeDeleted: true, Search: "plan"},
			wantWhere: "organization_id = $1 AND category_id IS NULL AND (title ILIKE $2 OR plain_text ILIKE $2)",
			wantArgs:  []interface{}{"org-1", "%plan%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args, err := buildDocumentWhere(&tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestEncodeTags(t *testing.T) {
	encoded, err := encodeTags(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", encoded)

	encoded, err = encodeTags([]string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, `["x","y"]`, encoded)
}
