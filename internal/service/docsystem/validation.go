package docsystem

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"textvault/internal/config"
	"textvault/internal/domain"
	models "textvault/internal/domain/models/docsystem"
)

var editableStatuses = []interface{}{
	string(models.StatusDraft),
	string(models.StatusPublished),
	string(models.StatusArchived),
	string(models.StatusDeleted),
}

// validateDocument checks the fields a caller can set on any save.
func validateDocument(doc *models.Document) error {
	status := string(doc.Status)
	err := validation.Errors{
		"title": validation.Validate(doc.Title,
			validation.Required,
			validation.RuneLength(1, config.MaxDocumentTitleLength),
		),
		"tags": validation.Validate(doc.Tags,
			validation.Length(0, config.MaxTags),
			validation.Each(validation.RuneLength(1, config.MaxTagLength)),
		),
		"status": validation.Validate(status, validation.Required, validation.In(editableStatuses...)),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateBulkIDs(ids []string) error {
	if len(ids) == 0 {
		return domain.NewValidationError("document_ids must not be empty")
	}
	if len(ids) > config.MaxBulkDocuments {
		return domain.NewValidationError("at most %d documents per bulk action", config.MaxBulkDocuments)
	}
	return nil
}

// normalizeTags trims tags and drops empties and duplicates, keeping the
// first occurrence.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// normalizeCategory maps an empty category id to none.
func normalizeCategory(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	v := strings.TrimSpace(*id)
	return &v
}
