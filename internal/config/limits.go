package config

const (
	// MaxDocumentTitleLength is the maximum length for document titles.
	// Limited to 255 to keep titles usable in listings and filenames.
	MaxDocumentTitleLength = 255

	// MaxTags is the maximum number of tags on one document.
	MaxTags = 50

	// MaxTagLength is the maximum length of a single tag.
	MaxTagLength = 64

	// MaxBulkDocuments caps the ids accepted by one bulk action.
	MaxBulkDocuments = 500

	// MaxSlugAttempts bounds slug collision retries. Past the bound the save fails
	// with a conflict instead of storing a colliding slug.
	MaxSlugAttempts = 10

	// SlugSuffixLength is the length of the random [a-z0-9] collision suffix.
	SlugSuffixLength = 4

	// TitleSourceChars is how much plain text the title-generation call sees.
	TitleSourceChars = 1000

	// DefaultPageSize and MaxPageSize bound document listings.
	DefaultPageSize = 50
	MaxPageSize     = 200
)
