package seed

import (
	"context"
	"errors"
	"log/slog"

	"textvault/internal/domain"
	llmModels "textvault/internal/domain/models/llm"
	docsysSvc "textvault/internal/domain/services/docsystem"
	domainllm "textvault/internal/domain/services/llm"
	"textvault/internal/prompts"
)

// Report counts the rows a seeding step wrote and the rows it found already present.
type Report struct {
	Created int
	Skipped int
}

func (r *Report) count(err error) error {
	switch {
	case err == nil:
		r.Created++
	case errors.Is(err, domain.ErrConflict):
		r.Skipped++
	default:
		return err
	}
	return nil
}

// Seeder writes the built-in settings and sample documents. Every step can be
// re-run: existing rows are left alone.
type Seeder struct {
	settings  domainllm.SettingsService
	documents docsysSvc.DocumentService
	catalog   *prompts.Catalog
	logger    *slog.Logger
}

// NewSeeder creates a seeder. documents may be nil when only settings are seeded.
func NewSeeder(settings domainllm.SettingsService, documents docsysSvc.DocumentService, catalog *prompts.Catalog, logger *slog.Logger) *Seeder {
	return &Seeder{
		settings:  settings,
		documents: documents,
		catalog:   catalog,
		logger:    logger,
	}
}

// Defaults stores the built-in templates, length buckets and model rows as
// global settings. Length rows carry the prompt phrase as their description,
// since that is the text resolved into prompts.
func (s *Seeder) Defaults(ctx context.Context) (*Report, error) {
	report := &Report{}

	for _, t := range llmModels.TemplateTypes {
		content, ok := s.catalog.Template(string(t))
		if !ok {
			continue
		}
		templateType := string(t)
		_, err := s.settings.CreateTemplate(ctx, &domainllm.TemplateRequest{
			TemplateType: &templateType,
			Content:      &content,
			Global:       true,
		})
		if err := report.count(err); err != nil {
			return report, err
		}
	}

	for _, l := range s.catalog.Lengths() {
		_, err := s.settings.CreateLengthSettings(ctx, &domainllm.LengthSettingsRequest{
			LengthName:   &l.Name,
			Description:  &l.Phrase,
			TargetTokens: &l.TargetTokens,
		})
		if err := report.count(err); err != nil {
			return report, err
		}
	}

	existing, err := s.settings.ListModelSettings(ctx)
	if err != nil {
		return report, err
	}
	known := make(map[string]bool, len(existing))
	for _, row := range existing {
		known[row.ModelName] = true
	}
	for _, m := range s.catalog.Models() {
		if known[m.ModelName] {
			report.Skipped++
			continue
		}
		_, err := s.settings.CreateModelSettings(ctx, &domainllm.ModelSettingsRequest{
			ModelName:           &m.ModelName,
			MaxTokens:           &m.MaxTokens,
			Temperature:         &m.Temperature,
			AnalysisTemperature: &m.AnalysisTemperature,
			IsDefault:           &m.Default,
		})
		if err := report.count(err); err != nil {
			return report, err
		}
	}

	s.logger.Info("default settings seeded", "created", report.Created, "skipped", report.Skipped)
	return report, nil
}

type sampleDocument struct {
	slug    string
	title   string
	status  string
	tags    []string
	content string
}

var sampleDocuments = []sampleDocument{
	{
		slug:   "styremote-mars",
		title:  "Styremøte mars",
		status: "published",
		tags:   []string{"styre", "referat"},
		content: "# Styremøte mars\n\n" +
			"Styret gikk gjennom regnskapet for første kvartal. Driftsresultatet er bedre enn budsjettert, " +
			"hovedsakelig på grunn av lavere reisekostnader.\n\n" +
			"## Vedtak\n\n- Budsjettet for høstsemesteret godkjennes.\n- Daglig leder utarbeider en plan for rekruttering.\n",
	},
	{
		slug:   "kvartalsrapport-q1",
		title:  "Kvartalsrapport Q1",
		status: "published",
		tags:   []string{"rapport", "økonomi"},
		content: "<h1>Kvartalsrapport Q1</h1>" +
			"<p>Omsetningen økte med <strong>12 prosent</strong> sammenlignet med samme periode i fjor.</p>" +
			"<p>Kundetilfredsheten holder seg stabil, men ventetiden i kundeservice har økt.</p>",
	},
	{
		slug:   "strategi-utkast",
		title:  "Strategi 2026 (utkast)",
		status: "draft",
		tags:   []string{"strategi"},
		content: "# Strategi 2026\n\n" +
			"Vi skal styrke den digitale satsingen og bygge et tettere samarbeid med lokale partnere. " +
			"Utkastet diskuteres på neste styremøte.\n",
	},
}

// SampleDocuments creates a small set of reference documents for orgID so
// generation has something to sample from.
func (s *Seeder) SampleDocuments(ctx context.Context, orgID, userID string) (*Report, error) {
	if s.documents == nil {
		return nil, errors.New("seeder has no document service")
	}

	report := &Report{}
	for _, d := range sampleDocuments {
		_, err := s.documents.CreateDocument(ctx, &docsysSvc.CreateDocumentRequest{
			OrganizationID: orgID,
			UserID:         userID,
			Title:          d.title,
			Content:        d.content,
			Tags:           d.tags,
			Status:         d.status,
			Slug:           d.slug,
		})
		if err := report.count(err); err != nil {
			return report, err
		}
	}

	s.logger.Info("sample documents seeded", "org_id", orgID, "created", report.Created, "skipped", report.Skipped)
	return report, nil
}
