// Package generation runs the AI document pipeline: select and sample
// reference documents, resolve a writing style, assemble the prompt, call the
// model and store the result as a new document.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"textvault/internal/domain"
	"textvault/internal/domain/models/docsystem"
	llmModels "textvault/internal/domain/models/llm"
	"textvault/internal/domain/repositories"
	docsysRepo "textvault/internal/domain/repositories/docsystem"
	llmRepo "textvault/internal/domain/repositories/llm"
	"textvault/internal/domain/services"
	docsysSvc "textvault/internal/domain/services/docsystem"
	domainllm "textvault/internal/domain/services/llm"
	"textvault/internal/metrics"
	"textvault/internal/prompts"
	"textvault/internal/service/docsystem/converter/sanitizer"
)

const (
	titleMaxTokens   = 30
	titleTemperature = 0.7
)

// Settings resolves the model configuration and length buckets.
type Settings interface {
	ActiveModelSettings(ctx context.Context) (*domainllm.EffectiveModelSettings, error)
	LengthSettings(ctx context.Context, lengthName, orgID string) (*domainllm.EffectiveLength, error)
}

// Deps are the collaborators of the Orchestrator.
type Deps struct {
	Documents   docsysRepo.DocumentRepository
	DocumentSvc docsysSvc.DocumentService
	TxManager   repositories.TransactionManager
	Quota       services.QuotaLedger
	Settings    Settings
	Styles      llmRepo.StyleConstraintRepository
	Analyzer    domainllm.StyleAnalyzer
	Templates   domainllm.TemplateResolver
	Catalog     *prompts.Catalog
	Model       domainllm.ModelClient
	Sampler     *Sampler
	Sanitizer   *sanitizer.HTMLSanitizer
	Logger      *slog.Logger
}

// Orchestrator implements domainllm.GenerationService.
type Orchestrator struct {
	docs      docsysRepo.DocumentRepository
	docSvc    docsysSvc.DocumentService
	txManager repositories.TransactionManager
	quota     services.QuotaLedger
	settings  Settings
	styles    llmRepo.StyleConstraintRepository
	analyzer  domainllm.StyleAnalyzer
	templates domainllm.TemplateResolver
	catalog   *prompts.Catalog
	model     domainllm.ModelClient
	sampler   *Sampler
	sanitizer *sanitizer.HTMLSanitizer
	logger    *slog.Logger
}

// NewOrchestrator creates the generation pipeline.
func NewOrchestrator(d Deps) *Orchestrator {
	return &Orchestrator{
		docs:      d.Documents,
		docSvc:    d.DocumentSvc,
		txManager: d.TxManager,
		quota:     d.Quota,
		settings:  d.Settings,
		styles:    d.Styles,
		analyzer:  d.Analyzer,
		templates: d.Templates,
		catalog:   d.Catalog,
		model:     d.Model,
		sampler:   d.Sampler,
		sanitizer: d.Sanitizer,
		logger:    d.Logger,
	}
}

var _ domainllm.GenerationService = (*Orchestrator)(nil)

// run tracks the state of one request through the stages.
type run struct {
	req        *domainllm.GenerateDocumentRequest
	settings   *domainllm.EffectiveModelSettings
	docs       []docsystem.Document
	sample     SampleResult
	constraint *llmModels.StyleConstraint
	styleGuide string
	styled     bool
	prompt     *assembledPrompt
	maxTokens  int
}

// Generate runs one generation request. Failures are wrapped in a
// domain.StageError naming the stage that failed.
func (o *Orchestrator) Generate(ctx context.Context, req *domainllm.GenerateDocumentRequest) (*domainllm.GenerateDocumentResult, error) {
	start := time.Now()
	applyDefaults(req)

	result, err := o.generate(ctx, req)

	outcome := outcomeOf(result, err)
	metrics.RecordGeneration(string(templateTypeFor(req)), outcome)
	if err != nil {
		o.logger.Warn("generation failed",
			"org_id", req.OrganizationID,
			"generation_type", req.GenerationType,
			"outcome", outcome,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil, err
	}
	o.logger.Info("generation finished",
		"org_id", req.OrganizationID,
		"generation_type", req.GenerationType,
		"document_type", req.DocumentType,
		"outcome", outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (o *Orchestrator) generate(ctx context.Context, req *domainllm.GenerateDocumentRequest) (*domainllm.GenerateDocumentResult, error) {
	r := &run{req: req}

	if err := o.validate(ctx, req); err != nil {
		return nil, stageErr(domainllm.StageValidating, err)
	}

	if err := o.selectDocuments(ctx, r); err != nil {
		return nil, stageErr(domainllm.StageSampling, err)
	}

	if req.AnalyzeStyleOnly {
		result, err := o.styleOnly(ctx, r)
		if err != nil {
			return nil, stageErr(domainllm.StageStyleResolving, err)
		}
		return &domainllm.GenerateDocumentResult{StyleOnly: result}, nil
	}

	if err := o.resolveStyle(ctx, r); err != nil {
		return nil, stageErr(domainllm.StageStyleResolving, err)
	}

	if err := o.buildPrompt(ctx, r); err != nil {
		return nil, stageErr(domainllm.StagePrompting, err)
	}

	if req.DebugMode {
		return &domainllm.GenerateDocumentResult{Debug: o.debugResult(r)}, nil
	}

	text, err := o.callModel(ctx, r)
	if err != nil {
		return nil, stageErr(domainllm.StageCallingModel, err)
	}

	result, err := o.persist(ctx, r, text)
	if err != nil {
		return nil, stageErr(domainllm.StagePersisting, err)
	}
	return result, nil
}

func stageErr(stage string, err error) error {
	return &domain.StageError{Stage: stage, Err: err}
}

func outcomeOf(result *domainllm.GenerateDocumentResult, err error) string {
	switch {
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, domain.ErrValidation):
		return "rejected"
	case err != nil:
		return "failed"
	case result.StyleOnly != nil:
		return "style_only"
	case result.Debug != nil:
		return "debug"
	}
	return "created"
}

func applyDefaults(req *domainllm.GenerateDocumentRequest) {
	if req.GenerationType == "" {
		req.GenerationType = domainllm.GenerationExisting
	}
	if req.DocumentType == "" {
		req.DocumentType = domainllm.DocumentTypeSummary
	}
	if req.DocumentLength == "" {
		req.DocumentLength = llmModels.LengthMedium
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		req.Title = defaultTitle(req.DocumentType)
	}
}

func defaultTitle(documentType string) string {
	if documentType == "" {
		return "AI Generated Document"
	}
	return "AI Generated " + strings.ToUpper(documentType[:1]) + documentType[1:]
}

// validate checks the request shape and, for billable requests, the quota.
func (o *Orchestrator) validate(ctx context.Context, req *domainllm.GenerateDocumentRequest) error {
	switch req.GenerationType {
	case domainllm.GenerationExisting:
		switch req.DocumentType {
		case domainllm.DocumentTypeSummary, domainllm.DocumentTypeAnalysis, domainllm.DocumentTypeComparison:
		default:
			return domain.NewValidationError("Invalid document type. Must be one of: summary, analysis, comparison.")
		}
	case domainllm.GenerationNew:
		if len(req.SelectedDocumentIDs) == 0 {
			return domain.NewValidationError("Please select at least one document to use as a style reference.")
		}
		if !req.AnalyzeStyleOnly && strings.TrimSpace(req.Concept) == "" {
			return domain.NewValidationError("concept is required for new content")
		}
	default:
		return domain.NewValidationError("Invalid generation type. Must be one of: existing, new.")
	}

	if req.Status != nil {
		status := docsystem.Status(*req.Status)
		if !status.Valid() || status == docsystem.StatusDeleted {
			return domain.NewValidationError("invalid status filter %q", *req.Status)
		}
	}

	if req.AnalyzeStyleOnly {
		return nil
	}

	if _, err := o.quota.ResetIfDue(ctx, req.OrganizationID); err != nil {
		return fmt.Errorf("reset quota: %w", err)
	}
	org, err := o.quota.Organization(ctx, req.OrganizationID)
	if err != nil {
		return err
	}
	if org.Remaining() <= 0 {
		return &domain.QuotaExceededError{
			Plan:     org.Plan,
			PlanName: org.PlanName(),
			Used:     org.AIGenerationsUsed,
			Limit:    org.TotalLimit(),
		}
	}
	return nil
}

// selectDocuments filters the organization's documents and samples them.
// An explicit id list replaces the category, tag and status filters.
func (o *Orchestrator) selectDocuments(ctx context.Context, r *run) error {
	req := r.req
	filter := &docsystem.DocumentFilter{
		OrganizationID: req.OrganizationID,
		LatestOnly:     !req.IncludeAllVersions,
	}
	if len(req.SelectedDocumentIDs) > 0 {
		filter.IDs = req.SelectedDocumentIDs
	} else {
		if req.CategoryFilter != nil && *req.CategoryFilter != "" {
			filter.CategoryID = req.CategoryFilter
		}
		filter.Tags = req.Tags
		if req.Status != nil {
			status := docsystem.Status(*req.Status)
			filter.Status = &status
		}
	}

	docs, _, err := o.docs.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("list reference documents: %w", err)
	}
	if len(docs) == 0 {
		return domain.NewValidationError("No documents found matching the specified filters.")
	}

	settings, err := o.settings.ActiveModelSettings(ctx)
	if err != nil {
		return fmt.Errorf("resolve model settings: %w", err)
	}

	r.docs = docs
	r.settings = settings
	r.sample = o.sampler.Sample(docs, settings.Model)

	o.logger.Debug("reference documents sampled",
		"org_id", req.OrganizationID,
		"matched", len(docs),
		"included", len(r.sample.Documents),
		"tokens", r.sample.Tokens,
	)
	return nil
}

// loadConstraint returns the requested style constraint when it exists and is
// active. Anything else is ignored and the style is derived again.
func (o *Orchestrator) loadConstraint(ctx context.Context, r *run) error {
	id := r.req.StyleConstraintID
	if id == nil || *id == "" {
		return nil
	}
	sc, err := o.styles.GetByID(ctx, *id, r.req.OrganizationID)
	if errors.Is(err, domain.ErrNotFound) {
		o.logger.Info("style constraint not found, ignoring", "style_constraint_id", *id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load style constraint: %w", err)
	}
	if !sc.IsActive {
		o.logger.Info("style constraint inactive, ignoring", "style_constraint_id", *id)
		return nil
	}
	r.constraint = sc
	r.styleGuide = sc.Constraints.FullStyleGuide
	r.styled = r.styleGuide != ""
	return nil
}

// analyzeStyle reuses or creates the constraint for the selected documents.
// The reference set is the documents that resolved in the organization, not
// the raw request ids. Without a selection the sample is analyzed and nothing
// is stored.
func (o *Orchestrator) analyzeStyle(ctx context.Context, r *run) (*llmModels.StyleConstraint, *domainllm.StyleAnalysis, bool, error) {
	if len(r.req.SelectedDocumentIDs) == 0 {
		analysis, err := o.analyzer.Analyze(ctx, r.sample.Text, r.req.OrganizationID)
		return nil, analysis, false, err
	}

	sc, reused, err := o.analyzer.FindOrCreate(ctx, &domainllm.FindOrCreateStyleRequest{
		DocumentIDs:    documentIDs(r.docs),
		OrganizationID: r.req.OrganizationID,
		UserID:         r.req.UserID,
		Username:       r.req.Username,
		CombinedText:   r.sample.Text,
	})
	if err != nil {
		return nil, nil, false, err
	}
	return sc, &domainllm.StyleAnalysis{
		StyleGuide:     sc.Constraints.FullStyleGuide,
		CondensedStyle: sc.Constraints.CondensedStyle,
	}, reused, nil
}

func (o *Orchestrator) styleOnly(ctx context.Context, r *run) (*domainllm.StyleOnlyResult, error) {
	if err := o.loadConstraint(ctx, r); err != nil {
		return nil, err
	}

	result := &domainllm.StyleOnlyResult{
		DocumentCount:         len(r.docs),
		DocumentTitles:        titles(r.docs),
		CombinedContentLength: utf8.RuneCountInString(r.sample.Text),
	}

	if r.constraint != nil {
		result.Message = "Using existing style constraint"
		result.StyleGuide = r.constraint.Constraints.FullStyleGuide
		result.CondensedStyle = r.constraint.Constraints.CondensedStyle
		result.StyleConstraintID = r.constraint.ID
		result.Reused = true
		return result, nil
	}

	sc, analysis, reused, err := o.analyzeStyle(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze document style: %w", err)
	}

	result.StyleGuide = analysis.StyleGuide
	result.CondensedStyle = analysis.CondensedStyle
	result.Reused = reused
	if sc != nil {
		result.StyleConstraintID = sc.ID
	}
	if reused {
		result.Message = "Found existing style constraint for these documents"
	} else {
		result.Message = "Style analysis complete"
	}
	return result, nil
}

// resolveStyle picks the style guide for a full generation. In new mode a
// missing guide is derived from the references; a failed analysis falls back
// to a placeholder and the unstyled template.
func (o *Orchestrator) resolveStyle(ctx context.Context, r *run) error {
	if err := o.loadConstraint(ctx, r); err != nil {
		return err
	}
	if r.constraint != nil || r.req.GenerationType != domainllm.GenerationNew {
		return nil
	}

	if guide := strings.TrimSpace(r.req.StyleGuide); guide != "" {
		r.styleGuide = guide
		r.styled = true
		return nil
	}

	sc, analysis, _, err := o.analyzeStyle(ctx, r)
	if err != nil {
		o.logger.Warn("style analysis failed, generating without a style guide",
			"org_id", r.req.OrganizationID,
			"error", err,
		)
		r.styleGuide = styleFailedPlaceholder
		return nil
	}
	r.constraint = sc
	r.styleGuide = analysis.StyleGuide
	r.styled = true
	return nil
}

func (o *Orchestrator) buildPrompt(ctx context.Context, r *run) error {
	length, err := o.settings.LengthSettings(ctx, r.req.DocumentLength, r.req.OrganizationID)
	if err != nil {
		return fmt.Errorf("resolve length: %w", err)
	}

	prompt, err := o.assemblePrompt(ctx, &promptInput{
		req:        r.req,
		length:     length,
		sample:     r.sample.Text,
		styleGuide: r.styleGuide,
		styled:     r.styled,
	})
	if err != nil {
		return err
	}

	r.prompt = prompt
	r.maxTokens = r.settings.MaxTokens
	if r.maxTokens <= 0 {
		r.maxTokens = length.TargetTokens
	}
	return nil
}

func (o *Orchestrator) debugResult(r *run) *domainllm.DebugResult {
	res := &domainllm.DebugResult{
		Debug:                 true,
		SystemMessage:         r.prompt.system,
		Prompt:                r.prompt.prompt,
		Model:                 r.settings.Model,
		Temperature:           r.settings.Temperature,
		MaxTokens:             r.maxTokens,
		TemplateType:          string(r.prompt.templateType),
		DocumentCount:         len(r.docs),
		DocumentTitles:        titles(r.docs),
		CombinedContentLength: utf8.RuneCountInString(r.sample.Text),
		SampleTokens:          r.sample.Tokens,
	}
	if r.constraint != nil {
		id := r.constraint.ID
		res.StyleConstraintID = &id
	}
	return res
}

func (o *Orchestrator) callModel(ctx context.Context, r *run) (string, error) {
	temperature := r.settings.Temperature
	resp, err := o.model.Complete(ctx, domainllm.PurposeGeneration, &domainllm.GenerateRequest{
		Model: r.settings.Model,
		Messages: []domainllm.Message{
			{Role: domainllm.RoleSystem, Content: r.prompt.system},
			{Role: domainllm.RoleUser, Content: r.prompt.prompt},
		},
		MaxTokens:   r.maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", &domain.ProviderError{Provider: r.settings.Model, Err: errors.New("empty response")}
	}
	return resp.Text, nil
}

// persist stores the generated document, then counts the generation. A
// failed count is logged and does not undo the document.
func (o *Orchestrator) persist(ctx context.Context, r *run, text string) (*domainllm.GenerateDocumentResult, error) {
	markup := o.sanitizer.Sanitize(FormatForDisplay(text))
	title := o.resolveTitle(ctx, r, markup)

	var category *string
	if c := r.req.DocumentCategory; c != nil && strings.TrimSpace(*c) != "" {
		category = c
	}

	var doc *docsystem.Document
	err := o.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = o.docSvc.CreateDocument(txCtx, &docsysSvc.CreateDocumentRequest{
			OrganizationID: r.req.OrganizationID,
			UserID:         r.req.UserID,
			Title:          title,
			Content:        markup,
			CategoryID:     category,
			Tags:           r.req.Tags,
			Status:         string(docsystem.StatusDraft),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if _, err := o.quota.Consume(ctx, r.req.OrganizationID); err != nil {
		o.logger.Error("failed to count ai generation",
			"org_id", r.req.OrganizationID,
			"document_id", doc.ID,
			"error", err,
		)
	}

	usage, err := o.quota.Usage(ctx, r.req.OrganizationID)
	if err != nil {
		o.logger.Warn("failed to read quota after generation", "org_id", r.req.OrganizationID, "error", err)
	}

	return &domainllm.GenerateDocumentResult{Document: doc, Quota: usage}, nil
}

// resolveTitle keeps a caller-chosen title. Default titles are replaced by
// the first <h1> of the output, else by a model-suggested title.
func (o *Orchestrator) resolveTitle(ctx context.Context, r *run, markup string) string {
	if !strings.HasPrefix(r.req.Title, "AI Generated") {
		return limitTitle(r.req.Title)
	}
	if t := ExtractH1Title(markup); t != "" {
		return limitTitle(t)
	}
	t, err := o.suggestTitle(ctx, r, markup)
	if err != nil {
		o.logger.Warn("title generation failed, keeping default title",
			"org_id", r.req.OrganizationID,
			"error", err,
		)
		return limitTitle(r.req.Title)
	}
	return limitTitle(t)
}

func (o *Orchestrator) suggestTitle(ctx context.Context, r *run, markup string) (string, error) {
	prompt, err := o.templates.Render(ctx, llmModels.TemplateTitle, r.req.OrganizationID, map[string]string{
		"content": TitleSource(markup),
	})
	if err != nil {
		return "", err
	}

	temperature := titleTemperature
	resp, err := o.model.Complete(ctx, domainllm.PurposeTitle, &domainllm.GenerateRequest{
		Model: r.settings.Model,
		Messages: []domainllm.Message{
			{Role: domainllm.RoleSystem, Content: o.catalog.SystemPrompt(prompts.SystemTitle)},
			{Role: domainllm.RoleUser, Content: prompt},
		},
		MaxTokens:   titleMaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}
	title := CleanTitle(resp.Text)
	if title == "" {
		return "", errors.New("empty title")
	}
	return title, nil
}

func documentIDs(docs []docsystem.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func titles(docs []docsystem.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Title
	}
	return out
}
