package generation

import (
	"context"
	"strings"

	llmModels "textvault/internal/domain/models/llm"
	domainllm "textvault/internal/domain/services/llm"
	"textvault/internal/prompts"
	"textvault/internal/service/templates"
)

// styleFailedPlaceholder stands in for the style guide when analysis fails.
const styleFailedPlaceholder = "Style guide could not be generated. Please try again."

// promptInput is everything prompt assembly depends on.
type promptInput struct {
	req        *domainllm.GenerateDocumentRequest
	length     *domainllm.EffectiveLength
	sample     string
	styleGuide string
	styled     bool // styleGuide came from a real analysis or constraint
}

type assembledPrompt struct {
	templateType llmModels.TemplateType
	system       string
	prompt       string
}

func templateTypeFor(req *domainllm.GenerateDocumentRequest) llmModels.TemplateType {
	if req.GenerationType == domainllm.GenerationNew {
		return llmModels.TemplateNewContent
	}
	return llmModels.TemplateType(req.DocumentType)
}

func (o *Orchestrator) assemblePrompt(ctx context.Context, in *promptInput) (*assembledPrompt, error) {
	orgID := in.req.OrganizationID
	templateType := templateTypeFor(in.req)

	fallbackKey := string(templateType)
	if templateType == llmModels.TemplateNewContent && in.styled {
		fallbackKey = prompts.VariantNewContentStyled
	}
	body, err := o.templates.ResolveVariant(ctx, templateType, orgID, fallbackKey)
	if err != nil {
		return nil, err
	}
	body = o.applyLengthConstraint(body, templateType, in.req.DocumentLength)

	formatting, err := o.templates.Resolve(ctx, llmModels.TemplateFormatting, orgID)
	if err != nil {
		return nil, err
	}

	vars := map[string]string{
		"length_description":      in.length.Description,
		"formatting_instructions": formatting,
		"combined_content":        in.sample,
		"document_type":           in.req.DocumentType,
	}
	if in.styleGuide != "" {
		vars["style_guide"] = in.styleGuide
	}
	if in.req.GenerationType == domainllm.GenerationNew {
		vars["concept"] = in.req.Concept
	}

	system, err := o.templates.Resolve(ctx, llmModels.TemplateSystemMessage, orgID)
	if err != nil {
		return nil, err
	}

	return &assembledPrompt{
		templateType: templateType,
		system:       system,
		prompt:       templates.SafeFormat(body, vars),
	}, nil
}

// applyLengthConstraint swaps the generic length requirement line for the
// bucket's strict constraint (micro and very_short).
func (o *Orchestrator) applyLengthConstraint(body string, templateType llmModels.TemplateType, lengthName string) string {
	bucket, ok := o.catalog.Length(lengthName)
	if !ok || bucket.Constraint == "" {
		return body
	}
	constraint := "Length: " + bucket.Constraint
	body = strings.ReplaceAll(body, "Length: Create a {length_description} document", constraint)
	body = strings.ReplaceAll(body, "Length: Ensure your "+string(templateType)+" is {length_description}", constraint)
	return body
}
