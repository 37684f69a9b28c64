package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/labelcheck/internal/core/errs"
	"github.com/agenthands/labelcheck/internal/core/model"
	"github.com/agenthands/labelcheck/internal/core/schema"
	"github.com/agenthands/labelcheck/internal/llm"
)

// Extractor is the vision LLM oracle.
type Extractor struct {
	LLM    llm.LLMClient
	Prompt string
}

// NewExtractor builds an oracle around llmClient. prompt is a format
// string taking the field list and then the application values.
func NewExtractor(llmClient llm.LLMClient, prompt string) *Extractor {
	return &Extractor{
		LLM:    llmClient,
		Prompt: prompt,
	}
}

// Extract asks the model to transcribe every schema field from the image.
func (e *Extractor) Extract(ctx context.Context, req Request) (model.Extraction, error) {
	const op = "extraction.llm"
	if req.Schema == nil {
		return nil, errs.Configuration(op, "no schema in request")
	}

	prompt := fmt.Sprintf(e.Prompt, fieldList(req.Schema), applicationValues(req.Schema, req.Application))

	response, err := e.LLM.Generate(ctx, prompt, llm.Image{Data: req.Image.Data, MIMEType: req.Image.MIMEType})
	if err != nil {
		return nil, Classify(ctx, op, fmt.Errorf("failed to generate extraction: %w", err), llm.IsTransient(err))
	}

	return DecodeExtraction(response, req.Schema)
}

func fieldList(s *schema.Schema) string {
	var sb strings.Builder
	for _, f := range s.Fields() {
		fmt.Fprintf(&sb, "- %s (%s)\n", f.ID, f.Name)
	}
	return sb.String()
}

func applicationValues(s *schema.Schema, app *model.ApplicationData) string {
	if app == nil {
		app = &model.ApplicationData{}
	}
	var sb strings.Builder
	for _, f := range s.Fields() {
		v := schema.Expected(f, app)
		if v == "" {
			v = "(not provided)"
		}
		fmt.Fprintf(&sb, "- %s: %s\n", f.Name, v)
	}
	return sb.String()
}
