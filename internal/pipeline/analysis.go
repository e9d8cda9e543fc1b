// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/toolscout/internal/textgen"
	"github.com/pdiddy/toolscout/pkg/types"
)

func stringSet(desc string) *textgen.Schema {
	return &textgen.Schema{
		Kind:        textgen.KindArray,
		Description: desc,
		Items:       &textgen.Schema{Kind: textgen.KindString},
	}
}

// companyAnalysisSchema mirrors types.CompanyAnalysis.
var companyAnalysisSchema = &textgen.Schema{
	Kind: textgen.KindObject,
	Properties: map[string]*textgen.Schema{
		"pricing_model":               {Kind: textgen.KindString, Description: "Free, Freemium, Paid, Enterprise or Unknown"},
		"description":                 {Kind: textgen.KindString, Description: "What the tool does for developers"},
		"is_open_source":              {Kind: textgen.KindBoolean, Nullable: true},
		"api_available":               {Kind: textgen.KindBoolean, Nullable: true},
		"tech_stack":                  stringSet("Languages, frameworks and databases"),
		"language_support":            stringSet("Programming languages with SDK or client support"),
		"integration_capabilities":    stringSet("Tools and platforms it integrates with"),
		"competitors":                 stringSet("Competing products"),
		"developer_experience_rating": {Kind: textgen.KindString, Nullable: true, Description: "Poor, Good or Excellent"},
	},
	Required: []string{
		"pricing_model",
		"description",
		"is_open_source",
		"api_available",
		"tech_stack",
		"language_support",
		"integration_capabilities",
		"competitors",
	},
}

// analyze requests a structured CompanyAnalysis for name from scraped page
// content. The content is capped at AnalysisCharLimit runes.
func (p *Pipeline) analyze(ctx context.Context, name, content string) (types.CompanyAnalysis, error) {
	prompt, err := renderAnalysisPrompt(name, truncateRunes(content, p.cfg.AnalysisCharLimit))
	if err != nil {
		return types.CompanyAnalysis{}, err
	}
	text, err := p.generate(ctx, textgen.Request{
		System: analysisSystem,
		Prompt: prompt,
		Schema: companyAnalysisSchema,
	})
	if err != nil {
		return types.CompanyAnalysis{}, eris.Wrapf(err, "analyzing %s", name)
	}
	return parseAnalysis(text)
}

// parseAnalysis decodes a validated analysis document.
func parseAnalysis(text string) (types.CompanyAnalysis, error) {
	var a types.CompanyAnalysis
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return types.CompanyAnalysis{}, eris.Wrap(err, "decoding company analysis")
	}
	return a, nil
}
