// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"text/template"

	"github.com/rotisserie/eris"
)

const extractionSystem = `You are a technical researcher. Extract specific tool, library, platform or service names from articles.
Focus on actual products or tools that developers can use, not general concepts or features.`

var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`Query: {{.Query}}
Article content:
{{.Content}}

Extract a list of specific tool, service or platform names mentioned in this content that are relevant to "{{.Query}}".

Rules:
- Only include actual product names, not generic terms
- Focus on tools developers can directly use or implement
- Include both open source and commercial options
- Limit to the 5 most relevant tools
- Return just the tool names, one per line, with no descriptions

Example format:
Supabase
PlanetScale
Railway
Appwrite
Nhost
`))

const analysisSystem = `You are analyzing developer tools and programming technologies.
Focus on extracting information relevant to programmers and software developers.
Pay special attention to programming languages, frameworks, APIs, SDKs and development workflows.`

var analysisPromptTmpl = template.Must(template.New("analysis").Parse(`Analyze this content from {{.Name}}'s website from a developer's perspective.

Website content:
{{.Content}}

Focus on:
- pricing_model: one of Free, Freemium, Paid, Enterprise or Unknown
- is_open_source: true if open source, false if proprietary, null if unclear
- tech_stack: programming languages, frameworks and databases it supports or uses
- description: one sentence on what this tool does for developers
- api_available: true if a REST API, GraphQL, SDK or programmatic access is mentioned, null if unclear
- language_support: programming languages explicitly supported (for example through SDKs)
- integration_capabilities: tools and platforms it integrates with (GitHub, VS Code, Docker, AWS and so on)
- competitors: other products it is compared with or positioned against
- developer_experience_rating: one of Poor, Good or Excellent, or an empty string if there is not enough information
`))

const recommendationSystem = `You are a senior software engineer providing quick, concise tech recommendations.
Keep responses brief and actionable: at most 3 to 4 sentences in total.`

var recommendationPromptTmpl = template.Must(template.New("recommendation").Parse(`Developer query: {{.Query}}
Tools and technologies analyzed:
{{.CompanyData}}
Provide a brief recommendation (3 to 4 sentences max) covering:
- Which tool is best and why
- Key cost or pricing consideration
- Main technical advantage

Be concise and direct. No long explanations. If no tools were analyzed, say that no data was found and suggest how to refine the query.
`))

func renderExtractionPrompt(query, content string) (string, error) {
	return render(extractionPromptTmpl, struct{ Query, Content string }{query, content})
}

func renderAnalysisPrompt(name, content string) (string, error) {
	return render(analysisPromptTmpl, struct{ Name, Content string }{name, content})
}

func renderRecommendationPrompt(query, companyData string) (string, error) {
	return render(recommendationPromptTmpl, struct{ Query, CompanyData string }{query, companyData})
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", eris.Wrapf(err, "rendering %s prompt", tmpl.Name())
	}
	return buf.String(), nil
}
