// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textgen

import (
	"context"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/pdiddy/toolscout/pkg/types"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiBackend generates text with Google's Gemini API.
type GeminiBackend struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGemini creates a Gemini backend from cfg.
func NewGemini(ctx context.Context, cfg types.TextGenConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "creating GenAI client")
	}

	return &GeminiBackend{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

// Generate sends one request. A schema switches the response to JSON mode
// with the schema enforced by the API and validated again locally.
func (g *GeminiBackend) Generate(ctx context.Context, req Request) (string, error) {
	conf := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if req.System != "" {
		conf.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		conf.ResponseMIMEType = "application/json"
		conf.ResponseSchema = req.Schema.genaiSchema()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), conf)
	if err != nil {
		return "", eris.Wrap(err, "GenAI generate failed")
	}
	return finish(resp.Text(), req.Schema)
}

// Name returns the backend name.
func (g *GeminiBackend) Name() string {
	return "gemini:" + g.model
}
