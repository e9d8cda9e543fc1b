// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textgen calls a generative text model. A request may carry a
// Schema, in which case the backend asks the model for JSON and rejects any
// response that does not validate against it.
package textgen

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/toolscout/pkg/types"
)

var (
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = eris.New("model returned an empty response")

	// ErrSchemaViolation is returned when structured output does not match the schema.
	ErrSchemaViolation = eris.New("response does not match schema")

	// ErrMissingAPIKey is returned by New when no API key is configured.
	ErrMissingAPIKey = eris.New("text generation API key is required")
)

// Request is one generation call.
type Request struct {
	// System is the system instruction. Optional.
	System string

	// Prompt is the user message.
	Prompt string

	// Schema, when set, requests JSON output validated against it.
	Schema *Schema
}

// Generator produces text for a request. With a schema the returned text is
// a JSON document that has already been validated.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// New builds the backend selected by cfg.Provider, wrapped with retries.
func New(ctx context.Context, cfg types.TextGenConfig, logger *zap.Logger) (Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		backend Generator
		err     error
	)
	switch cfg.Provider {
	case types.ProviderGemini, "":
		backend, err = NewGemini(ctx, cfg)
	case types.ProviderAnthropic:
		backend = NewAnthropic(cfg, nil)
	default:
		return nil, eris.Errorf("unknown text generation provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(backend, cfg.MaxRetries, logger), nil
}

// finish trims the model output and, when a schema is set, strips code
// fences and validates the JSON.
func finish(text string, schema *Schema) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	if schema == nil {
		return text, nil
	}
	text = stripCodeFence(text)
	if err := schema.Validate([]byte(text)); err != nil {
		return "", err
	}
	return text, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
