// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/toolscout/pkg/types"
)

// anthropicAPIURL is the Messages API endpoint. Package-level var for test substitution.
var anthropicAPIURL = "https://api.anthropic.com/v1/messages"

const defaultAnthropicMaxTokens = 4096

// AnthropicBackend calls the Anthropic Messages API. Structured output is
// requested through the prompt and validated on return.
type AnthropicBackend struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	URL         string
	Client      *http.Client
}

// NewAnthropic returns a backend configured from cfg. A nil client uses
// http.DefaultClient.
func NewAnthropic(cfg types.TextGenConfig, client *http.Client) *AnthropicBackend {
	return &AnthropicBackend{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		URL:         cfg.BaseURL,
		Client:      client,
	}
}

// anthropicRequest is the request body for the Messages API.
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Temperature float32            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

// anthropicMessage is a single message in the conversation.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is the response body from the Messages API.
type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
}

// anthropicContent is a content block in the response.
type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Generate calls the Messages API once.
func (c *AnthropicBackend) Generate(ctx context.Context, req Request) (string, error) {
	prompt := req.Prompt
	if req.Schema != nil {
		schemaJSON, err := json.Marshal(req.Schema.JSONSchema())
		if err != nil {
			return "", eris.Wrap(err, "marshaling schema")
		}
		prompt += "\n\nRespond with a single JSON object that conforms to this JSON Schema. " +
			"Do not include any text outside the JSON object.\n" + string(schemaJSON)
	}

	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	reqBody := anthropicRequest{
		Model:       c.Model,
		MaxTokens:   maxTokens,
		System:      req.System,
		Temperature: c.Temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", eris.Wrap(err, "marshaling request")
	}

	url := c.URL
	if url == "" {
		url = anthropicAPIURL
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", eris.Wrap(err, "creating request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", eris.Wrap(err, "calling Anthropic API")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", eris.Errorf("Anthropic API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var aResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&aResp); err != nil {
		return "", eris.Wrap(err, "decoding Anthropic response")
	}

	var text strings.Builder
	for _, block := range aResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return finish(text.String(), req.Schema)
}
