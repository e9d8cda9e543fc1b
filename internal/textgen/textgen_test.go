// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/toolscout/pkg/types"
)

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

var profileSchema = &Schema{
	Kind: KindObject,
	Properties: map[string]*Schema{
		"name":        {Kind: KindString},
		"open_source": {Kind: KindBoolean, Nullable: true},
		"stars":       {Kind: KindInteger},
		"tags":        {Kind: KindArray, Items: &Schema{Kind: KindString}},
	},
	Required: []string{"name", "open_source"},
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"valid", `{"name":"Pinecone","open_source":false,"stars":10,"tags":["db"]}`, ""},
		{"nullable null", `{"name":"Pinecone","open_source":null}`, ""},
		{"extra property allowed", `{"name":"x","open_source":true,"extra":1}`, ""},
		{"missing required", `{"name":"Pinecone"}`, "open_source"},
		{"wrong type", `{"name":5,"open_source":true}`, "/name"},
		{"non-nullable null", `{"name":null,"open_source":true}`, "/name"},
		{"bad array item", `{"name":"x","open_source":true,"tags":["a",2]}`, "/tags/1"},
		{"non-integer", `{"name":"x","open_source":true,"stars":1.5}`, "/stars"},
		{"not an object", `["x"]`, "object"},
		{"invalid json", `{"name":`, "invalid JSON"},
		{"trailing data", `{"name":"x","open_source":true} {}`, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := profileSchema.Validate([]byte(tt.input))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSchemaViolation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSchemaJSONSchema(t *testing.T) {
	js := profileSchema.JSONSchema()
	assert.Equal(t, "object", js["type"])
	props := js["properties"].(map[string]any)
	assert.Equal(t, []string{"boolean", "null"}, props["open_source"].(map[string]any)["type"])
	assert.Equal(t, map[string]any{"type": "string"}, props["tags"].(map[string]any)["items"])
	assert.Equal(t, []string{"name", "open_source"}, js["required"])
}

func TestSchemaGenAI(t *testing.T) {
	gs := profileSchema.genaiSchema()
	assert.Equal(t, []string{"name", "open_source", "stars", "tags"}, gs.PropertyOrdering)
	require.NotNil(t, gs.Properties["open_source"].Nullable)
	assert.True(t, *gs.Properties["open_source"].Nullable)
	assert.NotNil(t, gs.Properties["tags"].Items)
}

func TestFinish(t *testing.T) {
	_, err := finish("  \n", nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)

	text, err := finish("  Pinecone\nWeaviate \n", nil)
	require.NoError(t, err)
	assert.Equal(t, "Pinecone\nWeaviate", text)

	text, err = finish("```json\n{\"name\":\"x\",\"open_source\":true}\n```", profileSchema)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"x","open_source":true}`, text)

	_, err = finish("not json", profileSchema)
	assert.ErrorIs(t, err, ErrSchemaViolation)
}

// --- retry ---

type failNTimes struct {
	failures int
	calls    int
	text     string
}

func (f *failNTimes) Generate(_ context.Context, _ Request) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("transient")
	}
	return f.text, nil
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		retries   int
		wantErr   bool
		wantCalls int
	}{
		{"succeeds first try", 0, 2, false, 1},
		{"succeeds after retries", 2, 2, false, 3},
		{"exhausts retries", 5, 2, true, 3},
		{"zero retries", 1, 0, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &failNTimes{failures: tt.failures, text: "ok"}
			got, err := WithRetry(f, tt.retries, nil).Generate(context.Background(), Request{Prompt: "p"})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "ok", got)
			}
			assert.Equal(t, tt.wantCalls, f.calls)
		})
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &failNTimes{failures: 10}

	_, err := WithRetry(f, 3, nil).Generate(ctx, Request{Prompt: "p"})
	assert.Error(t, err)
	assert.Equal(t, 1, f.calls)
}

// --- anthropic ---

func TestAnthropicGenerate(t *testing.T) {
	var got anthropicRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"content":[{"type":"text","text":"{\"name\":\"Pinecone\","},{"type":"text","text":"\"open_source\":false}"}]}`))
	}))
	defer ts.Close()

	b := NewAnthropic(types.TextGenConfig{
		AIConfig: types.AIConfig{Model: "claude-test", APIKey: "ak-test"},
		BaseURL:  ts.URL,
	}, ts.Client())

	text, err := b.Generate(context.Background(), Request{System: "sys", Prompt: "analyze", Schema: profileSchema})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Pinecone","open_source":false}`, text)

	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, defaultAnthropicMaxTokens, got.MaxTokens)
	assert.Equal(t, "sys", got.System)
	require.Len(t, got.Messages, 1)
	assert.True(t, strings.HasPrefix(got.Messages[0].Content, "analyze"))
	assert.Contains(t, got.Messages[0].Content, `"required":["name","open_source"]`)
}

func TestAnthropicHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"bad key"}`)
	}))
	defer ts.Close()

	b := NewAnthropic(types.TextGenConfig{AIConfig: types.AIConfig{APIKey: "x"}, BaseURL: ts.URL}, nil)
	_, err := b.Generate(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

// --- gemini ---

func TestGeminiGenerate(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-test:generateContent")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Pinecone\nWeaviate"}]},"finishReason":"STOP"}]}`)
	}))
	defer ts.Close()

	g, err := NewGemini(context.Background(), types.TextGenConfig{
		AIConfig: types.AIConfig{Model: "gemini-test", APIKey: "g-test"},
		BaseURL:  ts.URL,
	})
	require.NoError(t, err)

	text, err := g.Generate(context.Background(), Request{System: "extract tools", Prompt: "vector database"})
	require.NoError(t, err)
	assert.Equal(t, "Pinecone\nWeaviate", text)
	assert.Contains(t, body, "systemInstruction")
	assert.Equal(t, "gemini:gemini-test", g.Name())
}

func TestNew(t *testing.T) {
	_, err := New(context.Background(), types.TextGenConfig{}, nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(context.Background(), types.TextGenConfig{AIConfig: types.AIConfig{APIKey: "k"}, Provider: "llama"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown text generation provider")

	g, err := New(context.Background(), types.TextGenConfig{AIConfig: types.AIConfig{APIKey: "k", MaxRetries: 2}, Provider: types.ProviderAnthropic}, nil)
	require.NoError(t, err)
	assert.IsType(t, &retrying{}, g)
}
