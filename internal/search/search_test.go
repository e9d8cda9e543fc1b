package search

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/toolscout/pkg/types"
)

// --- mock backend ---

type mockBackend struct {
	docs      []types.Document
	err       error
	lastQuery string
	lastLimit int
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Search(_ context.Context, query string, limit int) ([]types.Document, error) {
	m.lastQuery = query
	m.lastLimit = limit
	return m.docs, m.err
}

func TestSearchEmptyQuery(t *testing.T) {
	s := New(&mockBackend{}, zap.NewNop())
	_, err := s.Search(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchBackendError(t *testing.T) {
	s := New(&mockBackend{err: errors.New("boom")}, zap.NewNop())
	_, err := s.Search(context.Background(), "vector database", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mock search")
	assert.Contains(t, err.Error(), "boom")
}

func TestSearchDeduplicatesAndCaps(t *testing.T) {
	b := &mockBackend{docs: []types.Document{
		{URL: "https://www.pinecone.io/", Body: "short"},
		{URL: "https://pinecone.io", Title: "Pinecone", Body: "a much longer body"},
		{URL: "", Title: "no url"},
		{URL: "https://weaviate.io/docs", Title: "Weaviate"},
		{URL: "https://qdrant.tech", Title: "Qdrant"},
	}}
	core, logs := observer.New(zap.DebugLevel)
	s := New(b, zap.New(core))

	docs, err := s.Search(context.Background(), " vector database ", 2)
	require.NoError(t, err)

	assert.Equal(t, "vector database", b.lastQuery)
	assert.Equal(t, 2, b.lastLimit)
	require.Len(t, docs, 2)
	assert.Equal(t, "https://www.pinecone.io/", docs[0].URL)
	assert.Equal(t, "Pinecone", docs[0].Title)
	assert.Equal(t, "a much longer body", docs[0].Body)
	assert.Equal(t, "https://weaviate.io/docs", docs[1].URL)

	entries := logs.FilterMessage("search complete").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 5, fields["results"])
	assert.EqualValues(t, 2, fields["duplicates"])
	assert.EqualValues(t, 2, fields["returned"])
}

func TestDeduplicate(t *testing.T) {
	docs := []types.Document{
		{URL: "https://example.com/a#section"},
		{URL: "http://EXAMPLE.com/a/"},
		{URL: "https://example.com/a?x=1"},
	}
	deduped, removed := deduplicate(docs)
	assert.Equal(t, 1, removed)
	assert.Len(t, deduped, 2)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.Example.com/path/", "example.com/path"},
		{"http://example.com/path#frag", "example.com/path"},
		{"https://example.com/search?q=go", "example.com/search?q=go"},
		{"", ""},
		{"not a url/", "not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeURL(tt.in))
		})
	}
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable([]types.Document{{URL: "https://pinecone.io", Title: "Pinecone", Body: "abc"}}, &buf)
	out := buf.String()
	assert.Contains(t, out, "Pinecone")
	assert.Contains(t, out, "1 results")

	buf.Reset()
	FormatTable(nil, &buf)
	assert.True(t, strings.HasPrefix(buf.String(), "No results found."))
}
