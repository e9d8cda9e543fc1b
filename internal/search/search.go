// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search wraps a web search backend and returns unified,
// deduplicated documents.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/toolscout/pkg/types"
)

// ErrEmptyQuery is returned for a blank query.
var ErrEmptyQuery = eris.New("search query is empty")

// Backend searches a single web search API.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.Document, error)
}

// Searcher deduplicates and caps the documents returned by its backend.
type Searcher struct {
	backend Backend
	logger  *zap.Logger
}

// New returns a Searcher over backend.
func New(backend Backend, logger *zap.Logger) *Searcher {
	return &Searcher{backend: backend, logger: logger}
}

// Search queries the backend for up to limit documents. Documents without a
// URL are dropped and documents that point at the same page are merged,
// keeping the first title and the longest body.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]types.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	docs, err := s.backend.Search(ctx, query, limit)
	if err != nil {
		return nil, eris.Wrapf(err, "%s search", s.backend.Name())
	}

	deduped, removed := deduplicate(docs)
	if limit > 0 && len(deduped) > limit {
		deduped = deduped[:limit]
	}
	s.logger.Debug("search complete",
		zap.String("backend", s.backend.Name()),
		zap.String("query", query),
		zap.Int("results", len(docs)),
		zap.Int("duplicates", removed),
		zap.Int("returned", len(deduped)))
	return deduped, nil
}

// deduplicate merges documents that share a normalized URL. It returns the
// merged list in first-seen order and the number of documents removed.
func deduplicate(docs []types.Document) ([]types.Document, int) {
	seen := make(map[string]int) // normalized URL → index in deduped
	deduped := make([]types.Document, 0, len(docs))
	removed := 0

	for _, d := range docs {
		key := normalizeURL(d.URL)
		if key == "" {
			removed++
			continue
		}
		if idx, ok := seen[key]; ok {
			mergeInto(&deduped[idx], d)
			removed++
			continue
		}
		seen[key] = len(deduped)
		deduped = append(deduped, d)
	}
	return deduped, removed
}

// mergeInto fills an empty title of dst from src and keeps the longer body.
func mergeInto(dst *types.Document, src types.Document) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if len(src.Body) > len(dst.Body) {
		dst.Body = src.Body
	}
}

// normalizeURL lowercases the host, strips "www.", the scheme, the fragment,
// and a trailing slash so that trivially different links compare equal.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.ToLower(raw), "/")
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.TrimRight(u.EscapedPath(), "/")
	key := host + path
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}

// FormatTable writes documents as a human-readable table to w.
func FormatTable(docs []types.Document, w io.Writer) {
	if len(docs) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-40s  %-50s  %s\n", "Rank", "Title", "URL", "Chars")
	fmt.Fprintln(w, strings.Repeat("-", 106))

	for i, d := range docs {
		fmt.Fprintf(w, "%-4d  %-40s  %-50s  %d\n",
			i+1, truncate(d.Title, 40), truncate(d.URL, 50), len(d.Body))
	}

	fmt.Fprintf(w, "\n%d results\n", len(docs))
}

// FormatJSON writes documents as indented JSON to w.
func FormatJSON(docs []types.Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
