// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package firecrawl is a client for the Firecrawl v1 search and scrape API.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/toolscout/internal/httputil"
	"github.com/pdiddy/toolscout/pkg/types"
)

const defaultBaseURL = "https://api.firecrawl.dev"

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = eris.New("firecrawl API key is required")

// Client calls the Firecrawl API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	maxRetries int
	http       *http.Client
	logger     *zap.Logger
}

// New returns a client configured from cfg.
func New(cfg types.FirecrawlConfig, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		http:       &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("firecrawl"),
	}, nil
}

type scrapeOptions struct {
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type searchRequest struct {
	Query         string        `json:"query"`
	Limit         int           `json:"limit"`
	ScrapeOptions scrapeOptions `json:"scrapeOptions"`
}

type searchResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Data    []searchResult `json:"data"`
}

type searchResult struct {
	URL         string         `json:"url"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Markdown    string         `json:"markdown"`
	Metadata    resultMetadata `json:"metadata"`
}

type scrapeRequest struct {
	URL string `json:"url"`
	scrapeOptions
}

type scrapeResponse struct {
	Success bool       `json:"success"`
	Error   string     `json:"error"`
	Data    scrapeData `json:"data"`
}

type scrapeData struct {
	Markdown string         `json:"markdown"`
	Metadata resultMetadata `json:"metadata"`
}

type resultMetadata struct {
	Title     string `json:"title"`
	SourceURL string `json:"sourceURL"`
}

// Search runs a web search and returns up to limit documents with their
// page content as Markdown. A result without Markdown falls back to the
// search snippet.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]types.Document, error) {
	if limit <= 0 {
		limit = 5
	}
	req := searchRequest{
		Query: query,
		Limit: limit,
		ScrapeOptions: scrapeOptions{
			Formats:         []string{"markdown"},
			OnlyMainContent: true,
		},
	}

	var resp searchResponse
	if err := c.post(ctx, "/v1/search", req, &resp); err != nil {
		return nil, eris.Wrapf(err, "searching %q", query)
	}
	if !resp.Success {
		return nil, eris.Errorf("firecrawl search %q failed: %s", query, resp.Error)
	}

	docs := make([]types.Document, 0, len(resp.Data))
	for _, r := range resp.Data {
		url := r.URL
		if url == "" {
			url = r.Metadata.SourceURL
		}
		title := r.Title
		if title == "" {
			title = r.Metadata.Title
		}
		body := r.Markdown
		if strings.TrimSpace(body) == "" {
			body = r.Description
		}
		docs = append(docs, types.Document{URL: url, Title: title, Body: body})
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}
	c.logger.Debug("search complete", zap.String("query", query), zap.Int("results", len(docs)))
	return docs, nil
}

// Scrape fetches a single page as Markdown.
func (c *Client) Scrape(ctx context.Context, url string) (types.Document, error) {
	req := scrapeRequest{
		URL: url,
		scrapeOptions: scrapeOptions{
			Formats:         []string{"markdown"},
			OnlyMainContent: true,
		},
	}

	var resp scrapeResponse
	if err := c.post(ctx, "/v1/scrape", req, &resp); err != nil {
		return types.Document{}, eris.Wrapf(err, "scraping %s", url)
	}
	if !resp.Success {
		return types.Document{}, eris.Errorf("firecrawl scrape %s failed: %s", url, resp.Error)
	}
	return types.Document{
		URL:   url,
		Title: resp.Data.Metadata.Title,
		Body:  resp.Data.Markdown,
	}, nil
}

// post sends a JSON request to path and decodes the JSON response into out.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return eris.Wrap(err, "marshaling request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries, c.logger)
	if err != nil {
		return eris.Wrap(err, "calling Firecrawl API")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return eris.Errorf("Firecrawl API returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "decoding Firecrawl response")
	}
	return nil
}

// Name returns the backend identifier.
func (c *Client) Name() string { return "firecrawl" }
