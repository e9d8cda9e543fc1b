// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/toolscout/internal/httputil"
	"github.com/pdiddy/toolscout/pkg/types"
)

// maxPageBytes bounds how much of a page the HTTP fetcher reads.
const maxPageBytes = 4 << 20

// noiseSelectors are removed before extracting page text.
var noiseSelectors = "script, style, noscript, svg, nav, footer, header, form, iframe"

// HTTPFetcher downloads a page directly and extracts its visible text.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewHTTPFetcher returns a direct fetcher using cfg's timeout and user agent.
func NewHTTPFetcher(cfg types.HTTPConfig, logger *zap.Logger) *HTTPFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// Name returns the fetcher identifier.
func (f *HTTPFetcher) Name() string { return "http" }

// Scrape fetches url and returns its title and body text.
func (f *HTTPFetcher) Scrape(ctx context.Context, url string) (types.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.Document{}, eris.Wrap(err, "creating request")
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := httputil.DoWithRetry(ctx, f.client, req, 1, f.logger)
	if err != nil {
		return types.Document{}, eris.Wrap(err, "HTTP request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Document{}, eris.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	title, text, err := extractText(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return types.Document{}, err
	}
	return types.Document{URL: url, Title: title, Body: text}, nil
}

// extractText parses HTML and returns the page title and the visible text of
// the main content, one block per line.
func extractText(r io.Reader) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", eris.Wrap(err, "parsing HTML")
	}

	title = collapseSpace(doc.Find("title").First().Text())
	doc.Find(noiseSelectors).Remove()

	root := doc.Find("main, article").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var lines []string
	root.Find("h1, h2, h3, h4, p, li, td, pre").Each(func(_ int, s *goquery.Selection) {
		if line := collapseSpace(s.Text()); line != "" {
			lines = append(lines, line)
		}
	})
	if len(lines) == 0 {
		if line := collapseSpace(root.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return title, strings.Join(lines, "\n"), nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
