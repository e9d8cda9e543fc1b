// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape fetches page text through an ordered chain of fetchers,
// falling through to the next fetcher when one fails or returns nothing.
package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/toolscout/pkg/types"
)

// ErrEmptyPage is returned when a fetcher succeeds but the page has no text.
var ErrEmptyPage = eris.New("page has no text content")

// Fetcher retrieves the text of one page.
type Fetcher interface {
	Name() string
	Scrape(ctx context.Context, url string) (types.Document, error)
}

// Chain tries each fetcher in order and returns the first non-empty page.
type Chain struct {
	fetchers []Fetcher
	logger   *zap.Logger
}

// NewChain returns a chain over fetchers.
func NewChain(logger *zap.Logger, fetchers ...Fetcher) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{fetchers: fetchers, logger: logger.Named("scrape")}
}

// Scrape returns the page at url from the first fetcher that produces text.
// The returned error joins every fetcher's failure.
func (c *Chain) Scrape(ctx context.Context, url string) (types.Document, error) {
	if len(c.fetchers) == 0 {
		return types.Document{}, eris.New("no fetchers configured")
	}

	var failures []string
	for _, f := range c.fetchers {
		if err := ctx.Err(); err != nil {
			return types.Document{}, err
		}

		doc, err := f.Scrape(ctx, url)
		if err == nil && !doc.HasBody() {
			err = ErrEmptyPage
		}
		if err != nil {
			c.logger.Debug("fetcher failed",
				zap.String("fetcher", f.Name()),
				zap.String("url", url),
				zap.Error(err))
			failures = append(failures, f.Name()+": "+err.Error())
			continue
		}
		if doc.URL == "" {
			doc.URL = url
		}
		return doc, nil
	}
	return types.Document{}, eris.Errorf("scraping %s: %s", url, strings.Join(failures, "; "))
}
