// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdiddy/toolscout/internal/firecrawl"
	"github.com/pdiddy/toolscout/internal/pipeline"
	"github.com/pdiddy/toolscout/internal/scrape"
	"github.com/pdiddy/toolscout/internal/search"
	"github.com/pdiddy/toolscout/internal/textgen"
	"github.com/pdiddy/toolscout/pkg/types"
)

// newSearcher builds the search facade over Firecrawl.
func newSearcher(cfg types.Config, logger *zap.Logger) (*search.Searcher, *firecrawl.Client, error) {
	fc, err := firecrawl.New(cfg.Firecrawl, logger)
	if err != nil {
		return nil, nil, err
	}
	return search.New(fc, logger), fc, nil
}

// newPipeline wires the collaborators named in cfg into a pipeline.
func newPipeline(ctx context.Context, cfg types.Config, logger *zap.Logger) (*pipeline.Pipeline, error) {
	searcher, fc, err := newSearcher(cfg, logger)
	if err != nil {
		return nil, err
	}

	fetchers := []scrape.Fetcher{fc}
	if cfg.Firecrawl.DirectFallback {
		fetchers = append(fetchers, scrape.NewHTTPFetcher(cfg.Firecrawl.HTTPConfig, logger))
	}

	gen, err := textgen.New(ctx, cfg.TextGen, logger)
	if err != nil {
		return nil, err
	}

	return pipeline.New(cfg.Pipeline, searcher, scrape.NewChain(logger, fetchers...), gen, logger), nil
}
