// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline answers a developer-tooling query in three fixed stages:
// tool extraction, per-candidate research and recommendation. Each stage
// returns a partial update that the controller merges into one ResultRecord.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/toolscout/internal/metrics"
	"github.com/pdiddy/toolscout/internal/textgen"
	"github.com/pdiddy/toolscout/pkg/types"
)

// Stage names used in logs and metrics.
const (
	stageExtraction     = "extraction"
	stageResearch       = "research"
	stageRecommendation = "recommendation"
)

// ErrRecommendation marks a failed recommendation stage. It is the only
// stage failure that aborts a run.
var ErrRecommendation = eris.New("recommendation stage failed")

// stageError ties a stage sentinel to the error that caused it, so both
// match with errors.Is.
type stageError struct {
	sentinel error
	cause    error
}

func recommendationFailure(err error, msg string) error {
	return &stageError{sentinel: ErrRecommendation, cause: eris.Wrap(err, msg)}
}

func (e *stageError) Error() string { return e.sentinel.Error() + ": " + e.cause.Error() }

func (e *stageError) Is(target error) bool { return errors.Is(e.sentinel, target) }

func (e *stageError) Unwrap() error { return e.cause }

// Searcher returns documents matching a query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]types.Document, error)
}

// Scraper fetches the text of a page.
type Scraper interface {
	Scrape(ctx context.Context, url string) (types.Document, error)
}

// Pipeline owns the stage order and the collaborators shared by every stage.
// A Pipeline holds no per-run state; concurrent Run calls are safe when the
// collaborators are.
type Pipeline struct {
	cfg    types.PipelineConfig
	search Searcher
	scrape Scraper
	gen    textgen.Generator
	logger *zap.Logger
}

// New creates a pipeline. Zero-valued limits in cfg take their defaults.
func New(cfg types.PipelineConfig, search Searcher, scrape Scraper, gen textgen.Generator, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:    withDefaults(cfg),
		search: search,
		scrape: scrape,
		gen:    gen,
		logger: logger.Named("pipeline"),
	}
}

func withDefaults(cfg types.PipelineConfig) types.PipelineConfig {
	def := types.DefaultPipelineConfig()
	if strings.TrimSpace(cfg.ExtractionQualifier) == "" {
		cfg.ExtractionQualifier = def.ExtractionQualifier
	}
	if cfg.ExtractionDocLimit <= 0 {
		cfg.ExtractionDocLimit = def.ExtractionDocLimit
	}
	if cfg.ContextCharLimit <= 0 {
		cfg.ContextCharLimit = def.ContextCharLimit
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = def.MaxCandidates
	}
	if cfg.FallbackSearchLimit <= 0 {
		cfg.FallbackSearchLimit = def.FallbackSearchLimit
	}
	if cfg.CandidateSearchLimit <= 0 {
		cfg.CandidateSearchLimit = def.CandidateSearchLimit
	}
	if strings.TrimSpace(cfg.CandidateQuerySuffix) == "" {
		cfg.CandidateQuerySuffix = def.CandidateQuerySuffix
	}
	if cfg.AnalysisCharLimit <= 0 {
		cfg.AnalysisCharLimit = def.AnalysisCharLimit
	}
	if cfg.DescriptionCharLimit <= 0 {
		cfg.DescriptionCharLimit = def.DescriptionCharLimit
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = def.MaxWorkers
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = def.CallTimeout
	}
	return cfg
}

// Run executes extraction, research and recommendation in order for query.
// Degraded extraction or research results never fail the run. A failed
// recommendation, a cancelled context or a rejected update does; the record
// returned alongside the error holds whatever the earlier stages wrote.
func (p *Pipeline) Run(ctx context.Context, query string) (rec types.ResultRecord, err error) {
	rec = types.NewResultRecord(query)
	log := p.logger.With(zap.String("query", query))
	start := time.Now()
	defer func() {
		metrics.RecordRun(err)
		log.Debug("run finished", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
	}()

	tools := p.Extract(ctx, rec.Query)
	if err := ctx.Err(); err != nil {
		return rec, eris.Wrap(err, "run cancelled during extraction")
	}
	if err := rec.Apply(types.ExtractionUpdate{ExtractedTools: tools}); err != nil {
		return rec, err
	}

	companies := p.Research(ctx, rec.Query, rec.ExtractedTools)
	if err := ctx.Err(); err != nil {
		return rec, eris.Wrap(err, "run cancelled during research")
	}
	if err := rec.Apply(types.ResearchUpdate{Companies: companies}); err != nil {
		return rec, err
	}

	analysis, err := p.Recommend(ctx, rec.Query, rec.Companies)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return rec, eris.Wrap(ctxErr, "run cancelled during recommendation")
		}
		return rec, err
	}
	if err := rec.Apply(types.RecommendationUpdate{Analysis: analysis}); err != nil {
		return rec, err
	}
	return rec, nil
}

// callContext bounds one collaborator call.
func (p *Pipeline) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.cfg.CallTimeout)
}

// searchDocs runs one search. Failures are logged and reported as no documents.
func (p *Pipeline) searchDocs(ctx context.Context, log *zap.Logger, query string, limit int) []types.Document {
	cctx, cancel := p.callContext(ctx)
	defer cancel()

	docs, err := p.search.Search(cctx, query, limit)
	metrics.RecordCall("search", err, len(docs) == 0)
	if err != nil {
		log.Warn("search failed", zap.String("search_query", query), zap.Error(err))
		return nil
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs
}

// scrapePage fetches url. A failure or an empty page reports false.
func (p *Pipeline) scrapePage(ctx context.Context, log *zap.Logger, url string) (types.Document, bool) {
	if strings.TrimSpace(url) == "" {
		return types.Document{}, false
	}
	cctx, cancel := p.callContext(ctx)
	defer cancel()

	page, err := p.scrape.Scrape(cctx, url)
	metrics.RecordCall("scrape", err, !page.HasBody())
	if err != nil {
		log.Warn("scrape failed", zap.String("url", url), zap.Error(err))
		return types.Document{}, false
	}
	if !page.HasBody() {
		log.Warn("scraped page is empty", zap.String("url", url))
		return types.Document{}, false
	}
	return page, true
}

// generate runs one text generation call under the per-call timeout.
func (p *Pipeline) generate(ctx context.Context, req textgen.Request) (string, error) {
	cctx, cancel := p.callContext(ctx)
	defer cancel()

	text, err := p.gen.Generate(cctx, req)
	metrics.RecordCall("textgen", err, text == "")
	return text, err
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
