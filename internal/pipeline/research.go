// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/toolscout/internal/metrics"
	"github.com/pdiddy/toolscout/pkg/types"
)

// maxFallbackNameRunes caps a name derived from a search document.
const maxFallbackNameRunes = 80

// Research builds one profile per candidate that has a search hit. Candidates
// are the first MaxCandidates extracted tools or, when tools is empty, names
// derived from a direct search on query. Candidates run concurrently; the
// result keeps candidate order with skipped candidates absent.
func (p *Pipeline) Research(ctx context.Context, query string, tools []string) []types.CompanyProfile {
	defer metrics.ObserveStage(stageResearch, time.Now())
	log := p.logger.With(zap.String("stage", stageResearch))

	names := p.candidates(ctx, log, query, tools)
	if len(names) == 0 {
		log.Warn("no candidates to research", zap.String("query", query))
		return []types.CompanyProfile{}
	}

	slots := make([]*types.CompanyProfile, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(len(names), p.cfg.MaxWorkers))
	for i, name := range names {
		g.Go(func() error {
			slots[i] = p.researchCandidate(gctx, log.With(zap.String("candidate", name)), name)
			return nil
		})
	}
	_ = g.Wait()

	profiles := make([]types.CompanyProfile, 0, len(names))
	for _, slot := range slots {
		if slot != nil {
			profiles = append(profiles, *slot)
		}
	}
	log.Info("research complete",
		zap.Int("candidates", len(names)),
		zap.Int("profiles", len(profiles)))
	return profiles
}

// candidates picks the names to research.
func (p *Pipeline) candidates(ctx context.Context, log *zap.Logger, query string, tools []string) []string {
	if len(tools) > 0 {
		n := min(len(tools), p.cfg.MaxCandidates)
		return append([]string{}, tools[:n]...)
	}

	log.Info("no extracted tools, falling back to direct search", zap.String("query", query))
	docs := p.searchDocs(ctx, log, query, p.cfg.FallbackSearchLimit)
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		names = append(names, fallbackName(doc))
	}
	return names
}

// researchCandidate runs search, scrape and analysis for one name. It
// returns nil when the candidate has no search hit or ctx is done.
func (p *Pipeline) researchCandidate(ctx context.Context, log *zap.Logger, name string) *types.CompanyProfile {
	if ctx.Err() != nil {
		return nil
	}

	docs := p.searchDocs(ctx, log, name+" "+p.cfg.CandidateQuerySuffix, p.cfg.CandidateSearchLimit)
	if len(docs) == 0 {
		log.Info("no search hit, skipping candidate")
		return nil
	}
	doc := docs[0]
	provisional := truncateRunes(strings.TrimSpace(doc.Body), p.cfg.DescriptionCharLimit)

	analysis, source := types.DefaultAnalysis(), metrics.SourceDefault
	if page, ok := p.scrapePage(ctx, log, doc.URL); ok {
		a, err := p.analyze(ctx, name, page.Body)
		if err != nil {
			log.Warn("analysis failed, using default analysis", zap.String("url", doc.URL), zap.Error(err))
		} else {
			analysis, source = a, metrics.SourceAnalysis
		}
	} else {
		log.Warn("no page content, using default analysis", zap.String("url", doc.URL))
	}

	if ctx.Err() != nil {
		return nil
	}
	profile := types.NewCompanyProfile(name, doc.URL, provisional, analysis)
	metrics.RecordProfile(source)
	return &profile
}

// fallbackName derives a short name from a search document: its title, else
// the first non-empty body line without Markdown markers, else UnknownName.
func fallbackName(doc types.Document) string {
	if title := strings.TrimSpace(doc.Title); title != "" {
		return strings.TrimSpace(truncateRunes(title, maxFallbackNameRunes))
	}
	for _, line := range strings.Split(doc.Body, "\n") {
		line = strings.Trim(line, "#>*_=`|- \t\r")
		if line == "" {
			continue
		}
		return strings.TrimSpace(truncateRunes(line, maxFallbackNameRunes))
	}
	return types.UnknownName
}
