// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/toolscout/internal/metrics"
	"github.com/pdiddy/toolscout/internal/textgen"
)

// listMarker matches a leading bullet or ordinal such as "- ", "* " or "2. ",
// including a marker that stands alone on its line.
var listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])(?:\s+|$)`)

// Extract turns query into candidate tool names. It searches for comparison
// articles, scrapes the ones with content and asks the generator for one
// name per line. No documents or a failed generation yields an empty list.
func (p *Pipeline) Extract(ctx context.Context, query string) []string {
	defer metrics.ObserveStage(stageExtraction, time.Now())
	log := p.logger.With(zap.String("stage", stageExtraction))

	docs := p.searchDocs(ctx, log, query+" "+p.cfg.ExtractionQualifier, p.cfg.ExtractionDocLimit)
	if len(docs) == 0 {
		log.Warn("no documents found for extraction", zap.String("query", query))
		return []string{}
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if ctx.Err() != nil {
			return []string{}
		}
		if !doc.HasBody() {
			continue
		}
		page, ok := p.scrapePage(ctx, log, doc.URL)
		if !ok {
			continue
		}
		parts = append(parts, truncateRunes(page.Body, p.cfg.ContextCharLimit))
	}
	log.Debug("extraction context assembled",
		zap.Int("documents", len(docs)),
		zap.Int("scraped", len(parts)))

	prompt, err := renderExtractionPrompt(query, strings.Join(parts, "\n\n"))
	if err != nil {
		log.Warn("building extraction prompt", zap.Error(err))
		return []string{}
	}

	text, err := p.generate(ctx, textgen.Request{System: extractionSystem, Prompt: prompt})
	if err != nil {
		log.Warn("tool extraction failed", zap.Error(err))
		return []string{}
	}

	tools := parseToolNames(text)
	log.Info("extracted tools", zap.Strings("tools", tools))
	return tools
}

// parseToolNames returns the non-empty trimmed lines of text in order.
// Duplicates are kept.
func parseToolNames(text string) []string {
	tools := []string{}
	for _, line := range strings.Split(text, "\n") {
		name := strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		if name == "" {
			continue
		}
		tools = append(tools, name)
	}
	return tools
}
