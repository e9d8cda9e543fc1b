// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/toolscout/internal/metrics"
	"github.com/pdiddy/toolscout/internal/textgen"
	"github.com/pdiddy/toolscout/pkg/types"
)

// Recommend asks the generator for a short recommendation over companies.
// It is called even when companies is empty. Any failure is returned
// wrapped in ErrRecommendation.
func (p *Pipeline) Recommend(ctx context.Context, query string, companies []types.CompanyProfile) (string, error) {
	defer metrics.ObserveStage(stageRecommendation, time.Now())
	log := p.logger.With(zap.String("stage", stageRecommendation))

	data, err := companyData(companies)
	if err != nil {
		return "", recommendationFailure(err, "serializing profiles")
	}
	prompt, err := renderRecommendationPrompt(query, data)
	if err != nil {
		return "", recommendationFailure(err, "building prompt")
	}

	text, err := p.generate(ctx, textgen.Request{System: recommendationSystem, Prompt: prompt})
	if err != nil {
		log.Error("recommendation failed", zap.Int("companies", len(companies)), zap.Error(err))
		return "", recommendationFailure(err, "generating")
	}
	return text, nil
}

// companyData renders each profile as a YAML document, in order.
func companyData(companies []types.CompanyProfile) (string, error) {
	docs := make([]string, 0, len(companies))
	for _, c := range companies {
		out, err := yaml.Marshal(c)
		if err != nil {
			return "", eris.Wrapf(err, "marshaling profile %s", c.Name)
		}
		docs = append(docs, string(out))
	}
	return strings.Join(docs, "---\n"), nil
}
