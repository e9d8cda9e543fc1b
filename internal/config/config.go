// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config builds a types.Config from viper (config file, flags and
// environment) and the secrets directory. Library packages never read
// configuration themselves; the result is passed to each constructor.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"github.com/pdiddy/toolscout/internal/secrets"
	"github.com/pdiddy/toolscout/pkg/types"
)

// ErrMissingCredential is returned when a required API key is not configured.
var ErrMissingCredential = eris.New("missing required credential")

// EnvPrefix prefixes environment overrides of config keys, e.g.
// TOOLSCOUT_PIPELINE_MAX_WORKERS.
const EnvPrefix = "TOOLSCOUT"

// Provider credential variables read in addition to the prefixed keys.
const (
	EnvFirecrawlKey = "FIRECRAWL_API_KEY"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
)

// DefaultAnthropicModel replaces the Gemini default model when the
// anthropic provider is selected without an explicit model.
const DefaultAnthropicModel = "claude-sonnet-4-5"

// Setup registers defaults and environment bindings on v. Call it before
// reading any value.
func Setup(v *viper.Viper) {
	def := types.DefaultConfig()

	v.SetDefault("firecrawl.base_url", def.Firecrawl.BaseURL)
	v.SetDefault("firecrawl.timeout", def.Firecrawl.Timeout)
	v.SetDefault("firecrawl.user_agent", def.Firecrawl.UserAgent)
	v.SetDefault("firecrawl.max_retries", def.Firecrawl.MaxRetries)
	v.SetDefault("firecrawl.direct_fallback", def.Firecrawl.DirectFallback)

	v.SetDefault("textgen.provider", string(def.TextGen.Provider))
	v.SetDefault("textgen.model", def.TextGen.Model)
	v.SetDefault("textgen.max_retries", def.TextGen.MaxRetries)
	v.SetDefault("textgen.max_tokens", def.TextGen.MaxTokens)
	v.SetDefault("textgen.temperature", def.TextGen.Temperature)

	p := def.Pipeline
	v.SetDefault("pipeline.extraction_qualifier", p.ExtractionQualifier)
	v.SetDefault("pipeline.extraction_doc_limit", p.ExtractionDocLimit)
	v.SetDefault("pipeline.context_char_limit", p.ContextCharLimit)
	v.SetDefault("pipeline.max_candidates", p.MaxCandidates)
	v.SetDefault("pipeline.fallback_search_limit", p.FallbackSearchLimit)
	v.SetDefault("pipeline.candidate_search_limit", p.CandidateSearchLimit)
	v.SetDefault("pipeline.candidate_query_suffix", p.CandidateQuerySuffix)
	v.SetDefault("pipeline.analysis_char_limit", p.AnalysisCharLimit)
	v.SetDefault("pipeline.description_char_limit", p.DescriptionCharLimit)
	v.SetDefault("pipeline.max_workers", p.MaxWorkers)
	v.SetDefault("pipeline.call_timeout", p.CallTimeout)

	v.SetDefault("history.backend", string(def.History.Backend))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed provider variables, as the services document them.
	_ = v.BindEnv("credentials.firecrawl", EnvFirecrawlKey)
	_ = v.BindEnv("credentials.gemini", EnvGeminiKey)
	_ = v.BindEnv("credentials.anthropic", EnvAnthropicKey)
}

// Load reads the configuration with Read and then requires both credentials.
// A missing search or text generation key returns ErrMissingCredential.
func Load(v *viper.Viper, secretValues map[string]string) (types.Config, error) {
	cfg, err := Read(v, secretValues)
	if err != nil {
		return types.Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Read builds the configuration from v without checking credentials. API
// keys fall back, in order, to the provider environment variable and then
// the matching file in secretValues.
func Read(v *viper.Viper, secretValues map[string]string) (types.Config, error) {
	cfg := types.Config{
		Firecrawl: types.FirecrawlConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("firecrawl.timeout"),
				UserAgent: v.GetString("firecrawl.user_agent"),
			},
			BaseURL:        v.GetString("firecrawl.base_url"),
			MaxRetries:     v.GetInt("firecrawl.max_retries"),
			DirectFallback: v.GetBool("firecrawl.direct_fallback"),
		},
		TextGen: types.TextGenConfig{
			AIConfig: types.AIConfig{
				Model:      v.GetString("textgen.model"),
				MaxRetries: v.GetInt("textgen.max_retries"),
			},
			Provider:    types.TextGenProvider(strings.ToLower(v.GetString("textgen.provider"))),
			BaseURL:     v.GetString("textgen.base_url"),
			MaxTokens:   v.GetInt("textgen.max_tokens"),
			Temperature: float32(v.GetFloat64("textgen.temperature")),
		},
		Pipeline: types.PipelineConfig{
			ExtractionQualifier:  v.GetString("pipeline.extraction_qualifier"),
			ExtractionDocLimit:   v.GetInt("pipeline.extraction_doc_limit"),
			ContextCharLimit:     v.GetInt("pipeline.context_char_limit"),
			MaxCandidates:        v.GetInt("pipeline.max_candidates"),
			FallbackSearchLimit:  v.GetInt("pipeline.fallback_search_limit"),
			CandidateSearchLimit: v.GetInt("pipeline.candidate_search_limit"),
			CandidateQuerySuffix: v.GetString("pipeline.candidate_query_suffix"),
			AnalysisCharLimit:    v.GetInt("pipeline.analysis_char_limit"),
			DescriptionCharLimit: v.GetInt("pipeline.description_char_limit"),
			MaxWorkers:           v.GetInt("pipeline.max_workers"),
			CallTimeout:          v.GetDuration("pipeline.call_timeout"),
		},
		History: types.HistoryConfig{
			Backend: types.HistoryBackend(strings.ToLower(v.GetString("history.backend"))),
			Path:    v.GetString("history.path"),
			DSN:     v.GetString("history.dsn"),
		},
		MetricsAddr: v.GetString("metrics_addr"),
	}

	cfg.Firecrawl.APIKey = firstNonEmpty(
		v.GetString("firecrawl.api_key"),
		v.GetString("credentials.firecrawl"),
		secretValues[secrets.FirecrawlAPIKey],
	)

	switch cfg.TextGen.Provider {
	case types.ProviderGemini:
		cfg.TextGen.APIKey = firstNonEmpty(
			v.GetString("textgen.api_key"),
			v.GetString("credentials.gemini"),
			secretValues[secrets.GeminiAPIKey],
		)
	case types.ProviderAnthropic:
		cfg.TextGen.APIKey = firstNonEmpty(
			v.GetString("textgen.api_key"),
			v.GetString("credentials.anthropic"),
			secretValues[secrets.AnthropicAPIKey],
		)
		if cfg.TextGen.Model == types.DefaultConfig().TextGen.Model {
			cfg.TextGen.Model = DefaultAnthropicModel
		}
	default:
		return types.Config{}, eris.Errorf("unknown textgen.provider %q (want gemini or anthropic)", cfg.TextGen.Provider)
	}

	switch cfg.History.Backend {
	case types.HistorySQLite, types.HistoryPostgres, types.HistoryNone:
	default:
		return types.Config{}, eris.Errorf("unknown history.backend %q (want sqlite, postgres or none)", cfg.History.Backend)
	}
	return cfg, nil
}

// Validate checks that both required credentials are present.
func Validate(cfg types.Config) error {
	var missing []string
	if strings.TrimSpace(cfg.Firecrawl.APIKey) == "" {
		missing = append(missing, EnvFirecrawlKey)
	}
	if strings.TrimSpace(cfg.TextGen.APIKey) == "" {
		if cfg.TextGen.Provider == types.ProviderAnthropic {
			missing = append(missing, EnvAnthropicKey)
		} else {
			missing = append(missing, EnvGeminiKey)
		}
	}
	if len(missing) > 0 {
		return eris.Wrapf(ErrMissingCredential, "set %s (or the matching file in %s)",
			strings.Join(missing, " and "), secrets.DefaultDir)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
