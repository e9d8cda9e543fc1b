package types

import "time"

// HTTPConfig holds shared HTTP settings used by clients that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "toolscout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FirecrawlConfig holds settings for the search and scrape service.
type FirecrawlConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the Firecrawl API. Required.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the API root (default https://api.firecrawl.dev).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// MaxRetries is the number of retries on HTTP 429 and 5xx responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// DirectFallback enables a plain HTTP fetch when a Firecrawl scrape fails.
	DirectFallback bool `json:"direct_fallback" yaml:"direct_fallback"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gemini-2.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// TextGenProvider selects the generative text backend.
type TextGenProvider string

const (
	ProviderGemini    TextGenProvider = "gemini"
	ProviderAnthropic TextGenProvider = "anthropic"
)

// TextGenConfig holds settings for the text-generation service.
type TextGenConfig struct {
	AIConfig `yaml:",inline"`

	// Provider selects gemini or anthropic.
	Provider TextGenProvider `json:"provider" yaml:"provider"`

	// BaseURL overrides the provider endpoint. Empty uses the provider default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxTokens caps the response length (anthropic only; default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Temperature is passed to the model. Zero keeps output close to deterministic.
	Temperature float32 `json:"temperature" yaml:"temperature"`
}

// PipelineConfig holds the limits and phrasing used by the three research stages.
type PipelineConfig struct {
	// ExtractionQualifier is appended to the user query for the extraction search.
	ExtractionQualifier string `json:"extraction_qualifier" yaml:"extraction_qualifier"`

	// ExtractionDocLimit is the number of documents requested for extraction (default 5).
	ExtractionDocLimit int `json:"extraction_doc_limit" yaml:"extraction_doc_limit"`

	// ContextCharLimit caps the characters taken from each scraped page (default 1500).
	ContextCharLimit int `json:"context_char_limit" yaml:"context_char_limit"`

	// MaxCandidates caps the number of extracted tools researched (default 4).
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`

	// FallbackSearchLimit is the result limit of the direct search used when
	// extraction found nothing (default 4).
	FallbackSearchLimit int `json:"fallback_search_limit" yaml:"fallback_search_limit"`

	// CandidateSearchLimit is the result limit of each per-candidate search (default 1).
	CandidateSearchLimit int `json:"candidate_search_limit" yaml:"candidate_search_limit"`

	// CandidateQuerySuffix is appended to a candidate name to form its search query.
	CandidateQuerySuffix string `json:"candidate_query_suffix" yaml:"candidate_query_suffix"`

	// AnalysisCharLimit caps the scraped content sent for analysis (default 2500).
	AnalysisCharLimit int `json:"analysis_char_limit" yaml:"analysis_char_limit"`

	// DescriptionCharLimit caps the provisional description taken from a search hit (default 300).
	DescriptionCharLimit int `json:"description_char_limit" yaml:"description_char_limit"`

	// MaxWorkers bounds concurrent candidate research (default 4).
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`

	// CallTimeout bounds every search, scrape and generation call (default 30s).
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`
}

// HistoryBackend selects where completed runs are recorded.
type HistoryBackend string

const (
	HistorySQLite   HistoryBackend = "sqlite"
	HistoryPostgres HistoryBackend = "postgres"
	HistoryNone     HistoryBackend = "none"
)

// HistoryConfig holds settings for the run history store.
type HistoryConfig struct {
	Backend HistoryBackend `json:"backend" yaml:"backend"`

	// Path is the SQLite database file (default ~/.local/share/toolscout/history.db).
	Path string `json:"path" yaml:"path"`

	// DSN is the Postgres connection string.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// Config groups every setting. It is built once at startup and handed to
// each collaborator constructor.
type Config struct {
	Firecrawl FirecrawlConfig `json:"firecrawl" yaml:"firecrawl"`
	TextGen   TextGenConfig   `json:"textgen" yaml:"textgen"`
	Pipeline  PipelineConfig  `json:"pipeline" yaml:"pipeline"`
	History   HistoryConfig   `json:"history" yaml:"history"`

	// MetricsAddr, when set, serves Prometheus metrics on that address.
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
}

// DefaultPipelineConfig returns the stage limits used when nothing is configured.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ExtractionQualifier:  "tools comparison best alternatives",
		ExtractionDocLimit:   5,
		ContextCharLimit:     1500,
		MaxCandidates:        4,
		FallbackSearchLimit:  4,
		CandidateSearchLimit: 1,
		CandidateQuerySuffix: "company names",
		AnalysisCharLimit:    2500,
		DescriptionCharLimit: 300,
		MaxWorkers:           4,
		CallTimeout:          30 * time.Second,
	}
}

// DefaultConfig returns a configuration with every default filled in and no credentials.
func DefaultConfig() Config {
	return Config{
		Firecrawl: FirecrawlConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "toolscout/0.1",
			},
			BaseURL:        "https://api.firecrawl.dev",
			MaxRetries:     3,
			DirectFallback: true,
		},
		TextGen: TextGenConfig{
			AIConfig: AIConfig{
				Model:      "gemini-2.5-flash",
				MaxRetries: 2,
			},
			Provider:  ProviderGemini,
			MaxTokens: 4096,
		},
		Pipeline: DefaultPipelineConfig(),
		History: HistoryConfig{
			Backend: HistorySQLite,
		},
	}
}
