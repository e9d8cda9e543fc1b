// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/pdiddy/toolscout/internal/textgen"
	"github.com/pdiddy/toolscout/pkg/types"
)

func TestMain(m *testing.M) {
	// The genai dependency starts an opencensus stats worker at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// --- stub collaborators ---

type searchCall struct {
	Query string
	Limit int
}

type stubSearch struct {
	mu      sync.Mutex
	results map[string][]types.Document
	errs    map[string]error
	delay   map[string]time.Duration
	block   bool
	calls   []searchCall
}

func (s *stubSearch) Search(ctx context.Context, query string, limit int) ([]types.Document, error) {
	s.mu.Lock()
	s.calls = append(s.calls, searchCall{query, limit})
	docs, err, d, block := s.results[query], s.errs[query], s.delay[query], s.block
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return docs, err
}

func (s *stubSearch) queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.Query
	}
	return out
}

type stubScrape struct {
	mu      sync.Mutex
	pages   map[string]types.Document
	fail    map[string]bool
	block   bool
	started chan struct{}
	calls   []string
}

func (s *stubScrape) Scrape(ctx context.Context, url string) (types.Document, error) {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	page, ok := s.pages[url]
	fail, block := s.fail[url], s.block
	s.mu.Unlock()

	if block {
		if s.started != nil {
			select {
			case s.started <- struct{}{}:
			default:
			}
		}
		<-ctx.Done()
		return types.Document{}, ctx.Err()
	}
	if fail || !ok {
		return types.Document{}, errors.New("fetch failed")
	}
	return page, nil
}

type stubGen struct {
	mu         sync.Mutex
	extraction string
	extractErr error
	analyses   map[string]string // candidate name -> JSON
	analyzeErr error
	recommend  string
	recErr     error
	requests   []textgen.Request
}

func (g *stubGen) Generate(_ context.Context, req textgen.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)

	switch req.System {
	case extractionSystem:
		return g.extraction, g.extractErr
	case analysisSystem:
		if g.analyzeErr != nil {
			return "", g.analyzeErr
		}
		for name, js := range g.analyses {
			if strings.Contains(req.Prompt, "from "+name+"'s website") {
				return js, nil
			}
		}
		return "", textgen.ErrSchemaViolation
	case recommendationSystem:
		return g.recommend, g.recErr
	}
	return "", errors.New("unexpected request")
}

func (g *stubGen) bySystem(system string) []textgen.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []textgen.Request
	for _, r := range g.requests {
		if r.System == system {
			out = append(out, r)
		}
	}
	return out
}

const pineconeAnalysis = `{"pricing_model":"Freemium","description":"Managed vector database","is_open_source":false,"api_available":true,"tech_stack":["Rust","rust"],"language_support":["Python","Go"],"integration_capabilities":["LangChain"],"competitors":["Weaviate"],"developer_experience_rating":"Good"}`

const weaviateAnalysis = `{"pricing_model":"Free","description":"Open source vector search engine","is_open_source":true,"api_available":true,"tech_stack":["Go"],"language_support":["Python"],"integration_capabilities":[],"competitors":[],"developer_experience_rating":null}`

func extractionQuery(q string) string { return q + " tools comparison best alternatives" }

// vectorDBFixture wires the "vector database" scenario: two extraction
// documents, Pinecone and Weaviate candidates with pages and analyses.
func vectorDBFixture() (*stubSearch, *stubScrape, *stubGen) {
	search := &stubSearch{results: map[string][]types.Document{
		extractionQuery("vector database"): {
			{URL: "https://blog.example.com/best-vector-dbs", Body: "Pinecone and Weaviate lead the pack."},
			{URL: "https://news.example.com/vector-dbs", Body: "A comparison of vector databases."},
		},
		"Pinecone company names": {{URL: "https://www.pinecone.io", Title: "Pinecone", Body: "Pinecone is the vector database for AI."}},
		"Weaviate company names": {{URL: "https://weaviate.io", Title: "Weaviate", Body: "Weaviate is an open source vector database."}},
	}}
	scrape := &stubScrape{pages: map[string]types.Document{
		"https://blog.example.com/best-vector-dbs": {URL: "https://blog.example.com/best-vector-dbs", Body: "Pinecone, Weaviate, Milvus compared."},
		"https://news.example.com/vector-dbs":      {URL: "https://news.example.com/vector-dbs", Body: "Vector databases in 2026."},
		"https://www.pinecone.io":                  {URL: "https://www.pinecone.io", Body: "Pinecone pricing: Starter is free."},
		"https://weaviate.io":                      {URL: "https://weaviate.io", Body: "Weaviate is open source under BSD-3."},
	}}
	gen := &stubGen{
		extraction: "Pinecone\nWeaviate",
		analyses: map[string]string{
			"Pinecone": pineconeAnalysis,
			"Weaviate": weaviateAnalysis,
		},
		recommend: "Use Pinecone for managed hosting, Weaviate for self-hosting.",
	}
	return search, scrape, gen
}

func newTestPipeline(search Searcher, scrape Scraper, gen textgen.Generator) *Pipeline {
	return New(types.PipelineConfig{}, search, scrape, gen, zap.NewNop())
}

func TestRunVectorDatabaseScenario(t *testing.T) {
	search, scrape, gen := vectorDBFixture()
	p := newTestPipeline(search, scrape, gen)

	rec, err := p.Run(context.Background(), "vector database")
	require.NoError(t, err)

	assert.Equal(t, "vector database", rec.Query)
	assert.Equal(t, []string{"Pinecone", "Weaviate"}, rec.ExtractedTools)

	queries := search.queries()
	assert.Contains(t, queries, "Pinecone company names")
	assert.Contains(t, queries, "Weaviate company names")
	assert.NotContains(t, queries, "vector database", "fallback search must not run when tools were extracted")
	assert.Len(t, queries, 3)

	require.Len(t, rec.Companies, 2)
	pc := rec.Companies[0]
	assert.Equal(t, "Pinecone", pc.Name)
	assert.Equal(t, "https://www.pinecone.io", pc.Website)
	assert.Equal(t, "Freemium", pc.PricingModel)
	assert.Equal(t, "Managed vector database", pc.Description)
	assert.Equal(t, types.False, pc.IsOpenSource)
	assert.Equal(t, types.True, pc.APIAvailable)
	assert.Equal(t, []string{"Rust"}, pc.TechStack)
	assert.Equal(t, "Good", pc.DeveloperExperienceRating)

	wv := rec.Companies[1]
	assert.Equal(t, "Weaviate", wv.Name)
	assert.Equal(t, types.True, wv.IsOpenSource)
	assert.Empty(t, wv.DeveloperExperienceRating)

	assert.True(t, rec.HasAnalysis())
	assert.Equal(t, "Use Pinecone for managed hosting, Weaviate for self-hosting.", rec.Analysis)

	recs := gen.bySystem(recommendationSystem)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Prompt, "Developer query: vector database")
	assert.Less(t, strings.Index(recs[0].Prompt, "name: Pinecone"), strings.Index(recs[0].Prompt, "name: Weaviate"))
	assert.Nil(t, recs[0].Schema)

	analyses := gen.bySystem(analysisSystem)
	require.Len(t, analyses, 2)
	for _, a := range analyses {
		assert.Same(t, companyAnalysisSchema, a.Schema)
	}
}

func TestRunAllSearchesEmpty(t *testing.T) {
	search := &stubSearch{}
	gen := &stubGen{recommend: "No data found for this query."}
	p := newTestPipeline(search, &stubScrape{}, gen)

	rec, err := p.Run(context.Background(), "quantum widgets")
	require.NoError(t, err)

	assert.Equal(t, []string{}, rec.ExtractedTools)
	assert.Equal(t, []types.CompanyProfile{}, rec.Companies)
	assert.Equal(t, "No data found for this query.", rec.Analysis)

	assert.Equal(t, []searchCall{
		{extractionQuery("quantum widgets"), 5},
		{"quantum widgets", 4},
	}, search.calls)
	assert.Empty(t, gen.bySystem(extractionSystem), "no documents means no extraction call")

	recs := gen.bySystem(recommendationSystem)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Prompt, "Tools and technologies analyzed:\n\nProvide")
}

func TestRunScrapeFailsForOneCandidate(t *testing.T) {
	search, scrape, gen := vectorDBFixture()
	scrape.fail = map[string]bool{"https://weaviate.io": true}
	p := newTestPipeline(search, scrape, gen)

	rec, err := p.Run(context.Background(), "vector database")
	require.NoError(t, err)
	require.Len(t, rec.Companies, 2)

	assert.Equal(t, "Pinecone", rec.Companies[0].Name)
	assert.Equal(t, "Freemium", rec.Companies[0].PricingModel)

	wv := rec.Companies[1]
	assert.Equal(t, "Weaviate", wv.Name)
	assert.Equal(t, "https://weaviate.io", wv.Website)
	assert.Equal(t, types.UnknownPricing, wv.PricingModel)
	assert.Equal(t, types.Unknown, wv.IsOpenSource)
	assert.Equal(t, types.Unknown, wv.APIAvailable)
	assert.Equal(t, []string{}, wv.TechStack)
	assert.Equal(t, []string{}, wv.LanguageSupport)
	assert.Equal(t, []string{}, wv.IntegrationCapabilities)
	assert.Equal(t, []string{}, wv.Competitors)
	assert.Equal(t, "Weaviate is an open source vector database.", wv.Description)

	assert.Len(t, gen.bySystem(analysisSystem), 1)
}

func TestRunRecommendationFailureIsFault(t *testing.T) {
	search, scrape, gen := vectorDBFixture()
	gen.recErr = errors.New("quota exceeded")
	p := newTestPipeline(search, scrape, gen)

	rec, err := p.Run(context.Background(), "vector database")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecommendation)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.NotErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, []string{"Pinecone", "Weaviate"}, rec.ExtractedTools)
	assert.Len(t, rec.Companies, 2)
	assert.False(t, rec.HasAnalysis())
}

func TestRunExtractionFailureDegrades(t *testing.T) {
	search, scrape, gen := vectorDBFixture()
	gen.extractErr = errors.New("model unavailable")
	search.results["vector database"] = []types.Document{
		{URL: "https://www.pinecone.io", Title: "Pinecone", Body: "Pinecone is the vector database for AI."},
	}
	p := newTestPipeline(search, scrape, gen)

	rec, err := p.Run(context.Background(), "vector database")
	require.NoError(t, err)
	assert.Equal(t, []string{}, rec.ExtractedTools)
	require.Len(t, rec.Companies, 1)
	assert.Equal(t, "Pinecone", rec.Companies[0].Name)
	assert.Contains(t, search.queries(), "vector database")
}

func TestRunIdempotent(t *testing.T) {
	search, scrape, gen := vectorDBFixture()
	p := newTestPipeline(search, scrape, gen)

	first, err := p.Run(context.Background(), "vector database")
	require.NoError(t, err)
	second, err := p.Run(context.Background(), "vector database")
	require.NoError(t, err)

	if diff := cmp.Diff(first, second, cmp.AllowUnexported(types.ResultRecord{})); diff != "" {
		t.Errorf("records differ (-first +second):\n%s", diff)
	}
}

func TestRunCancelledDuringResearch(t *testing.T) {
	search := &stubSearch{results: map[string][]types.Document{
		"vector database": {
			{URL: "https://a.example.com", Title: "Alpha"},
			{URL: "https://b.example.com", Title: "Beta"},
		},
		"Alpha company names": {{URL: "https://a.example.com", Body: "alpha"}},
		"Beta company names":  {{URL: "https://b.example.com", Body: "beta"}},
	}}
	scrape := &stubScrape{block: true, started: make(chan struct{}, 1)}
	gen := &stubGen{recommend: "unused"}
	p := newTestPipeline(search, scrape, gen)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var rec types.ResultRecord
	go func() {
		var err error
		rec, err = p.Run(ctx, "vector database")
		done <- err
	}()

	select {
	case <-scrape.started:
	case <-time.After(5 * time.Second):
		t.Fatal("research never started")
	}
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
	assert.Equal(t, "vector database", rec.Query)
	assert.Empty(t, rec.Companies)
	assert.Empty(t, gen.bySystem(recommendationSystem))
}

func TestRunCallTimeoutIsRecoverable(t *testing.T) {
	search := &stubSearch{block: true}
	gen := &stubGen{recommend: "nothing found"}
	cfg := types.PipelineConfig{CallTimeout: 20 * time.Millisecond}
	p := New(cfg, search, &stubScrape{}, gen, nil)

	rec, err := p.Run(context.Background(), "slow query")
	require.NoError(t, err)
	assert.Empty(t, rec.ExtractedTools)
	assert.Empty(t, rec.Companies)
	assert.Equal(t, "nothing found", rec.Analysis)
}

func TestWithDefaults(t *testing.T) {
	assert.Equal(t, types.DefaultPipelineConfig(), withDefaults(types.PipelineConfig{}))

	custom := types.PipelineConfig{MaxCandidates: 2, CallTimeout: time.Second}
	got := withDefaults(custom)
	assert.Equal(t, 2, got.MaxCandidates)
	assert.Equal(t, time.Second, got.CallTimeout)
	assert.Equal(t, 5, got.ExtractionDocLimit)
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"hello", 0, ""},
		{"", 5, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateRunes(tt.in, tt.n), "%q/%d", tt.in, tt.n)
	}
}
