// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "github.com/rotisserie/eris"

// ErrFieldWritten is returned when an update targets a record field that an
// earlier update already wrote.
var ErrFieldWritten = eris.New("result record field already written")

// recordField identifies a stage-owned field of ResultRecord.
type recordField uint8

const (
	fieldExtractedTools recordField = 1 << iota
	fieldCompanies
	fieldAnalysis
)

// ResultRecord is the state threaded through one pipeline run. Query is set
// at construction; every other field is written exactly once, by the stage
// that owns it, through Apply.
type ResultRecord struct {
	Query          string           `json:"query" yaml:"query"`
	ExtractedTools []string         `json:"extracted_tools" yaml:"extracted_tools"`
	Companies      []CompanyProfile `json:"companies" yaml:"companies"`
	Analysis       string           `json:"analysis,omitempty" yaml:"analysis,omitempty"`

	written recordField
}

// NewResultRecord returns an empty record for query.
func NewResultRecord(query string) ResultRecord {
	return ResultRecord{
		Query:          query,
		ExtractedTools: []string{},
		Companies:      []CompanyProfile{},
	}
}

// HasAnalysis reports whether the recommendation stage has written Analysis.
func (r *ResultRecord) HasAnalysis() bool { return r.written&fieldAnalysis != 0 }

// Apply merges a stage update into the record.
func (r *ResultRecord) Apply(u Update) error {
	f := u.field()
	if r.written&f != 0 {
		return eris.Wrapf(ErrFieldWritten, "applying %s", u.name())
	}
	u.applyTo(r)
	r.written |= f
	return nil
}

// Update is the partial result produced by one stage. The set of updates is
// closed: each field of ResultRecord has exactly one update type writing it.
type Update interface {
	field() recordField
	name() string
	applyTo(r *ResultRecord)
}

// ExtractionUpdate carries the tool names found by the extraction stage.
type ExtractionUpdate struct {
	ExtractedTools []string
}

func (ExtractionUpdate) field() recordField { return fieldExtractedTools }
func (ExtractionUpdate) name() string { return "extraction update" }
func (u ExtractionUpdate) applyTo(r *ResultRecord) {
	r.ExtractedTools = append([]string{}, u.ExtractedTools...)
}

// ResearchUpdate carries the profiles built by the research stage.
type ResearchUpdate struct {
	Companies []CompanyProfile
}

func (ResearchUpdate) field() recordField { return fieldCompanies }
func (ResearchUpdate) name() string { return "research update" }
func (u ResearchUpdate) applyTo(r *ResultRecord) {
	r.Companies = append([]CompanyProfile{}, u.Companies...)
}

// RecommendationUpdate carries the final narrative.
type RecommendationUpdate struct {
	Analysis string
}

func (RecommendationUpdate) field() recordField { return fieldAnalysis }
func (RecommendationUpdate) name() string { return "recommendation update" }
func (u RecommendationUpdate) applyTo(r *ResultRecord) {
	r.Analysis = u.Analysis
}
