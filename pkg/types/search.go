// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the labscout literature
// search pipeline: the structured query produced from research context, the
// candidate papers that flow through scoring, and the final ranked results.
package types

// Parameter is one measured quantity recorded by an experiment.
type Parameter struct {
	Name string `json:"name" yaml:"name"`
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Experiment is the slice of a prior experiment record that query
// understanding consumes: its name and the parameters it studied.
type Experiment struct {
	Name       string      `json:"name" yaml:"name"`
	Parameters []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// DataPoints is the number of recorded measurements, 0 when unknown.
	DataPoints int `json:"data_points,omitempty" yaml:"data_points,omitempty"`
}

// YearRange is the preferred publication window, inclusive on both ends.
type YearRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Contains reports whether year lies within the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.Min && year <= r.Max
}

// SearchSpec is the structured query derived from free-text research context.
// It is produced once per search and read by every downstream stage.
type SearchSpec struct {
	// PrimaryQuery is the main query string sent to every backend.
	PrimaryQuery string `json:"primary_query" yaml:"primary_query"`

	// SemanticQuery is a natural-language description used for embedding.
	SemanticQuery string `json:"semantic_query" yaml:"semantic_query"`

	// Keywords are specific technical terms, at most 10.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Concepts are broader scientific concepts, at most 7.
	Concepts []string `json:"concepts" yaml:"concepts"`

	MethodologyTerms []string `json:"methodology_terms" yaml:"methodology_terms"`

	// Synonyms maps a term of the primary query to alternate phrasings.
	Synonyms map[string][]string `json:"synonyms" yaml:"synonyms"`

	PaperTypes     []string  `json:"paper_types" yaml:"paper_types"`
	YearPreference YearRange `json:"year_preference" yaml:"year_preference"`

	// QueryEmbedding is nil when no embedding provider was available.
	QueryEmbedding []float64 `json:"-" yaml:"-"`
}

// Candidate is a single retrieved paper flowing through the scoring pipeline.
// Backends fill the metadata; the scorer, verifier, and ranker fill the rest.
type Candidate struct {
	Title    string   `json:"title" yaml:"title"`
	Abstract string   `json:"abstract" yaml:"abstract"`
	Authors  []string `json:"authors" yaml:"authors"`

	// Year is the publication year, 0 when unknown.
	Year int    `json:"year,omitempty" yaml:"year,omitempty"`
	URL  string `json:"url" yaml:"url"`

	// DOI is the bare DOI (no resolver prefix), empty when unknown.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Citations is nil when the source does not report a count.
	Citations *int `json:"citations,omitempty" yaml:"citations,omitempty"`

	Source     string `json:"source" yaml:"source"`
	SourceIcon string `json:"source_icon" yaml:"source_icon"`

	SemanticScore     float64 `json:"semantic_score" yaml:"semantic_score"` // [0,1]
	TopicScore        float64 `json:"topic_score" yaml:"topic_score"`
	MethodologyScore  float64 `json:"methodology_score" yaml:"methodology_score"`
	CitationScore     float64 `json:"citation_score" yaml:"citation_score"`
	RecencyScore      float64 `json:"recency_score" yaml:"recency_score"`
	VerificationScore float64 `json:"verification_score" yaml:"verification_score"`

	MatchPercentage float64  `json:"match_percentage" yaml:"match_percentage"`
	MatchReasons    []string `json:"match_reasons" yaml:"match_reasons"`

	Verified           bool   `json:"verified" yaml:"verified"`
	VerificationSource string `json:"verification_source,omitempty" yaml:"verification_source,omitempty"`
}

// CitationCount returns the citation count, or 0 when unknown.
func (c *Candidate) CitationCount() int {
	if c.Citations == nil {
		return 0
	}
	return *c.Citations
}

// ScoreBreakdown holds the per-dimension scores of a result, each on a
// 0-100 scale rounded to one decimal.
type ScoreBreakdown struct {
	Semantic    float64 `json:"semantic" yaml:"semantic"`
	Topic       float64 `json:"topic" yaml:"topic"`
	Methodology float64 `json:"methodology" yaml:"methodology"`
	Citations   float64 `json:"citations" yaml:"citations"`
	Recency     float64 `json:"recency" yaml:"recency"`
}

// Result is the record handed back to callers of an advanced search.
type Result struct {
	Title string `json:"title" yaml:"title"`

	// Abstract is truncated to 300 characters plus an ellipsis.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Description is set on LLM fallback recommendations only.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Date is the publication year as a string, empty when unknown.
	Date       string   `json:"date" yaml:"date"`
	Authors    []string `json:"authors" yaml:"authors"`
	URL        string   `json:"url" yaml:"url"`
	DOI        string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	Citations  *int     `json:"citations" yaml:"citations"`
	Source     string   `json:"source" yaml:"source"`
	SourceIcon string   `json:"source_icon" yaml:"source_icon"`

	MatchPercentage float64        `json:"match_percentage" yaml:"match_percentage"`
	MatchReasons    []string       `json:"match_reasons" yaml:"match_reasons"`
	Verified        bool           `json:"verified" yaml:"verified"`
	Scores          ScoreBreakdown `json:"scores" yaml:"scores"`
}
