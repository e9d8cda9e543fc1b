// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the toolscout research pipeline:
// search documents, researched company profiles, the result record threaded
// through the pipeline stages, and configuration.
package types

// Document is a page returned by the search or scrape service.
type Document struct {
	// URL is the source address of the page.
	URL string `json:"url" yaml:"url"`

	// Title is the page title reported by the search service. It may be empty.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Body is the page text, usually Markdown.
	Body string `json:"body" yaml:"body"`
}

// HasBody reports whether the document carries any non-whitespace text.
func (d Document) HasBody() bool {
	for _, r := range d.Body {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return true
	}
	return false
}
