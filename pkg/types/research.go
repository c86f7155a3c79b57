// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the lecture-composer
// pipeline: research results returned by source adapters, the outline
// document the composer edits, and per-stage configuration.
package types

import (
	"fmt"
	"strings"
	"time"
)

// SourceID identifies a research provider.
type SourceID string

const (
	// SourceEvidence is the general evidence search (Perplexity-backed).
	SourceEvidence SourceID = "evidence"

	// SourceGuideline is the guideline search (Tavily-backed).
	SourceGuideline SourceID = "guideline"

	// SourceUpToDate is the UpToDate institutional search, served by the
	// scraper sidecar and gated by credentials.
	SourceUpToDate SourceID = "uptodate"

	// SourceMKSAP is the MKSAP 19 institutional search, served by the
	// scraper sidecar and gated by credentials.
	SourceMKSAP SourceID = "mksap"

	// SourcePubMed is the PubMed literature index (NCBI E-utilities).
	SourcePubMed SourceID = "pubmed"
)

// AllSources lists every known source in canonical order.
var AllSources = []SourceID{
	SourceEvidence,
	SourceGuideline,
	SourceUpToDate,
	SourceMKSAP,
	SourcePubMed,
}

// Valid reports whether the SourceID is a known provider.
func (s SourceID) Valid() bool {
	for _, known := range AllSources {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSources converts a comma-separated source list into SourceIDs,
// preserving order and rejecting unknown names.
func ParseSources(csv string) ([]SourceID, error) {
	var sources []SourceID
	for _, part := range strings.Split(csv, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		id := SourceID(name)
		if !id.Valid() {
			return nil, fmt.Errorf("unknown research source %q (known: %v)", name, AllSources)
		}
		sources = append(sources, id)
	}
	return sources, nil
}

// Citation identifies one source document referenced by a research result.
type Citation struct {
	// ID is a provider-scoped identifier (e.g. "pubmed-38012345", "pplx-2").
	ID string `json:"id" yaml:"id"`

	// Title is the cited document's title.
	Title string `json:"title" yaml:"title"`

	// Authors lists author names in source order (may be empty).
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Source names the provider or venue (e.g. "UpToDate", "N Engl J Med").
	Source string `json:"source" yaml:"source"`

	// Year is the publication year, zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// URL links to the cited document.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// PMID is the PubMed identifier for literature-index citations.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// Snippet is a short excerpt from the cited document.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// ResearchResult is one adapter's successful answer for one query.
// A failed source never produces a ResearchResult; adapters return an
// error instead, and the aggregator records it separately.
type ResearchResult struct {
	// Source identifies the provider that produced this result.
	Source SourceID `json:"source" yaml:"source"`

	// Query is the query string the adapter was asked to answer.
	Query string `json:"query" yaml:"query"`

	// Content is the provider's synthesized answer (markdown-ish text).
	Content string `json:"content" yaml:"content"`

	// KeyPoints are short statements extracted from Content, in order.
	KeyPoints []string `json:"key_points,omitempty" yaml:"key_points,omitempty"`

	// Citations lists the documents backing Content, in provider order.
	Citations []Citation `json:"citations,omitempty" yaml:"citations,omitempty"`

	// Retrieved records when the adapter answered.
	Retrieved time.Time `json:"retrieved" yaml:"retrieved"`
}
