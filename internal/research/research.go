// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research queries medical content providers and merges their
// answers into a single corpus for lecture generation. Each provider
// (evidence search, guideline search, institutional search, literature
// index) implements the Adapter interface per the Strategy pattern.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rkaplan/lecture-composer/pkg/types"
)

// Adapter searches a single research provider. Implementations do not
// retry internally; a failure is returned as an error, never as a
// half-filled result.
type Adapter interface {
	Source() types.SourceID
	Search(ctx context.Context, query string) (*types.ResearchResult, error)
}

// SourceError records one provider failure during aggregation. Failures
// are absorbed here: callers see an absence of that source's data, not a
// hard error.
type SourceError struct {
	Source types.SourceID
	Err    error
}

func (e SourceError) String() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// Output holds the surviving results and the per-source failures.
type Output struct {
	// Results are the successful, non-empty results in source-selection
	// order.
	Results []types.ResearchResult

	// Errors lists the sources that failed or came back empty.
	Errors []SourceError
}

// Aggregator fans a query out to a fixed set of adapters.
type Aggregator struct {
	// Adapters are the selected providers, in user-selection order.
	Adapters []Adapter

	// Timeout bounds each provider call (default 30s).
	Timeout time.Duration

	// Logger records provider failures. Nil disables logging.
	Logger *zap.Logger
}

// Aggregate issues one request per adapter concurrently and returns the
// successful, non-empty results in adapter order. A single source failing
// never aborts its siblings. Calling with an empty topic or no adapters
// is a caller error.
func (a *Aggregator) Aggregate(ctx context.Context, topic string) (Output, error) {
	if strings.TrimSpace(topic) == "" {
		return Output{}, fmt.Errorf("topic is empty: provide a research topic")
	}
	if len(a.Adapters) == 0 {
		return Output{}, fmt.Errorf("no research sources selected")
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Indexed slices keep the output in adapter order regardless of
	// completion order.
	results := make([]*types.ResearchResult, len(a.Adapters))
	errs := make([]error, len(a.Adapters))

	var wg sync.WaitGroup
	for i, adapter := range a.Adapters {
		wg.Add(1)
		go func(i int, adapter Adapter) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			results[i], errs[i] = adapter.Search(callCtx, topic)
		}(i, adapter)
	}
	wg.Wait()

	var out Output
	for i, adapter := range a.Adapters {
		source := adapter.Source()
		switch {
		case errs[i] != nil:
			logger.Warn("research source failed",
				zap.String("source", string(source)),
				zap.Error(errs[i]))
			out.Errors = append(out.Errors, SourceError{Source: source, Err: errs[i]})
		case results[i] == nil || strings.TrimSpace(results[i].Content) == "":
			err := fmt.Errorf("empty result")
			logger.Warn("research source returned nothing",
				zap.String("source", string(source)))
			out.Errors = append(out.Errors, SourceError{Source: source, Err: err})
		default:
			out.Results = append(out.Results, *results[i])
		}
	}

	return out, nil
}

// extractKeyPoints pulls short bullet-style statements out of provider
// content: list items first, falling back to leading sentences.
func extractKeyPoints(content string, max int) []string {
	if max <= 0 {
		max = 5
	}

	var points []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, marker := range []string{"- ", "* ", "• "} {
			if strings.HasPrefix(trimmed, marker) {
				trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, marker))
				if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
					points = append(points, trimPoint(trimmed))
				}
				break
			}
		}
		if len(points) >= max {
			return points[:max]
		}
	}
	if len(points) > 0 {
		return points
	}

	// No list items: take the first few sentences instead.
	for _, sentence := range strings.SplitAfter(content, ". ") {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		points = append(points, trimPoint(trimmed))
		if len(points) >= max {
			break
		}
	}
	return points
}

const maxPointLen = 200

func trimPoint(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if len(s) > maxPointLen {
		s = s[:maxPointLen-3] + "..."
	}
	return s
}

// FormatCorpus renders results as a single prompt-ready corpus, bounding
// each source's contribution to maxChars.
func FormatCorpus(results []types.ResearchResult, maxChars int) string {
	if maxChars <= 0 {
		maxChars = 2000
	}

	var parts []string
	for _, r := range results {
		content := r.Content
		if len(content) > maxChars {
			content = content[:maxChars] + "..."
		}
		var b strings.Builder
		fmt.Fprintf(&b, "## From %s\n\n%s", r.Source, content)
		if len(r.KeyPoints) > 0 {
			b.WriteString("\n\nKey points:\n")
			for _, p := range r.KeyPoints {
				fmt.Fprintf(&b, "- %s\n", p)
			}
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// MergedCitations returns all citations across results in source order.
func MergedCitations(results []types.ResearchResult) []types.Citation {
	var all []types.Citation
	for _, r := range results {
		all = append(all, r.Citations...)
	}
	return all
}

// FormatTable writes results as a human-readable summary to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Results) == 0 {
		fmt.Fprintln(w, "No results.")
	}

	for _, r := range out.Results {
		fmt.Fprintf(w, "=== %s (%d citations, %d key points)\n",
			r.Source, len(r.Citations), len(r.KeyPoints))
		for _, p := range r.KeyPoints {
			fmt.Fprintf(w, "  - %s\n", p)
		}
		for _, c := range r.Citations {
			title := c.Title
			if len(title) > 70 {
				title = title[:67] + "..."
			}
			fmt.Fprintf(w, "  [%s] %s\n", c.ID, title)
		}
	}

	if len(out.Errors) > 0 {
		fmt.Fprintln(w)
		for _, e := range out.Errors {
			fmt.Fprintf(w, "warning: %s\n", e)
		}
	}
}

// FormatJSON writes the successful results as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Results)
}
