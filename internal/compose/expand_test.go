// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rkaplan/lecture-composer/pkg/types"
)

// stubAdapter returns one fixed result for any query.
type stubAdapter struct {
	result  *types.ResearchResult
	err     error
	queries []string
}

func (s *stubAdapter) Source() types.SourceID { return types.SourceEvidence }

func (s *stubAdapter) Search(_ context.Context, query string) (*types.ResearchResult, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestExpand(t *testing.T) {
	section := types.Section{
		ID:        "sec-2",
		Title:     "Rate of Correction",
		Type:      types.SectionConcept,
		KeyPoints: []string{"25% rule"},
		Status:    types.SectionEmpty,
	}
	evidence := &types.ResearchResult{
		Source:  types.SourceEvidence,
		Query:   "hypertensive emergency Rate of Correction",
		Content: "Lower MAP by no more than 25% within the first hour.",
		Citations: []types.Citation{
			{ID: "pplx-1", Title: "Acute severe hypertension review", URL: "https://example.org/r1"},
		},
	}

	t.Run("research then prose then questions", func(t *testing.T) {
		adapter := &stubAdapter{result: evidence}
		mock := &scriptedLLM{responses: []string{
			"Correction pace is where hypertensive emergencies are won or lost. The consensus target is a MAP reduction of no more than 25% in the first hour.",
			`[{"question": "Why is 25% the threshold?", "type": "why", "insight": "Ties pace to autoregulation.", "next_title": "Autoregulation Limits"}]`,
		}}
		e := &Engine{Gen: &Generator{LLM: mock}, Evidence: adapter}

		exp, err := e.Expand(context.Background(), "hypertensive emergency", types.AudienceResidents, section, []string{"Putting It Together"})
		if err != nil {
			t.Fatalf("Expand: %v", err)
		}

		if len(adapter.queries) != 1 || adapter.queries[0] != "hypertensive emergency Rate of Correction" {
			t.Errorf("research query = %v, want topic plus section title", adapter.queries)
		}
		if !strings.HasPrefix(exp.Content, "Correction pace") {
			t.Errorf("content = %q", exp.Content)
		}
		if exp.Research.Source != types.SourceEvidence || len(exp.Research.Citations) != 1 {
			t.Errorf("research not attached: %+v", exp.Research)
		}
		if len(exp.Questions) != 1 || exp.Questions[0].NextTitle != "Autoregulation Limits" {
			t.Errorf("questions = %+v", exp.Questions)
		}

		// Expansion prompt is grounded in the fetched research; the
		// question prompt sees the freshly written content.
		if !strings.Contains(mock.prompts[0], "no more than 25% within the first hour") {
			t.Error("expansion prompt missing research content")
		}
		if !strings.Contains(mock.prompts[1], "Correction pace is where") {
			t.Error("question prompt missing the new section content")
		}
	})

	t.Run("deterministic stubs give identical expansions", func(t *testing.T) {
		run := func() *Expansion {
			adapter := &stubAdapter{result: evidence}
			mock := &scriptedLLM{responses: []string{
				"Stable prose output.",
				`[{"question": "Why?", "type": "why", "next_title": "Next"}]`,
			}}
			e := &Engine{Gen: &Generator{LLM: mock}, Evidence: adapter}
			exp, err := e.Expand(context.Background(), "sepsis", types.AudienceResidents, section, nil)
			if err != nil {
				t.Fatalf("Expand: %v", err)
			}
			return exp
		}

		first, second := run(), run()
		if first.Content != second.Content {
			t.Errorf("content differs across identical runs")
		}
		if first.Research.Content != second.Research.Content {
			t.Errorf("research differs across identical runs")
		}
		if first.Questions[0].Question != second.Questions[0].Question {
			t.Errorf("questions differ across identical runs")
		}
	})

	t.Run("research failure aborts with no partial result", func(t *testing.T) {
		adapter := &stubAdapter{err: errors.New("perplexity unreachable")}
		mock := &scriptedLLM{responses: []string{"should never be used"}}
		e := &Engine{Gen: &Generator{LLM: mock}, Evidence: adapter}

		exp, err := e.Expand(context.Background(), "sepsis", types.AudienceResidents, section, nil)
		if err == nil {
			t.Fatal("want error when research fails")
		}
		if exp != nil {
			t.Errorf("got partial expansion %+v", exp)
		}
		if len(mock.prompts) != 0 {
			t.Error("LLM called despite research failure")
		}
	})

	t.Run("question failure discards written content", func(t *testing.T) {
		adapter := &stubAdapter{result: evidence}
		mock := &scriptedLLM{responses: []string{
			"Good prose.",
			"not a JSON array at all",
		}}
		e := &Engine{Gen: &Generator{LLM: mock}, Evidence: adapter}

		exp, err := e.Expand(context.Background(), "sepsis", types.AudienceResidents, section, nil)
		if err == nil {
			t.Fatal("want error when question generation fails")
		}
		if exp != nil {
			t.Errorf("got partial expansion %+v", exp)
		}
	})

	t.Run("empty prose is an error", func(t *testing.T) {
		adapter := &stubAdapter{result: evidence}
		mock := &scriptedLLM{responses: []string{"   \n  "}}
		e := &Engine{Gen: &Generator{LLM: mock}, Evidence: adapter}

		if _, err := e.Expand(context.Background(), "sepsis", types.AudienceResidents, section, nil); err == nil {
			t.Fatal("want error for empty model output")
		}
	})
}
