// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compose turns research into lecture structure: outline
// generation, Socratic follow-up generation, and section expansion. All
// three are single-shot model calls whose output is parsed, validated,
// and returned without touching the document; applying results is the
// document package's job.
package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rkaplan/lecture-composer/internal/llm"
	"github.com/rkaplan/lecture-composer/internal/parse"
	"github.com/rkaplan/lecture-composer/internal/research"
	"github.com/rkaplan/lecture-composer/pkg/types"
)

// Generator issues generation calls against the configured model.
type Generator struct {
	LLM llm.Client
	Cfg types.ComposeConfig
}

// outlineItem is one outline entry as returned by the model.
type outlineItem struct {
	Title      string   `json:"title"`
	Type       string   `json:"type"`
	KeyPoints  []string `json:"key_points"`
	SlideCount int      `json:"slide_count"`
}

// Outline generates a fresh section list for the topic. Sections come
// back with empty content in model order; the research corpus is attached
// to the first section as provenance of the context used. On any failure
// nothing is returned, so callers can keep their current outline intact.
func (g *Generator) Outline(ctx context.Context, topic string, audience types.Audience, durationMinutes int, corpus []types.ResearchResult) ([]types.Section, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("topic is empty")
	}

	prompt, err := render(outlinePromptTmpl, struct {
		Topic    string
		Audience types.Audience
		Duration int
		Corpus   string
	}{
		Topic:    topic,
		Audience: audience,
		Duration: durationMinutes,
		Corpus:   research.FormatCorpus(corpus, g.maxResearchChars()),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering outline prompt: %w", err)
	}

	text, err := llm.CompleteWithRetry(ctx, g.LLM, prompt, g.Cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("generating outline: %w", err)
	}

	var items []outlineItem
	if err := parse.ArrayInto(text, &items); err != nil {
		return nil, fmt.Errorf("outline response: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("outline response: model returned an empty section list")
	}

	sections := make([]types.Section, 0, len(items))
	for i, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = fmt.Sprintf("Section %d", i+1)
		}

		sectionType := types.SectionType(item.Type)
		if !types.ValidSectionType(sectionType) {
			sectionType = types.SectionConcept
		}

		slideCount := item.SlideCount
		if slideCount <= 0 {
			slideCount = g.defaultSlideCount()
		}

		sections = append(sections, types.Section{
			ID:         uuid.NewString(),
			Title:      title,
			Type:       sectionType,
			KeyPoints:  item.KeyPoints,
			SlideCount: slideCount,
			Status:     types.SectionEmpty,
		})
	}

	if len(corpus) > 0 {
		sections[0].Research = append([]types.ResearchResult(nil), corpus...)
	}
	return sections, nil
}

func (g *Generator) maxResearchChars() int {
	if g.Cfg.MaxResearchChars > 0 {
		return g.Cfg.MaxResearchChars
	}
	return 2000
}

func (g *Generator) defaultSlideCount() int {
	if g.Cfg.DefaultSlideCount > 0 {
		return g.Cfg.DefaultSlideCount
	}
	return 4
}

func (g *Generator) questionCount() int {
	if g.Cfg.QuestionCount > 0 {
		return g.Cfg.QuestionCount
	}
	return 5
}
