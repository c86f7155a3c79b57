// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rkaplan/lecture-composer/internal/llm"
	"github.com/rkaplan/lecture-composer/internal/research"
	"github.com/rkaplan/lecture-composer/pkg/types"
)

// Expansion is the complete output of expanding one section. Either the
// whole expansion succeeds or none of it is returned; callers never see
// a half-expanded section.
type Expansion struct {
	Content   string
	Research  types.ResearchResult
	Questions []types.SocraticQuestion
}

// Engine runs the research-write-question sequence for one section.
type Engine struct {
	Gen      *Generator
	Evidence research.Adapter
	// Timeout bounds the research call. Zero means 30 seconds.
	Timeout time.Duration
}

// Expand deepens a single section: it runs targeted evidence research on
// the section topic, writes the section prose grounded in that research,
// and generates follow-up questions from the new content. Upcoming lists
// the titles of the sections that follow; empty for the last section.
func (e *Engine) Expand(ctx context.Context, topic string, audience types.Audience, section types.Section, upcoming []string) (*Expansion, error) {
	query := strings.TrimSpace(topic + " " + section.Title)
	if query == "" {
		return nil, fmt.Errorf("nothing to research: topic and section title are both empty")
	}

	searchCtx, cancel := context.WithTimeout(ctx, e.timeout())
	result, err := e.Evidence.Search(searchCtx, query)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("researching section %q: %w", section.Title, err)
	}

	prompt, err := render(expansionPromptTmpl, struct {
		Topic     string
		Audience  types.Audience
		Title     string
		KeyPoints []string
		Research  string
	}{
		Topic:     topic,
		Audience:  audience,
		Title:     section.Title,
		KeyPoints: section.KeyPoints,
		Research:  research.FormatCorpus([]types.ResearchResult{*result}, e.Gen.maxResearchChars()),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering expansion prompt: %w", err)
	}

	text, err := llm.CompleteWithRetry(ctx, e.Gen.LLM, prompt, e.Gen.Cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("expanding section %q: %w", section.Title, err)
	}
	content := strings.TrimSpace(text)
	if content == "" {
		return nil, fmt.Errorf("expanding section %q: model returned empty content", section.Title)
	}

	// Questions are generated against the freshly written content so they
	// probe what the section now actually says.
	expanded := section
	expanded.Content = content
	questions, err := e.Gen.FollowUps(ctx, expanded, upcoming)
	if err != nil {
		return nil, err
	}

	return &Expansion{
		Content:   content,
		Research:  *result,
		Questions: questions,
	}, nil
}

func (e *Engine) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return 30 * time.Second
}
