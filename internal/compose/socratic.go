// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rkaplan/lecture-composer/internal/llm"
	"github.com/rkaplan/lecture-composer/internal/parse"
	"github.com/rkaplan/lecture-composer/pkg/types"
)

// maxContentPrefix bounds how much section prose goes into the Socratic
// prompt. Long sections would otherwise crowd out the instructions.
const maxContentPrefix = 1200

// socraticItem is one follow-up question as returned by the model.
type socraticItem struct {
	Question  string `json:"question"`
	Type      string `json:"type"`
	Insight   string `json:"insight"`
	NextTitle string `json:"next_title"`
}

// FollowUps generates Socratic follow-up questions for a section. The
// upcoming titles tell the model where the lecture is headed; an empty
// slice signals the final section and switches the prompt to its
// consolidation framing. The section itself is not modified.
func (g *Generator) FollowUps(ctx context.Context, section types.Section, upcoming []string) ([]types.SocraticQuestion, error) {
	prompt, err := render(socraticPromptTmpl, struct {
		Count         int
		Title         string
		KeyPoints     []string
		ContentPrefix string
		Upcoming      []string
	}{
		Count:         g.questionCount(),
		Title:         section.Title,
		KeyPoints:     section.KeyPoints,
		ContentPrefix: contentPrefix(section.Content),
		Upcoming:      upcoming,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering question prompt: %w", err)
	}

	text, err := llm.CompleteWithRetry(ctx, g.LLM, prompt, g.Cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("generating follow-up questions: %w", err)
	}

	var items []socraticItem
	if err := parse.ArrayInto(text, &items); err != nil {
		return nil, fmt.Errorf("question response: %w", err)
	}

	questions := make([]types.SocraticQuestion, 0, len(items))
	for _, item := range items {
		question := strings.TrimSpace(item.Question)
		if question == "" {
			continue
		}

		questionType := types.QuestionType(item.Type)
		if !types.ValidQuestionType(questionType) {
			questionType = types.QuestionWhy
		}

		nextTitle := strings.TrimSpace(item.NextTitle)
		if nextTitle == "" {
			nextTitle = question
		}

		questions = append(questions, types.SocraticQuestion{
			ID:        uuid.NewString(),
			Question:  question,
			Type:      questionType,
			Insight:   strings.TrimSpace(item.Insight),
			NextTitle: nextTitle,
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("question response: model returned no usable questions")
	}
	return questions, nil
}

func contentPrefix(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= maxContentPrefix {
		return content
	}
	cut := content[:maxContentPrefix]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
