// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rkaplan/lecture-composer/internal/document"
	"github.com/rkaplan/lecture-composer/pkg/types"
)

var questionsCmd = &cobra.Command{
	Use:   "questions [document-id] [section-id]",
	Short: "Regenerate Socratic follow-up questions for a section",
	Long: `Questions generates a fresh batch of Socratic follow-up questions for a
section from its current content and the lecture's remaining trajectory.
The new batch replaces the old one wholesale; a previously selected
question is cleared because it referenced the superseded batch.`,
	Args: cobra.ExactArgs(2),
	RunE: runQuestions,
}

func runQuestions(cmd *cobra.Command, args []string) error {
	docID, sectionID := args[0], args[1]

	ctx := context.Background()
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Load(ctx, docID)
	if err != nil {
		return err
	}
	section, err := document.SectionByID(doc, sectionID)
	if err != nil {
		return err
	}
	upcoming, err := document.UpcomingTitles(doc, sectionID)
	if err != nil {
		return err
	}

	gen, err := newGenerator(cmd)
	if err != nil {
		return err
	}

	questions, err := gen.FollowUps(ctx, *section, upcoming)
	if err != nil {
		return err
	}

	if err := document.SetFollowUps(doc, sectionID, questions); err != nil {
		return err
	}
	if err := store.Save(ctx, doc); err != nil {
		return err
	}

	fmt.Printf("%s\n\n", section.Title)
	printQuestions(questions)
	return nil
}

// printQuestions writes a numbered question list to stdout.
func printQuestions(questions []types.SocraticQuestion) {
	for i, q := range questions {
		fmt.Printf("%2d. [%-9s] %s\n", i+1, q.Type, q.Question)
		if q.Insight != "" {
			fmt.Printf("      %s\n", q.Insight)
		}
		fmt.Printf("      -> %s  (id: %s)\n", q.NextTitle, q.ID)
	}
}

func init() {
	questionsCmd.Flags().String("model", "", "model identifier for generation (overrides config)")

	rootCmd.AddCommand(questionsCmd)
}
