// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rkaplan/lecture-composer/internal/compose"
	"github.com/rkaplan/lecture-composer/internal/document"
	"github.com/rkaplan/lecture-composer/internal/research"
)

var expandCmd = &cobra.Command{
	Use:   "expand [document-id] [section-id]",
	Short: "Expand one section into prose with targeted research",
	Long: `Expand runs targeted evidence research on a section, writes its prose
grounded in the findings, and generates fresh Socratic follow-up questions
from the new content. The section's previous question batch and selection
are superseded. On any failure the section is left untouched.`,
	Args: cobra.ExactArgs(2),
	RunE: runExpand,
}

func runExpand(cmd *cobra.Command, args []string) error {
	docID, sectionID := args[0], args[1]
	logger := newLogger(cmd)
	defer logger.Sync()

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
	rCfg := researchConfig()
	engine := &compose.Engine{
		Gen:      gen,
		Evidence: research.NewEvidenceAdapter(rCfg),
		Timeout:  rCfg.TimeoutOrDefault(),
	}

	fmt.Fprintf(os.Stderr, "Expanding %q...\n", section.Title)
	expansion, err := engine.Expand(ctx, doc.Topic, doc.TargetAudience, *section, upcoming)
	if err != nil {
		return err
	}

	if err := document.ApplyExpansion(doc, sectionID, expansion.Content, expansion.Research, expansion.Questions); err != nil {
		return err
	}
	if err := store.Save(ctx, doc); err != nil {
		return err
	}

	fmt.Printf("%s\n\n%s\n\n", section.Title, expansion.Content)
	printQuestions(expansion.Questions)
	return nil
}

func init() {
	expandCmd.Flags().String("model", "", "model identifier for generation (overrides config)")

	rootCmd.AddCommand(expandCmd)
}
