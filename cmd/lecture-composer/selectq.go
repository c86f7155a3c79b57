// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rkaplan/lecture-composer/internal/document"
)

var selectCmd = &cobra.Command{
	Use:   "select [document-id] [section-id] [question-id]",
	Short: "Choose a follow-up question to steer the lecture",
	Long: `Select records the chosen follow-up question on a section and points the
lecture in its direction: the next section is retitled to the question's
suggested title and reset to empty, ready for expansion. Selecting on the
last section appends a new section instead.`,
	Args: cobra.ExactArgs(3),
	RunE: runSelect,
}

func runSelect(cmd *cobra.Command, args []string) error {
	docID, sectionID, questionID := args[0], args[1], args[2]

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

	before := len(doc.Sections)
	if err := document.SelectFollowUp(doc, sectionID, questionID); err != nil {
		return err
	}
	if err := store.Save(ctx, doc); err != nil {
		return err
	}

	if len(doc.Sections) > before {
		fmt.Printf("Appended new section %q\n\n", doc.Sections[len(doc.Sections)-1].Title)
	}
	printOutline(doc)
	return nil
}

func init() {
	rootCmd.AddCommand(selectCmd)
}
