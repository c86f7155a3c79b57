// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rkaplan/lecture-composer/internal/document"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage stored lecture documents",
	Long: `Document manages the local SQLite store of lecture plans. Use subcommands
to list documents, show or export one, search section content across all of
them, or delete.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		summaries, err := store.List(context.Background())
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("No documents.")
			return nil
		}

		fmt.Printf("%-36s  %-40s  %-10s  %-9s  %8s  %s\n",
			"ID", "Topic", "Audience", "Status", "Sections", "Updated")
		fmt.Println(strings.Repeat("-", 130))
		for _, s := range summaries {
			topic := s.Topic
			if len(topic) > 40 {
				topic = topic[:37] + "..."
			}
			fmt.Printf("%-36s  %-40s  %-10s  %-9s  %8d  %s\n",
				s.ID, topic, s.Audience, s.Status, s.SectionCount,
				s.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var documentShowCmd = &cobra.Command{
	Use:   "show [document-id]",
	Short: "Show a document's outline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		doc, err := store.Load(context.Background(), args[0])
		if err != nil {
			return err
		}

		full, _ := cmd.Flags().GetBool("full")
		printOutline(doc)
		if full {
			for _, s := range doc.Sections {
				if s.Content == "" && len(s.FollowUpQuestions) == 0 {
					continue
				}
				fmt.Printf("\n== %s (id: %s)\n", s.Title, s.ID)
				if s.Content != "" {
					fmt.Printf("\n%s\n", s.Content)
				}
				if len(s.FollowUpQuestions) > 0 {
					fmt.Println()
					printQuestions(s.FollowUpQuestions)
				}
				if s.SelectedQuestionID != "" {
					fmt.Printf("\nselected: %s\n", s.SelectedQuestionID)
				}
			}
		}
		return nil
	},
}

var documentExportCmd = &cobra.Command{
	Use:   "export [document-id]",
	Short: "Export a document as YAML, JSON, or Markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		doc, err := store.Load(context.Background(), args[0])
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "yaml", "":
			return document.ExportYAML(os.Stdout, doc)
		case "json":
			return document.ExportJSON(os.Stdout, doc)
		case "markdown", "md":
			return document.ExportMarkdown(os.Stdout, doc)
		default:
			return fmt.Errorf("unsupported format %q: use yaml, json, or markdown", format)
		}
	},
}

var documentSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search across section titles and content",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		hits, err := store.SearchSections(context.Background(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("No matches.")
			return nil
		}

		for _, h := range hits {
			fmt.Printf("%s / %s\n  %s\n  %s\n", h.Topic, h.Title, h.Snippet,
				fmt.Sprintf("(document %s, section %s)", h.DocumentID, h.SectionID))
		}
		fmt.Printf("\n%d match(es)\n", len(hits))
		return nil
	},
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Delete a stored document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	documentShowCmd.Flags().Bool("full", false, "include section content and questions")
	documentExportCmd.Flags().String("format", "yaml", "export format: yaml, json, or markdown")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentExportCmd)
	documentCmd.AddCommand(documentSearchCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}
