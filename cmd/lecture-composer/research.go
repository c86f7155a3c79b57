// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rkaplan/lecture-composer/internal/research"
	"github.com/rkaplan/lecture-composer/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Query research sources without touching any document",
	Long: `Research fans a topic out to the selected sources concurrently and prints
the merged results. Useful for probing source quality and credentials before
composing. Failed sources are reported as warnings alongside the results
that survive.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	logger := newLogger(cmd)
	defer logger.Sync()

	sourcesCSV, _ := cmd.Flags().GetString("sources")
	sources, err := types.ParseSources(sourcesCSV)
	if err != nil {
		return err
	}

	ctx := context.Background()
	cfg := researchConfig()
	adapters, err := buildAdapters(ctx, cfg, sources, logger)
	if err != nil {
		return err
	}

	agg := &research.Aggregator{
		Adapters: adapters,
		Timeout:  cfg.TimeoutOrDefault(),
		Logger:   logger,
	}

	out, err := agg.Aggregate(ctx, topic)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		return research.FormatJSON(out, os.Stdout)
	}
	research.FormatTable(out, os.Stdout)

	if len(out.Results) == 0 && len(out.Errors) > 0 {
		return fmt.Errorf("all %d source(s) failed", len(out.Errors))
	}
	return nil
}

func init() {
	researchCmd.Flags().String("sources", "evidence,guideline,pubmed", "comma-separated research sources: evidence, guideline, uptodate, mksap, pubmed")
	researchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(researchCmd)
}
