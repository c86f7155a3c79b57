// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rkaplan/lecture-composer/internal/document"
	"github.com/rkaplan/lecture-composer/internal/research"
	"github.com/rkaplan/lecture-composer/pkg/types"
)

var composeCmd = &cobra.Command{
	Use:   "compose [topic]",
	Short: "Research a topic and generate a new lecture outline",
	Long: `Compose runs the full authoring entry point: it aggregates research from
the selected sources, generates a lecture outline grounded in that corpus,
and saves the result as a new document. Sources that fail are reported as
warnings; composition proceeds with whatever research survives.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompose,
}

func runCompose(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	logger := newLogger(cmd)
	defer logger.Sync()

	audienceStr, _ := cmd.Flags().GetString("audience")
	audience := types.Audience(audienceStr)
	if !types.ValidAudience(audience) {
		return fmt.Errorf("unknown audience %q (known: students, residents, fellows, attendings)", audienceStr)
	}
	duration, _ := cmd.Flags().GetInt("duration")
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %d", duration)
	}

	sourcesCSV, _ := cmd.Flags().GetString("sources")
	sources, err := types.ParseSources(sourcesCSV)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rCfg := researchConfig()
	adapters, err := buildAdapters(ctx, rCfg, sources, logger)
	if err != nil {
		return err
	}

	agg := &research.Aggregator{
		Adapters: adapters,
		Timeout:  rCfg.TimeoutOrDefault(),
		Logger:   logger,
	}

	fmt.Fprintf(os.Stderr, "Researching %q across %d source(s)...\n", topic, len(adapters))
	out, err := agg.Aggregate(ctx, topic)
	if err != nil {
		return err
	}
	for _, e := range out.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", e)
	}

	gen, err := newGenerator(cmd)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Generating outline...")
	sections, err := gen.Outline(ctx, topic, audience, duration, out.Results)
	if err != nil {
		return err
	}

	doc := document.New(topic, audience, duration)
	if err := document.ApplyOutline(doc, sections); err != nil {
		return err
	}

	// Follow-ups for the opening section come free with composition so the
	// user can branch immediately. A question failure costs a warning, not
	// the outline.
	first := doc.Sections[0]
	upcoming, _ := document.UpcomingTitles(doc, first.ID)
	if questions, err := gen.FollowUps(ctx, first, upcoming); err != nil {
		fmt.Fprintf(os.Stderr, "warning: follow-up questions for %q: %v\n", first.Title, err)
	} else if err := document.SetFollowUps(doc, first.ID, questions); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(ctx, doc); err != nil {
		return err
	}

	fmt.Printf("Created document %s\n\n", doc.ID)
	printOutline(doc)
	return nil
}

// printOutline writes a one-line-per-section summary to stdout.
func printOutline(doc *types.OutlineDocument) {
	fmt.Printf("%s (%s, %d min, %s)\n", doc.Topic, doc.TargetAudience, doc.DurationMinutes, doc.Status)
	for i, s := range doc.Sections {
		fmt.Printf("%2d. [%-9s] %s (%d slides, %s)\n", i+1, s.Type, s.Title, s.SlideCount, s.Status)
		for _, p := range s.KeyPoints {
			fmt.Printf("      - %s\n", p)
		}
	}
}

func init() {
	composeCmd.Flags().String("audience", "residents", "target audience: students, residents, fellows, attendings")
	composeCmd.Flags().Int("duration", 45, "lecture duration in minutes")
	composeCmd.Flags().String("sources", "evidence,guideline,pubmed", "comma-separated research sources: evidence, guideline, uptodate, mksap, pubmed")
	composeCmd.Flags().String("model", "", "model identifier for generation (overrides config)")

	rootCmd.AddCommand(composeCmd)
}
