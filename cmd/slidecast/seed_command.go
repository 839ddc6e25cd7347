package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slidecast/internal/deck"
)

type sampleDeck struct {
	title      string
	transcript string
	slides     []deck.NewSlide
}

var sampleDecks = []sampleDeck{
	{
		title:      "Product Launch Briefing",
		transcript: "Today we cover the launch timeline, the pricing decision, and the support plan for the first month.",
		slides: []deck.NewSlide{
			{Title: "Launch Timeline", Content: "General availability on the first Tuesday of next month.", SpeakerNotes: "Walk through the two-week beta that precedes it."},
			{Title: "Pricing", Content: "Single tier at launch; usage-based add-ons follow in Q3."},
			{Title: "Support Plan", Content: "On-call rotation doubles for the first month.", SpeakerNotes: "Mention the escalation doc."},
			{Title: "Questions", Content: "Open floor."},
		},
	},
	{
		title:      "Quarterly Retrospective",
		transcript: "We shipped the importer, missed the latency target, and agreed to invest in load testing next quarter.",
		slides: []deck.NewSlide{
			{Title: "What Shipped", Content: "Importer, audit log, and the new onboarding flow."},
			{Title: "What Slipped", Content: "P95 latency target missed by 40ms.", SpeakerNotes: "Tie this to the load testing proposal."},
			{Title: "Next Quarter", Content: "Load testing harness and capacity planning."},
		},
	},
}

// newSeedCommand registers sample decks directly in the store. Intended for
// development environments; requires the daemon to be stopped so the store is
// not written from two processes.
func newSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:    "seed",
		Short:  "Populate the deck store with sample data",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := deck.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx := cmd.Context()
			for _, sample := range sampleDecks {
				created, err := store.CreateDeck(runCtx, sample.title)
				if err != nil {
					return fmt.Errorf("seed deck %q: %w", sample.title, err)
				}
				if _, err := store.RecordTranscript(runCtx, created.ID, sample.transcript); err != nil {
					return fmt.Errorf("seed transcript for %q: %w", sample.title, err)
				}
				if err := store.ReplaceSlides(runCtx, created.ID, sample.slides); err != nil {
					return fmt.Errorf("seed slides for %q: %w", sample.title, err)
				}
				if _, err := store.MarkCompleted(runCtx, created.ID); err != nil {
					return fmt.Errorf("complete seeded deck %q: %w", sample.title, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded deck %d: %s (%d slides)\n", created.ID, created.Title, len(sample.slides))
			}
			return nil
		},
	}
}
