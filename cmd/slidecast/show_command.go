package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"slidecast/internal/api"
	"slidecast/internal/deck"
	"slidecast/internal/ipc"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var showNotes bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a deck with its slides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDeckID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(client *ipc.Client, store *deck.Store) error {
				var detail api.DeckDetail
				if client != nil {
					resp, err := client.DeckDescribe(id)
					if err != nil {
						return err
					}
					detail = resp.Deck
				} else {
					snapshot, err := store.DeckWithSlides(cmd.Context(), id)
					if err != nil {
						return err
					}
					if snapshot == nil {
						return fmt.Errorf("deck %d not found", id)
					}
					detail = api.FromDeckDetail(snapshot)
				}
				renderDeckDetail(cmd.OutOrStdout(), detail, showNotes)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showNotes, "notes", false, "Include speaker notes for each slide")
	return cmd
}

func renderDeckDetail(out io.Writer, detail api.DeckDetail, showNotes bool) {
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader(fmt.Sprintf("Deck %d", detail.ID), colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Title", statusInfo, detail.Title, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", deckStatusKind(detail.Status), formatStatusLabel(detail.Status), colorize))
	fmt.Fprintln(out, renderStatusLine("Step", statusInfo, formatStatusLabel(detail.Step), colorize))
	fmt.Fprintln(out, renderStatusLine("Audio attached", statusInfo, yesNo(detail.AudioAttached), colorize))
	fmt.Fprintln(out, renderStatusLine("Transcript ready", statusInfo, yesNo(detail.TranscriptReady), colorize))
	fmt.Fprintln(out, renderStatusLine("Created", statusInfo, formatDisplayTime(detail.CreatedAt), colorize))
	if detail.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, detail.ErrorMessage, colorize))
	}

	if len(detail.Slides) == 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "No slides generated yet")
		return
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader(fmt.Sprintf("Slides (%d)", len(detail.Slides)), colorize) {
		fmt.Fprintln(out, line)
	}
	table := renderTable(
		[]string{"#", "Title", "Content"},
		buildSlideRows(detail.Slides),
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	)
	fmt.Fprintln(out, table)

	if !showNotes {
		return
	}
	for _, slide := range detail.Slides {
		if slide.SpeakerNotes == "" {
			continue
		}
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader(fmt.Sprintf("Notes for slide %d", slide.Position+1), colorize) {
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out, slide.SpeakerNotes)
	}
}

func deckStatusKind(status string) statusKind {
	switch status {
	case string(deck.StatusCompleted):
		return statusOK
	case string(deck.StatusError):
		return statusError
	default:
		return statusInfo
	}
}
