package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"slidecast/internal/deck"
	"slidecast/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a completed deck to HTML or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDeckID(args[0])
			if err != nil {
				return err
			}
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "html" && format != "pdf" {
				return fmt.Errorf("unknown export format %q (expected html or pdf)", format)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := deck.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			snapshot, err := store.DeckWithSlides(cmd.Context(), id)
			if err != nil {
				return err
			}
			if snapshot == nil {
				return fmt.Errorf("deck %d not found", id)
			}

			var payload []byte
			switch format {
			case "html":
				payload, err = export.RenderHTML(snapshot)
			case "pdf":
				renderer := export.NewPDFRenderer(cfg)
				payload, err = renderer.RenderDeck(cmd.Context(), snapshot)
			}
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = export.SafeFilename(snapshot.Title) + "." + format
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create export directory: %w", err)
				}
			}
			if err := os.WriteFile(path, payload, 0o644); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported deck %d to %s (%d bytes)\n", id, path, len(payload))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "html", "Export format (html or pdf)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (defaults to a name derived from the deck title)")
	return cmd
}
