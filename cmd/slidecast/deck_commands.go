package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slidecast/internal/api"
	"slidecast/internal/deck"
	"slidecast/internal/ipc"
	"slidecast/internal/textutil"
)

func newDeckCommand(ctx *commandContext) *cobra.Command {
	deckCmd := &cobra.Command{
		Use:   "deck",
		Short: "Inspect and manage slide decks",
	}

	deckCmd.AddCommand(newDeckListCommand(ctx))
	deckCmd.AddCommand(newDeckCreateCommand(ctx))
	deckCmd.AddCommand(newDeckDeleteCommand(ctx))
	deckCmd.AddCommand(newDeckReprocessCommand(ctx))
	deckCmd.AddCommand(newDeckRunCommand(ctx))

	return deckCmd
}

func newDeckListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List decks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *deck.Store) error {
				var decks []api.Deck
				if client != nil {
					resp, err := client.DeckList(listStatuses)
					if err != nil {
						return err
					}
					decks = resp.Decks
				} else {
					var statuses []deck.Status
					for _, value := range listStatuses {
						parsed, ok := deck.ParseStatus(value)
						if !ok {
							return fmt.Errorf("unknown status %q", value)
						}
						statuses = append(statuses, parsed)
					}
					records, err := store.List(cmd.Context(), statuses...)
					if err != nil {
						return err
					}
					decks = api.FromDecks(records)
				}

				if len(decks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No decks recorded")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Title", "Status", "Step", "Slides", "Created"},
					buildDeckListRows(decks),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by deck status (processing, completed, error)")
	return cmd
}

func newDeckCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		raw       bool
		audioPath string
	)

	cmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Create a new deck, optionally attaching an audio file",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			audio := strings.TrimSpace(audioPath)
			switch {
			case title == "" && audio == "":
				return fmt.Errorf("a deck title or --audio file is required")
			case title == "":
				title = textutil.TitleFromPath(audio)
			case !raw:
				title = textutil.NormalizeTitle(title)
			}
			if audio != "" {
				absolute, err := filepath.Abs(audio)
				if err != nil {
					return fmt.Errorf("resolve audio path: %w", err)
				}
				audio = absolute
			}
			return ctx.withClient(func(client *ipc.Client) error {
				var (
					resp *ipc.DeckCreateResponse
					err  error
				)
				if audio != "" {
					resp, err = client.DeckCreateWithAudio(title, audio)
				} else {
					resp, err = client.DeckCreate(title)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created deck %d: %s\n", resp.Deck.ID, resp.Deck.Title)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Keep the title exactly as given (skip normalization)")
	cmd.Flags().StringVar(&audioPath, "audio", "", "Audio file to attach at creation time")
	return cmd
}

func newDeckDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a deck and its slides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDeckID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DeckDelete(id)
				if err != nil {
					return err
				}
				if !resp.Deleted {
					fmt.Fprintf(cmd.OutOrStdout(), "Deck %d not found\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted deck %d\n", id)
				return nil
			})
		},
	}
}

func newDeckReprocessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess <id>",
		Short: "Restart processing for an errored deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDeckID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DeckReprocess(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deck %d back in %s\n", id, resp.Deck.Status)
				return nil
			})
		},
	}
}

func newDeckRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <id>",
		Short: "Drive one deck through the pipeline and wait for the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDeckID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DeckRun(id)
				if err != nil {
					return err
				}
				d := resp.Deck
				switch d.Status {
				case string(deck.StatusCompleted):
					fmt.Fprintf(cmd.OutOrStdout(), "Deck %d completed with %d slides\n", d.ID, d.TotalSlides)
				case string(deck.StatusError):
					fmt.Fprintf(cmd.OutOrStdout(), "Deck %d failed: %s\n", d.ID, d.ErrorMessage)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "Deck %d is %s (%s)\n", d.ID, d.Status, d.Step)
				}
				return nil
			})
		},
	}
}

func parseDeckID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid deck id %q", arg)
	}
	return id, nil
}
