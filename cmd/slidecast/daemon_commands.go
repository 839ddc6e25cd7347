package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"slidecast/internal/daemonctl"
	"slidecast/internal/daemonrun"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the slidecast daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonctl.LaunchOptions{
					SocketPath: ctx.socketPath(),
					ConfigPath: ctx.configPath(),
				},
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the slidecast daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.Terminated && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and deck status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			statusResp, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			runningKind := statusError
			runningDetail := "stopped"
			if statusResp.Running {
				runningKind = statusOK
				runningDetail = fmt.Sprintf("pid %d", statusResp.PID)
			}
			fmt.Fprintln(stdout, renderStatusLine("Daemon", runningKind, runningDetail, colorize))
			if statusResp.LastError != "" {
				fmt.Fprintln(stdout, renderStatusLine("Last error", statusWarn, statusResp.LastError, colorize))
			}
			for _, health := range statusResp.StageHealth {
				kind := statusOK
				if !health.Ready {
					kind = statusError
				}
				fmt.Fprintln(stdout, renderStatusLine(health.Name, kind, health.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, dep := range statusResp.Dependencies {
				kind := statusOK
				if !dep.Available {
					kind = statusError
					if dep.Optional {
						kind = statusWarn
					}
				}
				fmt.Fprintln(stdout, renderStatusLine(dep.Name, kind, dep.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Decks", colorize) {
				fmt.Fprintln(stdout, line)
			}
			rows := buildDeckStatusRows(statusResp.DeckStats)
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "No decks recorded")
				return nil
			}
			table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
			fmt.Fprintln(stdout, table)
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the slidecast daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}

			if _, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second); err != nil && !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonctl.LaunchOptions{
					SocketPath: ctx.socketPath(),
					ConfigPath: ctx.configPath(),
				},
				10*time.Second,
			)
			if err != nil {
				return err
			}
			if result.State == daemonctl.StartStateStarted || result.Launched {
				fmt.Fprintln(stdout, "Daemon restarted")
			} else {
				fmt.Fprintln(stdout, "Daemon running")
			}
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd, restartCmd}
}

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "daemon",
		Short:        "Run the slidecast daemon (internal)",
		Hidden:       true,
		Annotations:  map[string]string{"skipConfigLoad": "true"},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{})
		},
	}
	return cmd
}
