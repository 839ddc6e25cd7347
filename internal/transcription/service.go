// Package transcription turns uploaded audio into transcript text by shelling
// out to an external speech-to-text command.
package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"slidecast/internal/config"
)

// ErrNotConfigured is returned when no transcriber command is set. Decks that
// reach the transcribe lane without one fail with a configuration error.
var ErrNotConfigured = errors.New("transcription service not configured")

// Service runs the configured transcription command against an audio file and
// captures the transcript from stdout.
type Service struct {
	cfg           config.Transcriber
	commandRunner func(ctx context.Context, name string, args ...string) (string, error)
}

// NewService creates a transcription service with the given configuration.
func NewService(cfg config.Transcriber) *Service {
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) (string, error)) {
	s.commandRunner = runner
}

// Command returns the configured executable name for health checks.
func (s *Service) Command() string {
	return strings.TrimSpace(s.cfg.Command)
}

// Transcribe produces transcript text for the audio file at path.
func (s *Service) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if strings.TrimSpace(audioPath) == "" {
		return "", errors.New("transcribe: audio path required")
	}
	command := s.Command()
	if command == "" {
		return "", ErrNotConfigured
	}

	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	args := s.buildArgs(audioPath)
	output, err := s.run(ctx, command, args...)
	if err != nil {
		return "", err
	}

	transcript := strings.TrimSpace(output)
	if transcript == "" {
		return "", fmt.Errorf("transcribe: %s produced no output for %s", command, audioPath)
	}
	return transcript, nil
}

func (s *Service) buildArgs(audioPath string) []string {
	args := make([]string, 0, 3)
	if model := strings.TrimSpace(s.cfg.Model); model != "" {
		args = append(args, "--model", model)
	}
	return append(args, audioPath)
}

func (s *Service) run(ctx context.Context, name string, args ...string) (string, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		return "", fmt.Errorf("%s: %w: %s", name, err, detail)
	}
	return stdout.String(), nil
}
