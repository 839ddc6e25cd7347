package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"slidecast/internal/config"
	"slidecast/internal/deck"
	"slidecast/internal/services"
	"slidecast/internal/services/retry"
)

// PDFRenderer prints deck HTML to PDF via a headless chromium process.
type PDFRenderer struct {
	cfg           config.Export
	policy        retry.Policy
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewPDFRenderer builds a renderer from the export and pipeline configuration.
func NewPDFRenderer(cfg *config.Config) *PDFRenderer {
	policy := retry.NewPolicy(
		cfg.Pipeline.ExportAttempts,
		time.Duration(cfg.Pipeline.RetryBaseDelayMS)*time.Millisecond,
		time.Duration(cfg.Pipeline.RetryMaxDelayMS)*time.Millisecond,
	)
	return &PDFRenderer{cfg: cfg.Export, policy: policy}
}

// WithCommandRunner sets a custom command runner (for testing). The runner is
// expected to create the --print-to-pdf output file.
func (r *PDFRenderer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	r.commandRunner = runner
}

// Binary returns the configured chromium executable for health checks.
func (r *PDFRenderer) Binary() string {
	binary := strings.TrimSpace(r.cfg.ChromiumBinary)
	if binary == "" {
		binary = "chromium"
	}
	return binary
}

// RenderDeck renders the snapshot to HTML and prints it to PDF. Rendering
// failures from chromium are retried within the export attempt budget.
func (r *PDFRenderer) RenderDeck(ctx context.Context, snapshot *deck.WithSlides) ([]byte, error) {
	html, err := RenderHTML(snapshot)
	if err != nil {
		return nil, err
	}
	return r.RenderPDF(ctx, html)
}

// RenderPDF prints an HTML document to PDF.
func (r *PDFRenderer) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	if len(html) == 0 {
		return nil, services.Wrap(services.ErrValidation, "export", "render pdf", "html document is empty", nil)
	}

	workDir, err := os.MkdirTemp("", "slidecast-export-")
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "export", "render pdf", "create temp dir", err)
	}
	defer os.RemoveAll(workDir)

	htmlPath := filepath.Join(workDir, "deck.html")
	pdfPath := filepath.Join(workDir, "deck.pdf")
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return nil, services.Wrap(services.ErrTransient, "export", "render pdf", "write html", err)
	}

	var pdf []byte
	err = r.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		if err := r.runChromium(ctx, htmlPath, pdfPath); err != nil {
			return err
		}
		data, readErr := os.ReadFile(pdfPath)
		if readErr != nil {
			return services.Wrap(services.ErrExternalTool, "export", "render pdf",
				"chromium produced no output", readErr)
		}
		if len(data) == 0 {
			return services.Wrap(services.ErrExternalTool, "export", "render pdf",
				"chromium produced an empty pdf", nil)
		}
		pdf = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

func (r *PDFRenderer) runChromium(ctx context.Context, htmlPath, pdfPath string) error {
	if r.cfg.PDFTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.cfg.PDFTimeoutSeconds)*time.Second)
		defer cancel()
	}

	args := []string{
		"--headless",
		"--disable-gpu",
		"--no-sandbox",
		"--no-pdf-header-footer",
		"--print-to-pdf=" + pdfPath,
		"file://" + htmlPath,
	}
	if err := r.run(ctx, r.Binary(), args...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "export", "render pdf", "chromium timed out", err)
		}
		return services.Wrap(services.ErrExternalTool, "export", "render pdf", "", err)
	}
	return nil
}

func (r *PDFRenderer) run(ctx context.Context, name string, args ...string) error {
	if r.commandRunner != nil {
		return r.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
