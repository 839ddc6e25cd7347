package export_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"slidecast/internal/deck"
	"slidecast/internal/export"
	"slidecast/internal/services"
	"slidecast/internal/testsupport"
)

func completedSnapshot(slideCount int) *deck.WithSlides {
	snapshot := &deck.WithSlides{
		Deck: deck.Deck{
			ID:          1,
			Title:       "Demo Deck",
			Status:      deck.StatusCompleted,
			TotalSlides: slideCount,
		},
	}
	for i := 0; i < slideCount; i++ {
		snapshot.Slides = append(snapshot.Slides, &deck.Slide{
			ID:       int64(i + 1),
			DeckID:   1,
			Title:    "Slide Title",
			Content:  "Slide content line",
			Position: i,
		})
	}
	return snapshot
}

func TestRenderHTMLEscapesMarkup(t *testing.T) {
	snapshot := completedSnapshot(3)
	snapshot.Slides[0].Title = `<script>alert("x")</script>`
	snapshot.Slides[1].Content = `a < b && c > d`
	snapshot.Slides[2].SpeakerNotes = `<img src=x onerror=alert(1)>`

	html, err := export.RenderHTML(snapshot)
	if err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}
	doc := string(html)
	if strings.Contains(doc, "<script>alert") {
		t.Fatal("script tag leaked into rendered html")
	}
	if !strings.Contains(doc, "&lt;script&gt;") {
		t.Fatal("expected escaped script tag in output")
	}
	if strings.Contains(doc, "<img src=x") {
		t.Fatal("img tag leaked into rendered html")
	}
	if !strings.Contains(doc, "a &lt; b") {
		t.Fatal("expected escaped comparison operators")
	}
}

func TestRenderHTMLIncludesAllSlidesInOrder(t *testing.T) {
	snapshot := completedSnapshot(4)
	for i, slide := range snapshot.Slides {
		slide.Title = "Heading " + string(rune('A'+i))
	}

	html, err := export.RenderHTML(snapshot)
	if err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}
	doc := string(html)
	last := -1
	for _, heading := range []string{"Heading A", "Heading B", "Heading C", "Heading D"} {
		idx := strings.Index(doc, heading)
		if idx < 0 {
			t.Fatalf("missing %q in output", heading)
		}
		if idx < last {
			t.Fatalf("%q out of order", heading)
		}
		last = idx
	}
	if !strings.Contains(doc, "4 / 4") {
		t.Fatal("expected slide counter in output")
	}
}

func TestRenderHTMLGatesSmallDecks(t *testing.T) {
	_, err := export.RenderHTML(completedSnapshot(2))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for 2 slides, got %v", err)
	}
}

func TestRenderHTMLRejectsUnfinishedDecks(t *testing.T) {
	snapshot := completedSnapshot(3)
	snapshot.Status = deck.StatusProcessing

	_, err := export.RenderHTML(snapshot)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for processing deck, got %v", err)
	}

	if _, err := export.RenderHTML(nil); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error for nil snapshot, got %v", err)
	}
}

func TestSafeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Quarterly Review", "Quarterly_Review"},
		{"  spaced out  ", "spaced_out"},
		{"path/../injection", "path____injection"},
		{"", "deck"},
		{"???", "deck"},
		{"already-safe_name", "already-safe_name"},
	}
	for _, tc := range cases {
		if got := export.SafeFilename(tc.in); got != tc.want {
			t.Errorf("SafeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderPDFUsesChromium(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	renderer := export.NewPDFRenderer(cfg)

	var gotArgs []string
	renderer.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotArgs = args
		for _, arg := range args {
			if strings.HasPrefix(arg, "--print-to-pdf=") {
				return os.WriteFile(strings.TrimPrefix(arg, "--print-to-pdf="), []byte("%PDF-1.4 fake"), 0o644)
			}
		}
		return errors.New("no output path given")
	})

	pdf, err := renderer.RenderDeck(context.Background(), completedSnapshot(3))
	if err != nil {
		t.Fatalf("RenderDeck failed: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF") {
		t.Fatalf("unexpected pdf bytes: %q", string(pdf))
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "--headless") || !strings.Contains(joined, "--no-pdf-header-footer") {
		t.Fatalf("unexpected chromium args: %v", gotArgs)
	}
}

func TestRenderPDFRetriesToolFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Pipeline.RetryBaseDelayMS = 1
	cfg.Pipeline.RetryMaxDelayMS = 2
	renderer := export.NewPDFRenderer(cfg)

	attempts := 0
	renderer.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		attempts++
		if attempts == 1 {
			return errors.New("chromium: exit status 21")
		}
		for _, arg := range args {
			if strings.HasPrefix(arg, "--print-to-pdf=") {
				return os.WriteFile(strings.TrimPrefix(arg, "--print-to-pdf="), []byte("%PDF-1.4 ok"), 0o644)
			}
		}
		return errors.New("no output path given")
	})

	if _, err := renderer.RenderDeck(context.Background(), completedSnapshot(3)); err != nil {
		t.Fatalf("RenderDeck failed: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRenderPDFExhaustsBudget(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Pipeline.RetryBaseDelayMS = 1
	cfg.Pipeline.RetryMaxDelayMS = 2
	renderer := export.NewPDFRenderer(cfg)

	attempts := 0
	renderer.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		attempts++
		return errors.New("chromium: crashed")
	})

	_, err := renderer.RenderDeck(context.Background(), completedSnapshot(3))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if attempts != cfg.Pipeline.ExportAttempts {
		t.Fatalf("expected %d attempts, got %d", cfg.Pipeline.ExportAttempts, attempts)
	}
}
