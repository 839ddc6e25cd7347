package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"slidecast/internal/config"
)

const userAgent = "Slidecast-Go/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyDeckCreated(ctx context.Context, title string) error
	NotifyTranscriptReady(ctx context.Context, title string) error
	NotifyDeckCompleted(ctx context.Context, title string, totalSlides int) error
	NotifyDeckFailed(ctx context.Context, title, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		sendCompleted: cfg.Notifications.Completed,
		sendErrors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	sendCompleted bool
	sendErrors    bool
}

func (n *ntfyService) NotifyDeckCreated(ctx context.Context, title string) error {
	data := payload{
		title:   "Slidecast - Deck Created",
		message: fmt.Sprintf("New deck queued: %s", strings.TrimSpace(title)),
		tags:    []string{"slidecast", "deck", "created"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTranscriptReady(ctx context.Context, title string) error {
	data := payload{
		title:   "Slidecast - Transcribed",
		message: fmt.Sprintf("Transcript ready: %s", strings.TrimSpace(title)),
		tags:    []string{"slidecast", "transcribe", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDeckCompleted(ctx context.Context, title string, totalSlides int) error {
	if !n.sendCompleted {
		return nil
	}
	data := payload{
		title:   "Slidecast - Deck Ready",
		message: fmt.Sprintf("Deck completed: %s (%d slides)", strings.TrimSpace(title), totalSlides),
		tags:    []string{"slidecast", "deck", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDeckFailed(ctx context.Context, title, reason string) error {
	if !n.sendErrors {
		return nil
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "processing failed"
	}
	data := payload{
		title:    "Slidecast - Deck Failed",
		message:  fmt.Sprintf("Deck failed: %s (%s)", strings.TrimSpace(title), reason),
		tags:     []string{"slidecast", "deck", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Slidecast - Test",
		message:  "Notification system test",
		tags:     []string{"slidecast", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyDeckCreated(context.Context, string) error        { return nil }
func (noopService) NotifyTranscriptReady(context.Context, string) error    { return nil }
func (noopService) NotifyDeckCompleted(context.Context, string, int) error { return nil }
func (noopService) NotifyDeckFailed(context.Context, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
