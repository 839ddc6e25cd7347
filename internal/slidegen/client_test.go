package slidegen_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"slidecast/internal/config"
	"slidecast/internal/services"
	"slidecast/internal/slidegen"
)

func newTestClient(serverURL string) *slidegen.Client {
	return slidegen.NewClient(config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "test-model",
	})
}

func TestCompleteJSONReturnsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer server.Close()

	content, err := newTestClient(server.URL).CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON failed: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestCompleteJSONToleratesDeltaSchema(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"delta":{"content":"{\"slides\":[]}"}}]}`))
	}))
	defer server.Close()

	content, err := newTestClient(server.URL).CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON failed: %v", err)
	}
	if content != `{"slides":[]}` {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestCompleteJSONClassifiesServerErrorsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CompleteJSON(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if !services.Recoverable(err) {
		t.Fatal("expected server errors to be recoverable")
	}
}

func TestCompleteJSONClassifiesAuthFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CompleteJSON(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if services.Recoverable(err) {
		t.Fatal("expected auth failures to stop retries")
	}
}

func TestCompleteJSONRequiresAPIKey(t *testing.T) {
	client := slidegen.NewClient(config.LLMConfig{Model: "m"})
	_, err := client.CompleteJSON(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCompleteJSONEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""},"finish_reason":"length"}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CompleteJSON(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error for empty content, got %v", err)
	}
}

func TestDecodeModelJSONStripsCodeFences(t *testing.T) {
	var parsed struct {
		OK bool `json:"ok"`
	}
	payload := "```json\n{\"ok\": true}\n```"
	if err := slidegen.DecodeModelJSON(payload, &parsed); err != nil {
		t.Fatalf("DecodeModelJSON failed: %v", err)
	}
	if !parsed.OK {
		t.Fatal("expected ok=true")
	}
}

func TestDecodeModelJSONExtractsEmbeddedObject(t *testing.T) {
	var parsed struct {
		Value int `json:"value"`
	}
	payload := `Here is the result you asked for: {"value": 42} hope that helps`
	if err := slidegen.DecodeModelJSON(payload, &parsed); err != nil {
		t.Fatalf("DecodeModelJSON failed: %v", err)
	}
	if parsed.Value != 42 {
		t.Fatalf("unexpected value: %d", parsed.Value)
	}
}
