package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ajmckee/fpl-assistant/internal/platform/logging"
	"github.com/ajmckee/fpl-assistant/internal/usecase"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		HTTPClient: server.Client(),
		BaseURL:    server.URL,
		APIKey:     "test-key",
		Logger:     logging.NewNop(),
	})
}

func TestClient_Generate(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key query param")
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "Who should I captain?") {
			t.Errorf("request body missing user prompt: %s", body)
		}
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "Captain "}, {"text": "Haaland."}]}}]}`))
	}))

	text, err := client.Generate(context.Background(), "You are an assistant.", "Who should I captain?")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Captain Haaland." {
		t.Fatalf("unexpected reply %q", text)
	}
}

func TestClient_GenerateEmptyCandidates(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))

	_, err := client.Generate(context.Background(), "", "question")
	if !errors.Is(err, usecase.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestClient_GenerateProviderError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.Generate(context.Background(), "", "question")
	if !errors.Is(err, usecase.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if strings.Contains(err.Error(), "test-key") {
		t.Fatalf("api key leaked into error: %v", err)
	}
}

func TestClient_GenerateEmptyPrompt(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "k", Logger: logging.NewNop()})

	if _, err := client.Generate(context.Background(), "", "  "); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
