package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFF fake wav"), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestClient_Transcribe(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q, want %q", got, "whisper-1")
		}
		gotPrompt = r.FormValue("prompt")
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("file part missing: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "hello world"}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "test-key", BaseURL: srv.URL})

	text, err := c.Transcribe(context.Background(), writeArtifact(t), "Vocabulary hints: pgx")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "hello world" {
		t.Errorf("Transcribe() = %q, want %q", text, "hello world")
	}
	if !strings.Contains(gotPrompt, "Vocabulary hints") {
		t.Errorf("prompt field = %q, want the bias prompt", gotPrompt)
	}
}

func TestClient_TranscribeAPIFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "unauthorized", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "bad-key", BaseURL: srv.URL})

	_, err := c.Transcribe(context.Background(), writeArtifact(t), "")
	if err == nil {
		t.Fatal("Transcribe() error = nil, want API error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Transcribe() error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want %d", apiErr.Status, http.StatusUnauthorized)
	}
	if !strings.Contains(apiErr.Error(), "401") {
		t.Errorf("Error() = %q, want it to contain the status code", apiErr.Error())
	}
	if attempts != 1 {
		t.Errorf("server saw %d attempts, want exactly 1", attempts)
	}
}

func TestClient_TranscribeNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately: connection refused

	c := New(Config{APIKey: "test-key", BaseURL: srv.URL})

	_, err := c.Transcribe(context.Background(), writeArtifact(t), "")
	if err == nil {
		t.Fatal("Transcribe() error = nil, want transport error")
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("Transcribe() error = %v, want a non-API transport error", err)
	}
}

func TestClient_TranscribeMissingArtifact(t *testing.T) {
	c := New(Config{APIKey: "test-key"})

	_, err := c.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), "")
	if err == nil {
		t.Fatal("Transcribe() error = nil, want open error")
	}
}
