// File path: internal/whisper/client_test.go
package whisper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig(baseURL string) Config {
	cfg := Config{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		PollInterval: 10 * time.Millisecond,
		PollTimeout:  2 * time.Second,
	}
	cfg.applyDefaults()
	cfg.PollInterval = 10 * time.Millisecond
	return cfg
}

func TestExtractTextFullCycle(t *testing.T) {
	var statusCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("unstract-key") != "test-key" {
			t.Fatalf("missing api key header")
		}
		switch r.URL.Path {
		case "/whisper":
			if r.Method != http.MethodPost {
				t.Fatalf("submit used method %s", r.Method)
			}
			if got := r.URL.Query().Get("output_mode"); got != "layout_preserving" {
				t.Fatalf("unexpected output_mode %q", got)
			}
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte(`{"whisper_hash":"abc123"}`)); err != nil {
				t.Fatalf("write submit response: %v", err)
			}
		case "/whisper-status":
			if got := r.URL.Query().Get("whisper_hash"); got != "abc123" {
				t.Fatalf("unexpected hash %q", got)
			}
			if atomic.AddInt32(&statusCalls, 1) < 3 {
				if _, err := w.Write([]byte(`{"status":"processing"}`)); err != nil {
					t.Fatalf("write status response: %v", err)
				}
				return
			}
			if _, err := w.Write([]byte(`{"status":"processed"}`)); err != nil {
				t.Fatalf("write status response: %v", err)
			}
		case "/whisper-retrieve":
			if got := r.URL.Query().Get("text_only"); got != "true" {
				t.Fatalf("expected text_only=true, got %q", got)
			}
			if _, err := w.Write([]byte("WELDING PROCEDURE SPECIFICATION")); err != nil {
				t.Fatalf("write retrieve response: %v", err)
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	text, err := client.ExtractText(context.Background(), []byte("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("extract text: %v", err)
	}
	if text != "WELDING PROCEDURE SPECIFICATION" {
		t.Fatalf("unexpected text %q", text)
	}
	if calls := atomic.LoadInt32(&statusCalls); calls < 3 {
		t.Fatalf("expected at least 3 status polls, got %d", calls)
	}
}

func TestExtractTextErrorStatusFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/whisper":
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte(`{"whisper_hash":"bad"}`)); err != nil {
				t.Fatalf("write submit response: %v", err)
			}
		case "/whisper-status":
			if _, err := w.Write([]byte(`{"status":"error"}`)); err != nil {
				t.Fatalf("write status response: %v", err)
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	if _, err := client.ExtractText(context.Background(), []byte("doc")); err == nil {
		t.Fatalf("expected error for failed extraction")
	}
}

func TestExtractTextRejectedSubmit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	if _, err := client.ExtractText(context.Background(), []byte("doc")); err == nil {
		t.Fatalf("expected error for rejected submit")
	}
	if client.Available() {
		t.Fatalf("client should be marked unavailable after submit failure")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{BaseURL: "http://localhost:1"}); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestExtractTextEmptyDocument(t *testing.T) {
	client, err := NewClient(testConfig("http://localhost:1"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()
	if _, err := client.ExtractText(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty document")
	}
}
