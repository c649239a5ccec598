package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/estlookup/internal/model"
	"github.com/ppiankov/estlookup/internal/worker"
)

func testHTTPConfig() model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:      5 * time.Second,
		UserAgent:    "test-agent/1.0",
		MaxBodyBytes: 1 << 20,
	}
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent/1.0" {
			t.Errorf("Unexpected User-Agent: %s", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Unexpected Accept: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	resp, err := NewFetcher(testHTTPConfig()).Fetch(context.Background(), model.FetchRequest{
		URL:    server.URL,
		Accept: "application/json",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !resp.OK() {
		t.Errorf("Expected OK, got %d", resp.Meta.StatusCode)
	}
	if resp.Text() != `{"ok":true}` {
		t.Errorf("Unexpected body: %s", resp.Text())
	}
}

func TestFetch_NonSuccessIsNotAnError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	resp, err := NewFetcher(testHTTPConfig()).Fetch(context.Background(), model.FetchRequest{URL: server.URL})
	if err != nil {
		t.Fatalf("Expected no error for 503, got %v", err)
	}
	if resp.OK() {
		t.Error("Expected non-OK response")
	}
	if resp.Meta.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", resp.Meta.StatusCode)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected exactly one attempt, got %d", attempts.Load())
	}
}

func TestFetch_RequestOverrides(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "Browser/9" {
			t.Errorf("Unexpected User-Agent: %s", got)
		}
		if got := r.Header.Get("Accept-Language"); got != "en-US" {
			t.Errorf("Unexpected Accept-Language: %s", got)
		}
	}))
	defer server.Close()

	_, err := NewFetcher(testHTTPConfig()).Fetch(context.Background(), model.FetchRequest{
		URL:       server.URL,
		UserAgent: "Browser/9",
		Headers:   map[string]string{"Accept-Language": "en-US"},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
}

func TestFetch_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("x", 1000))
	}))
	defer server.Close()

	f := NewFetcher(testHTTPConfig())
	resp, err := f.Fetch(context.Background(), model.FetchRequest{URL: server.URL, MaxBytes: 100})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(resp.Body) != 100 {
		t.Errorf("Expected 100 bytes, got %d", len(resp.Body))
	}
}

func TestFetch_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	var observed atomic.Int32
	f := NewFetcher(testHTTPConfig()).WithObserver(func(host string, status int, elapsed time.Duration) {
		if status != 0 {
			t.Errorf("Expected status 0 on transport error, got %d", status)
		}
		observed.Add(1)
	})

	if _, err := f.Fetch(context.Background(), model.FetchRequest{URL: url}); err == nil {
		t.Fatal("Expected error for closed server")
	}
	if observed.Load() != 1 {
		t.Errorf("Expected observer to be called once, got %d", observed.Load())
	}
}

func TestFetch_ObserverSeesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	var status atomic.Int32
	f := NewFetcher(testHTTPConfig()).WithObserver(func(host string, s int, elapsed time.Duration) {
		status.Store(int32(s))
	})
	if _, err := f.Fetch(context.Background(), model.FetchRequest{URL: server.URL}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if status.Load() != http.StatusNotFound {
		t.Errorf("Expected observed 404, got %d", status.Load())
	}
}

func TestFetch_LimiterHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	f := NewFetcher(testHTTPConfig()).WithLimiter(worker.NewLimiter(0.001, 1))

	// first call consumes the burst
	if _, err := f.Fetch(context.Background(), model.FetchRequest{URL: server.URL}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := f.Fetch(ctx, model.FetchRequest{URL: server.URL}); err == nil {
		t.Error("Expected rate limit wait to fail on short deadline")
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	_, err := NewFetcher(testHTTPConfig()).Fetch(context.Background(), model.FetchRequest{URL: "://bad"})
	if err == nil {
		t.Error("Expected error for invalid URL")
	}
}
