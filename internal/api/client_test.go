package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:5000", "http://localhost:5000"},
		{"http://localhost:5000/", "http://localhost:5000"},
		{"https://archive.example.com/fleet//", "https://archive.example.com/fleet"},
	}
	for _, tt := range tests {
		c := New(tt.in, "secret123")
		if c.baseURL != tt.want {
			t.Errorf("New(%q).baseURL = %q, want %q", tt.in, c.baseURL, tt.want)
		}
		if c.apiKey != "secret123" {
			t.Errorf("expected apiKey=secret123, got %s", c.apiKey)
		}
		if c.httpClient == nil || c.httpClient.Timeout == 0 {
			t.Error("expected an http client with a timeout")
		}
	}
}

func TestHealthcheck_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthcheck" {
			t.Errorf("expected path /healthcheck, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := New(server.URL, "").Healthcheck(context.Background()); err != nil {
		t.Errorf("Healthcheck failed: %v", err)
	}
}

func TestHealthcheck_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	if err := New(url, "").Healthcheck(context.Background()); err == nil {
		t.Error("expected error for unreachable server")
	}
}

func TestHealthcheck_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database offline", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := New(server.URL, "").Healthcheck(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.Status != http.StatusServiceUnavailable || se.Body != "database offline" {
		t.Errorf("unexpected status error: %+v", se)
	}
	if !strings.Contains(err.Error(), "healthcheck returned status 503") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestUpload_Success(t *testing.T) {
	fields := map[string]string{}
	var receivedFileContent []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sessions" {
			t.Errorf("expected path /api/v1/sessions, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for _, key := range []string{"secret", "filename", "sessionId", "scenario", "duration", "ticks", "arrived"} {
			fields[key] = r.FormValue(key)
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("failed to get file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		receivedFileContent, _ = io.ReadAll(file)

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	testFile := filepath.Join(t.TempDir(), "standing_20260301_120000.json.gz")
	if err := os.WriteFile(testFile, []byte("test content"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	c := New(server.URL, "mysecret")
	meta := UploadMetadata{
		SessionID: "s1",
		Scenario:  "standing",
		Duration:  5900 * time.Millisecond,
		Ticks:     59,
		Arrived:   true,
	}
	if err := c.Upload(context.Background(), testFile, meta); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	want := map[string]string{
		"secret":    "mysecret",
		"filename":  "standing_20260301_120000.json.gz",
		"sessionId": "s1",
		"scenario":  "standing",
		"duration":  "5.900",
		"ticks":     "59",
		"arrived":   "true",
	}
	for key, value := range want {
		if fields[key] != value {
			t.Errorf("expected %s=%s, got %s", key, value, fields[key])
		}
	}
	if string(receivedFileContent) != "test content" {
		t.Errorf("expected file content 'test content', got '%s'", string(receivedFileContent))
	}
}

func TestUpload_FileNotFound(t *testing.T) {
	c := New("http://localhost:5000", "secret")
	if err := c.Upload(context.Background(), "/nonexistent/file.json.gz", UploadMetadata{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestUpload_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	testFile := filepath.Join(t.TempDir(), "test.json.gz")
	if err := os.WriteFile(testFile, []byte("content"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	err := New(server.URL, "wrong-secret").Upload(context.Background(), testFile, UploadMetadata{})
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusForbidden {
		t.Fatalf("expected 403 StatusError, got %v", err)
	}
	if se.Body != "" {
		t.Errorf("expected empty body, got %q", se.Body)
	}
}

func TestUpload_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer server.Close()

	testFile := filepath.Join(t.TempDir(), "test.json.gz")
	if err := os.WriteFile(testFile, []byte("content"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(server.URL, "").Upload(ctx, testFile, UploadMetadata{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
