// Package api uploads finished session recordings to the fleet archive server.
package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	healthPath  = "/healthcheck"
	sessionPath = "/api/v1/sessions"

	// maxErrorBody caps how much of a failed response is kept in StatusError.
	maxErrorBody = 512
)

// UploadMetadata describes the recording being uploaded.
type UploadMetadata struct {
	SessionID string
	Scenario  string
	Duration  time.Duration
	Ticks     uint64
	Arrived   bool
}

// fields returns the form fields sent ahead of the file, in wire order.
func (m UploadMetadata) fields() [][2]string {
	return [][2]string{
		{"sessionId", m.SessionID},
		{"scenario", m.Scenario},
		{"duration", strconv.FormatFloat(m.Duration.Seconds(), 'f', 3, 64)},
		{"ticks", strconv.FormatUint(m.Ticks, 10)},
		{"arrived", strconv.FormatBool(m.Arrived)},
	}
}

// StatusError is returned when the server answers with an unexpected status.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Op, e.Status, e.Body)
}

// Client talks to the archive server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck checks if the archive server is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus("healthcheck", resp, http.StatusOK)
}

// Upload streams an exported recording to the server as a multipart form.
// The file is never held in memory as a whole.
func (c *Client) Upload(ctx context.Context, filePath string, meta UploadMetadata) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	name := filepath.Base(filePath)

	writeErr := make(chan error, 1)
	go func() {
		err := c.writeForm(form, name, meta, file)
		if cerr := form.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
		writeErr <- err
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sessionPath, pr)
	if err != nil {
		pr.CloseWithError(err)
		<-writeErr
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		<-writeErr
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := <-writeErr; err != nil {
		return err
	}
	return checkStatus("upload", resp, http.StatusOK, http.StatusCreated)
}

func (c *Client) writeForm(form *multipart.Writer, name string, meta UploadMetadata, src io.Reader) error {
	if err := form.WriteField("secret", c.apiKey); err != nil {
		return fmt.Errorf("failed to write form: %w", err)
	}
	if err := form.WriteField("filename", name); err != nil {
		return fmt.Errorf("failed to write form: %w", err)
	}
	for _, kv := range meta.fields() {
		if err := form.WriteField(kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to write form: %w", err)
		}
	}

	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return nil
}

func checkStatus(op string, resp *http.Response, accepted ...int) error {
	for _, code := range accepted {
		if resp.StatusCode == code {
			return nil
		}
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
