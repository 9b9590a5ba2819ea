// Package client talks to the background-removal service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/cutout/internal/domain"
	"github.com/segmentio/ksuid"
)

const (
	defaultTimeout = 5 * time.Minute
	userAgent      = "Cutout/1.0"

	PathRemove      = "/remove-background"
	PathRemoveBatch = "/remove-background-batch"
	PathHealth      = "/health"

	// Multipart field names expected by the service
	FieldSingle = "file"
	FieldBatch  = "files"

	headerRequestID = "X-Request-ID"
)

// Response is a successful binary response from the service
type Response struct {
	Body        []byte
	ContentType string
	Filename    string // From Content-Disposition, informational only
	RequestID   string
}

// Client calls the removal endpoints
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new removal service client.
// baseURL already includes the API prefix, e.g. http://localhost:8000/api.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RemoveBackground uploads one image as field "file" and returns the processed image
func (c *Client) RemoveBackground(ctx context.Context, file domain.SelectedFile, onProgress domain.ProgressFunc) (*Response, error) {
	return c.upload(ctx, PathRemove, FieldSingle, []domain.SelectedFile{file}, onProgress)
}

// RemoveBackgroundBatch uploads every image as a repeated "files" field and returns a ZIP
func (c *Client) RemoveBackgroundBatch(ctx context.Context, files []domain.SelectedFile, onProgress domain.ProgressFunc) (*Response, error) {
	if len(files) == 0 {
		return nil, domain.ErrNoFiles
	}
	return c.upload(ctx, PathRemoveBatch, FieldBatch, files, onProgress)
}

// Health checks that the service answers its health endpoint
func (c *Client) Health(ctx context.Context) error {
	reqURL := c.baseURL + PathHealth
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("health check failed", "url", reqURL, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp.StatusCode, body)
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		return fmt.Errorf("failed to parse health response: %w", err)
	}
	if health.Status != "healthy" {
		return fmt.Errorf("service reports status %q", health.Status)
	}
	return nil
}

// upload builds the multipart body, posts it, and returns the binary response
func (c *Client) upload(ctx context.Context, path, field string, files []domain.SelectedFile, onProgress domain.ProgressFunc) (*Response, error) {
	body, contentType, err := buildMultipart(field, files)
	if err != nil {
		return nil, err
	}

	reqURL := c.baseURL + path
	total := int64(body.Len())
	reader := newProgressReader(body, total, onProgress)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = total

	requestID := ksuid.New().String()
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(headerRequestID, requestID)

	c.logger.Debug("removal request",
		"request_id", requestID,
		"url", reqURL,
		"files", len(files),
		"bytes", total,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("removal request failed", "request_id", requestID, "error", err)
		return nil, &domain.RequestError{Err: transportError(err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("failed to read removal response", "request_id", requestID, "error", err)
		return nil, &domain.RequestError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("removal request error",
			"request_id", requestID,
			"status", resp.StatusCode,
			"body", truncate(string(respBody), 512),
		)
		return nil, parseErrorResponse(resp.StatusCode, respBody)
	}

	c.logger.Info("removal request complete",
		"request_id", requestID,
		"status", resp.StatusCode,
		"bytes", len(respBody),
		"elapsed", time.Since(start),
	)

	return &Response{
		Body:        respBody,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    dispositionFilename(resp.Header.Get("Content-Disposition")),
		RequestID:   requestID,
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// buildMultipart writes every file as a part named field into an in-memory body.
// The body is fully built up front so its length is known for progress.
func buildMultipart(field string, files []domain.SelectedFile) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, f := range files {
		if err := writeFilePart(writer, field, f); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func writeFilePart(writer *multipart.Writer, field string, f domain.SelectedFile) error {
	file, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	contentType := f.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", contentType)

	part, err := writer.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy form file: %w", err)
	}
	return nil
}

// parseErrorResponse turns a non-2xx response into a RequestError, pulling
// the "detail" field out of a JSON body when there is one
func parseErrorResponse(status int, body []byte) *domain.RequestError {
	return &domain.RequestError{
		StatusCode: status,
		Detail:     parseDetail(body),
	}
}

// parseDetail extracts the detail text from a JSON error body.
// detail may be a string, or a list of validation errors each carrying "msg".
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	if string(payload.Detail) == "null" {
		return ""
	}
	return string(payload.Detail)
}

// transportError unwraps *url.Error noise while keeping context errors intact
func transportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
}

// dispositionFilename returns the filename parameter of a Content-Disposition header
func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
