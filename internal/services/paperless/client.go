package paperless

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"paperscan/internal/services"
)

const (
	userAgent     = "paperscan/0.1.0"
	documentField = "document"
	maxErrorBody  = 2048
)

// Uploader defines the behaviour the workflow runner needs.
type Uploader interface {
	Upload(ctx context.Context, path string) (Receipt, error)
}

// Receipt describes a document Paperless accepted.
type Receipt struct {
	// TaskID is the consumption task identifier Paperless returns.
	TaskID    string
	SizeBytes int64
	Duration  time.Duration
	// RemoveErr is set when the upload succeeded but the local file could
	// not be deleted.
	RemoveErr error
}

// StatusError reports a non-200 answer from Paperless.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("paperless returned %d", e.StatusCode)
	}
	return fmt.Sprintf("paperless returned %d: %s", e.StatusCode, e.Body)
}

// Unwrap lets callers match rejections with errors.Is(err, services.ErrRejected).
func (e *StatusError) Unwrap() error { return services.ErrRejected }

// Option configures the client.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout bounds each request. Zero or negative means no limit.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http = &http.Client{Timeout: timeout, Transport: c.http.Transport}
		}
	}
}

// Client posts documents to Paperless.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// New constructs a Paperless client for the given post_document URL.
func New(endpoint, token string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	token = strings.TrimSpace(token)
	if endpoint == "" {
		return nil, services.Wrap(services.ErrConfiguration, "paperless", "new client", "api url required", nil)
	}
	if token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "paperless", "new client", "api token required", nil)
	}
	client := &Client{
		endpoint: endpoint,
		token:    token,
		http:     &http.Client{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Upload posts the file at path as the document form field. On 200 the local
// file is removed; otherwise it is kept and a *StatusError or wrapped
// transport error is returned.
func (c *Client) Upload(ctx context.Context, path string) (Receipt, error) {
	start := time.Now()
	file, err := os.Open(path)
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrTransient, "paperless", "upload", "open scan", err)
	}

	var receipt Receipt
	if info, err := file.Stat(); err == nil {
		receipt.SizeBytes = info.Size()
	}

	body, contentType, err := multipartBody(file, filepath.Base(path))
	_ = file.Close()
	if err != nil {
		return receipt, services.Wrap(services.ErrTransient, "paperless", "upload", "read scan", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return receipt, services.Wrap(services.ErrConfiguration, "paperless", "upload", "build request", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		marker := services.ErrTransient
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			marker = services.ErrTimeout
		}
		return receipt, services.Wrap(marker, "paperless", "upload", "send request", err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_, _ = io.Copy(io.Discard, resp.Body)
	receipt.Duration = time.Since(start)

	if resp.StatusCode != http.StatusOK {
		return receipt, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}
	receipt.TaskID = strings.Trim(strings.TrimSpace(string(payload)), `"`)

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		receipt.RemoveErr = err
	}
	return receipt, nil
}

// Ping checks that the Paperless API answers and accepts the token. It sends
// a GET to the /api/ root derived from the upload URL.
func (c *Client) Ping(ctx context.Context) error {
	target, err := apiRoot(c.endpoint)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "paperless", "ping", "parse api url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "paperless", "ping", "build request", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "paperless", "ping", "send request", err)
	}
	defer resp.Body.Close()
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}
	return nil
}

func apiRoot(endpoint string) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("api url %q is not absolute", endpoint)
	}
	path := parsed.Path
	if idx := strings.Index(path, "/api/"); idx >= 0 {
		path = path[:idx+len("/api/")]
	} else {
		path = "/api/"
	}
	root := url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: path}
	return root.String(), nil
}

// multipartBody encodes file as the document form field. The form is
// buffered so the request carries a Content-Length; Paperless ignores chunked
// multipart bodies.
func multipartBody(file io.Reader, filename string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(documentField, filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
