package paperless_test

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

	"paperscan/internal/services"
	"paperscan/internal/services/paperless"
)

type captured struct {
	method      string
	auth        string
	contentType string
	field       string
	filename    string
	content     string
}

func newPaperless(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.auth = r.Header.Get("Authorization")
		got.contentType = r.Header.Get("Content-Type")
		if r.ContentLength <= 0 {
			t.Errorf("expected a content length, got %d", r.ContentLength)
		}
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for field, files := range r.MultipartForm.File {
				got.field = field
				got.filename = files[0].Filename
				f, err := files[0].Open()
				if err == nil {
					data, _ := io.ReadAll(f)
					got.content = string(data)
					f.Close()
				}
			}
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server, got
}

func writeScan(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "20240102_030405.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 scan"), 0o644); err != nil {
		t.Fatalf("write scan: %v", err)
	}
	return path
}

func TestNewRequiresURLAndToken(t *testing.T) {
	if _, err := paperless.New("", "token"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing url, got %v", err)
	}
	if _, err := paperless.New("http://paperless", " "); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing token, got %v", err)
	}
}

func TestUploadSuccessDeletesFile(t *testing.T) {
	server, got := newPaperless(t, http.StatusOK, `"5f0c1a52-6c1d-4c55-9d2f-7a3c8b0e2d11"`)
	client, err := paperless.New(server.URL+"/api/documents/post_document/", "secret")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	path := writeScan(t)

	receipt, err := client.Upload(context.Background(), path)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if got.method != http.MethodPost {
		t.Fatalf("expected POST, got %s", got.method)
	}
	if got.auth != "Token secret" {
		t.Fatalf("unexpected authorization header %q", got.auth)
	}
	if !strings.HasPrefix(got.contentType, "multipart/form-data") {
		t.Fatalf("unexpected content type %q", got.contentType)
	}
	if got.field != "document" || got.filename != "20240102_030405.pdf" {
		t.Fatalf("unexpected form part %q/%q", got.field, got.filename)
	}
	if got.content != "%PDF-1.4 scan" {
		t.Fatalf("unexpected uploaded content %q", got.content)
	}
	if receipt.TaskID != "5f0c1a52-6c1d-4c55-9d2f-7a3c8b0e2d11" {
		t.Fatalf("unexpected task id %q", receipt.TaskID)
	}
	if receipt.SizeBytes != int64(len("%PDF-1.4 scan")) {
		t.Fatalf("unexpected size %d", receipt.SizeBytes)
	}
	if receipt.RemoveErr != nil {
		t.Fatalf("unexpected remove error: %v", receipt.RemoveErr)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected scan to be deleted, stat err=%v", err)
	}
}

func TestUploadNonOKKeepsFile(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		server, _ := newPaperless(t, status, "  nope  ")
		client, _ := paperless.New(server.URL, "secret")
		path := writeScan(t)

		_, err := client.Upload(context.Background(), path)
		var statusErr *paperless.StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("status %d: expected StatusError, got %v", status, err)
		}
		if statusErr.StatusCode != status || statusErr.Body != "nope" {
			t.Fatalf("status %d: unexpected error %+v", status, statusErr)
		}
		if !errors.Is(err, services.ErrRejected) {
			t.Fatalf("status %d: expected rejected marker", status)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("status %d: expected scan to remain: %v", status, err)
		}
	}
}

func TestUploadMissingFile(t *testing.T) {
	client, _ := paperless.New("http://127.0.0.1:1", "secret")
	if _, err := client.Upload(context.Background(), filepath.Join(t.TempDir(), "absent.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestUploadTransportErrorKeepsFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	client, _ := paperless.New(endpoint, "secret")
	path := writeScan(t)
	_, err := client.Upload(context.Background(), path)
	if err == nil {
		t.Fatal("expected transport error")
	}
	var statusErr *paperless.StatusError
	if errors.As(err, &statusErr) {
		t.Fatalf("expected transport error, got status error %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected scan to remain: %v", err)
	}
}

func TestUploadTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client, _ := paperless.New(server.URL, "secret", paperless.WithTimeout(50*time.Millisecond))
	_, err := client.Upload(context.Background(), writeScan(t))
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}

func TestPingUsesAPIRoot(t *testing.T) {
	var path, auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		if auth != "Token good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, _ := paperless.New(server.URL+"/paperless/api/documents/post_document/", "good")
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
	if path != "/paperless/api/" {
		t.Fatalf("unexpected ping path %q", path)
	}

	bad, _ := paperless.New(server.URL+"/api/documents/post_document/", "bad")
	if err := bad.Ping(context.Background()); !errors.Is(err, services.ErrRejected) {
		t.Fatalf("expected rejected error, got %v", err)
	}
}
