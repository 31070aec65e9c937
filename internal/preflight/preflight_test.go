package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"paperscan/internal/services/scanimage"
	"paperscan/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	testsupport.WriteFile(t, f, "x")
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckPaperless_OK(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if r.Header.Get("Authorization") != "Token good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckPaperless(context.Background(), srv.URL+"/api/documents/post_document/", "good-token")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if path != "/api/" {
		t.Fatalf("expected api root request, got %q", path)
	}
}

func TestCheckPaperless_BadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	result := CheckPaperless(context.Background(), srv.URL+"/api/documents/post_document/", "bad-token")
	if result.Passed {
		t.Fatal("expected failure for bad token")
	}
	if !strings.Contains(result.Detail, "invalid api token") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckPaperless_MissingSettings(t *testing.T) {
	if result := CheckPaperless(context.Background(), "", "token"); result.Passed || result.Detail != "missing url" {
		t.Fatalf("unexpected result for missing url: %#v", result)
	}
	if result := CheckPaperless(context.Background(), "http://localhost", ""); result.Passed || result.Detail != "missing api token" {
		t.Fatalf("unexpected result for missing token: %#v", result)
	}
}

func TestCheckRequiredSettings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if result := CheckRequiredSettings(cfg); !result.Passed {
		t.Fatalf("expected complete config to pass: %s", result.Detail)
	}
	cfg.Scanner.Device = ""
	result := CheckRequiredSettings(cfg)
	if result.Passed || !strings.Contains(result.Detail, "DEVICE") {
		t.Fatalf("expected missing device to be named, got %#v", result)
	}
}

type listStub struct {
	devices []scanimage.Device
	err     error
}

func (l listStub) Scan(context.Context, scanimage.Settings, string) (scanimage.Result, error) {
	return scanimage.Result{}, errors.New("not used")
}

func (l listStub) ListDevices(context.Context) ([]scanimage.Device, string, error) {
	return l.devices, "", l.err
}

func TestProbeScanner(t *testing.T) {
	devices := []scanimage.Device{
		{Name: "epson2:net:10.0.0.5", Description: "Epson flatbed scanner"},
		{Name: "fujitsu:ScanSnap iX500:1", Description: "FUJITSU ScanSnap iX500 scanner"},
	}
	probe := ProbeScanner(context.Background(), listStub{devices: devices}, "fujitsu:ScanSnap iX500:1")
	if !probe.Listed {
		t.Fatal("expected configured device to be listed")
	}
	if !strings.Contains(probe.DeviceDetail(), "FUJITSU ScanSnap iX500 scanner") {
		t.Fatalf("unexpected detail %q", probe.DeviceDetail())
	}

	probe = ProbeScanner(context.Background(), listStub{devices: devices}, "absent:device")
	if probe.Listed || !strings.Contains(probe.DeviceDetail(), "not listed (2 visible)") {
		t.Fatalf("unexpected probe for absent device: %#v %q", probe, probe.DeviceDetail())
	}

	probe = ProbeScanner(context.Background(), listStub{err: errors.New("boom")}, "x")
	if probe.Listed || !strings.Contains(probe.DeviceDetail(), "listing failed") {
		t.Fatalf("unexpected probe for list error: %q", probe.DeviceDetail())
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_HealthyConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t,
		testsupport.WithPaperless(srv.URL+"/api/documents/post_document/", "token"),
		testsupport.WithDevice("fujitsu:ScanSnap iX500:1"),
		testsupport.WithDirectories(),
		testsupport.WithScannerScript("echo \"device \\`fujitsu:ScanSnap iX500:1' is a FUJITSU ScanSnap iX500 scanner\""),
	)

	results := RunAll(context.Background(), cfg)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	for _, want := range []string{"Required settings", "Work directory", "Log directory", "Binary scanimage", "Paperless", "Scanner"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected %q in results, got %v", want, names)
		}
	}
	if !AllPassed(results) {
		t.Fatal("expected AllPassed")
	}
}

func TestRunAll_SkipsScannerWhenBinaryMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	cfg.Scanner.Binary = filepath.Join(t.TempDir(), "no-such-scanimage")

	results := RunAll(context.Background(), cfg)
	for _, r := range results {
		if r.Name == "Scanner" {
			t.Fatal("scanner probe should be skipped without a binary")
		}
		if r.Name == "Binary scanimage" && r.Passed {
			t.Fatal("expected binary check to fail")
		}
	}
	if AllPassed(results) {
		t.Fatal("expected at least one failure")
	}
}
