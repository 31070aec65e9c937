package services_test

import (
	"errors"
	"strings"
	"testing"

	"paperscan/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "scanner", "scan", "scanimage failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"scanner", "scan", "scanimage failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestHintMapping(t *testing.T) {
	cases := []struct {
		marker error
		want   string
	}{
		{services.ErrConfiguration, "PAPERLESS_API_TOKEN"},
		{services.ErrNotFound, "scanimage -L"},
		{services.ErrExternalTool, "LOGLEVEL=DEBUG"},
		{services.ErrRejected, "API token"},
		{services.ErrTimeout, "upload_timeout"},
		{services.ErrTransient, "network"},
	}
	for _, tc := range cases {
		err := services.Wrap(tc.marker, "paperless", "upload", "failed", nil)
		if hint := services.Hint(err); !strings.Contains(hint, tc.want) {
			t.Fatalf("Hint(%v) = %q, want fragment %q", tc.marker, hint, tc.want)
		}
	}
	if hint := services.Hint(nil); hint != "" {
		t.Fatalf("expected empty hint for nil, got %q", hint)
	}
}
