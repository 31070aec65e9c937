package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"paperscan/internal/metrics"
)

func TestCountersStartAtZero(t *testing.T) {
	reg := metrics.New()
	expected := `
# HELP scan_fail_total Total number of failed scans
# TYPE scan_fail_total counter
scan_fail_total 0
# HELP scan_success_total Total number of successful scans
# TYPE scan_success_total counter
scan_success_total 0
# HELP last_scan_timestamp Timestamp of the last successful scan
# TYPE last_scan_timestamp gauge
last_scan_timestamp 0
`
	if err := testutil.GatherAndCompare(reg.Gatherer(), strings.NewReader(expected),
		"scan_success_total", "scan_fail_total", "last_scan_timestamp"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestScanSucceededAdvancesGauge(t *testing.T) {
	reg := metrics.New()
	first := time.Unix(1_700_000_000, 0)
	reg.ScanSucceeded(first)
	reg.ScanSucceeded(first.Add(-time.Hour))

	if got := reg.LastSuccess(); got != float64(first.Unix()) {
		t.Fatalf("gauge moved backwards: %v", got)
	}
	reg.ScanSucceeded(first.Add(time.Minute))
	if got := reg.LastSuccess(); got != float64(first.Add(time.Minute).Unix()) {
		t.Fatalf("gauge did not advance: %v", got)
	}

	expected := `
# HELP scan_success_total Total number of successful scans
# TYPE scan_success_total counter
scan_success_total 3
`
	if err := testutil.GatherAndCompare(reg.Gatherer(), strings.NewReader(expected), "scan_success_total"); err != nil {
		t.Fatalf("unexpected success counter: %v", err)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	reg := metrics.New()
	base := time.Unix(1_700_000_000, 0)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg.ScanSucceeded(base.Add(time.Duration(i) * time.Second))
			reg.ScanFailed()
		}(i)
	}
	wg.Wait()

	if got := reg.LastSuccess(); got != float64(base.Add(49*time.Second).Unix()) {
		t.Fatalf("expected latest timestamp to win, got %v", got)
	}
	expected := `
# HELP scan_fail_total Total number of failed scans
# TYPE scan_fail_total counter
scan_fail_total 50
# HELP scan_success_total Total number of successful scans
# TYPE scan_success_total counter
scan_success_total 50
`
	if err := testutil.GatherAndCompare(reg.Gatherer(), strings.NewReader(expected),
		"scan_success_total", "scan_fail_total"); err != nil {
		t.Fatalf("unexpected counters: %v", err)
	}
}

func TestObserveScanRecordsHistogram(t *testing.T) {
	reg := metrics.New()
	reg.ObserveScan(3 * time.Second)
	reg.ObserveScan(40 * time.Second)
	if n, err := testutil.GatherAndCount(reg.Gatherer(), "scan_duration_seconds"); err != nil || n != 1 {
		t.Fatalf("expected one histogram series, got %d (err=%v)", n, err)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	reg := metrics.New()
	reg.ScanFailed()
	server := httptest.NewServer(reg.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	for _, want := range []string{"scan_fail_total 1", "scan_success_total 0", "last_scan_timestamp 0", "go_goroutines", "process_"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected %q in exposition output", want)
		}
	}
}
