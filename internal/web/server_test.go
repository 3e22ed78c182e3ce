package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/dial-sensor/internal/selector"
	"github.com/sweeney/dial-sensor/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:      50,
		HeartbeatMs: 900000,
		Positions:   4,
		Deadzone:    0.2,
		Labels:      []string{"off", "low", "medium", "high"},
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(2, 611)
	tr.SetReady(true)
	tr.SetMQTTConnected(true)
	tr.RecordChange(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.Position != 2 {
		t.Errorf("Position: got %d, want 2", sj.Status.Position)
	}
	if sj.Status.Label != "medium" {
		t.Errorf("Label: got %q, want medium", sj.Status.Label)
	}
	if sj.Status.Reading != 611 {
		t.Errorf("Reading: got %d, want 611", sj.Status.Reading)
	}
	if !sj.Status.Ready {
		t.Error("expected Ready=true")
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.Counts.Up != 1 {
		t.Errorf("Counts.Up: got %d, want 1", sj.Status.Counts.Up)
	}
	if sj.Status.Config.PollMs != 50 {
		t.Errorf("Config.PollMs: got %d, want 50", sj.Status.Config.PollMs)
	}
}

func TestIndexPage(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(1, 320)
	tr.SetReady(true)
	tr.SetZones([]selector.Zone{
		{Index: 0, Low: 0, High: 254},
		{Index: 1, Low: 204, High: 509},
		{Index: 2, Low: 459, High: 764},
		{Index: 3, Low: 714, High: 1023},
	})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	page := string(body)

	for _, want := range []string{
		"Dial Sensor",
		"low",          // selected position's label
		"320",          // raw reading
		"204",          // a zone bound
		"/index.json",  // link to JSON
		"/metrics",     // link to metrics
	} {
		if !strings.Contains(page, want) {
			t.Errorf("index page missing %q", want)
		}
	}
}

func TestIndexNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	// Default registry always carries the Go runtime collectors.
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("metrics output missing runtime collectors")
	}
}

func TestRenderHTMLWithoutZones(t *testing.T) {
	// Template must not choke before SetZones has been called.
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := status.NewTracker(start, status.Config{Positions: 2})

	var sb strings.Builder
	renderHTML(&sb, tr.Snapshot())
	if !strings.Contains(sb.String(), "position 0") {
		t.Error("expected unlabeled position name in output")
	}
}
