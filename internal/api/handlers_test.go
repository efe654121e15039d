// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/meridian/internal/brief"
	"github.com/tomtom215/meridian/internal/detection"
	"github.com/tomtom215/meridian/internal/models"
	"github.com/tomtom215/meridian/internal/store"
)

// staticSignals serves a fixed scan result.
type staticSignals struct {
	signals []detection.Signal
}

func (s *staticSignals) Latest() []detection.Signal { return s.signals }

// fakeSynth records its arguments and returns a canned result.
type fakeSynth struct {
	contextLabel   string
	anomalyContext string
	eventCount     int
	result         brief.Result
}

func (f *fakeSynth) Synthesize(_ context.Context, events []models.Event, contextLabel, anomalyContext string) brief.Result {
	f.contextLabel = contextLabel
	f.anomalyContext = anomalyContext
	f.eventCount = len(events)
	return f.result
}

func testServer(t *testing.T, signals []detection.Signal, synth *fakeSynth) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Config{InMemory: true, Retention: time.Hour})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if synth == nil {
		synth = &fakeSynth{result: brief.Result{Text: "brief", Provenance: brief.ProvenanceLocal}}
	}
	h := NewHandlers(st, &staticSignals{signals: signals}, synth)
	srv := httptest.NewServer(NewRouter(h, RouterConfig{CORSOrigins: []string{"*"}}))
	t.Cleanup(srv.Close)
	return srv, st
}

func eventJSON(id string, domain models.Domain) map[string]interface{} {
	return map[string]interface{}{
		"id":        id,
		"timestamp": "2026-08-30T12:00:00Z",
		"domain":    string(domain),
		"severity":  "high",
		"title":     "Event " + id,
		"location":  map[string]interface{}{"latitude": 45.0, "longitude": 12.0, "country": "Italy"},
	}
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestIngestEvents(t *testing.T) {
	srv, st := testServer(t, nil, nil)

	batch := []interface{}{
		eventJSON("evt-1", models.DomainClimate),
		eventJSON("evt-2", models.DomainConflict),
	}
	resp := postJSON(t, srv.URL+"/api/v1/events", batch)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var result ingestResult
	decodeBody(t, resp, &result)
	if result.Accepted != 2 || len(result.Rejected) != 0 {
		t.Errorf("result = %+v, want 2 accepted", result)
	}

	if n, _ := st.Count(); n != 2 {
		t.Errorf("store count = %d, want 2", n)
	}
}

func TestIngestEventsPartialRejection(t *testing.T) {
	srv, st := testServer(t, nil, nil)

	bad := eventJSON("evt-bad", models.DomainClimate)
	bad["domain"] = "astrology"
	batch := []interface{}{eventJSON("evt-1", models.DomainHealth), bad}

	resp := postJSON(t, srv.URL+"/api/v1/events", batch)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var result ingestResult
	decodeBody(t, resp, &result)
	if result.Accepted != 1 {
		t.Errorf("accepted = %d, want 1", result.Accepted)
	}
	if len(result.Rejected) != 1 || result.Rejected[0].Index != 1 {
		t.Errorf("rejected = %+v, want index 1", result.Rejected)
	}
	if n, _ := st.Count(); n != 1 {
		t.Errorf("store count = %d, want 1", n)
	}
}

func TestIngestEventsAllRejected(t *testing.T) {
	srv, _ := testServer(t, nil, nil)

	bad := eventJSON("evt-bad", models.DomainClimate)
	bad["severity"] = "apocalyptic"
	resp := postJSON(t, srv.URL+"/api/v1/events", []interface{}{bad})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestIngestEventsMalformedBody(t *testing.T) {
	srv, _ := testServer(t, nil, nil)

	resp, err := http.Post(srv.URL+"/api/v1/events", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestIngestAssignsIDAndTimestamp(t *testing.T) {
	srv, st := testServer(t, nil, nil)

	event := eventJSON("", models.DomainScience)
	delete(event, "id")
	delete(event, "timestamp")
	resp := postJSON(t, srv.URL+"/api/v1/events", []interface{}{event})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	events, err := st.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("stored %d events, want 1", len(events))
	}
	if events[0].ID == "" {
		t.Error("stored event has empty ID, want generated UUID")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("stored event has zero timestamp, want server-assigned time")
	}
}

func TestListEventsDomainFilter(t *testing.T) {
	srv, st := testServer(t, nil, nil)

	err := st.PutBatch([]models.Event{
		storedEvent("a", models.DomainClimate),
		storedEvent("b", models.DomainConflict),
		storedEvent("c", models.DomainClimate),
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/v1/events?domain=climate")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var body struct {
		Events []models.Event `json:"events"`
		Count  int            `json:"count"`
	}
	decodeBody(t, resp, &body)
	if body.Count != 2 {
		t.Errorf("count = %d, want 2 climate events", body.Count)
	}
	for _, e := range body.Events {
		if e.Domain != models.DomainClimate {
			t.Errorf("event %s domain = %s, want climate", e.ID, e.Domain)
		}
	}

	resp, err = http.Get(srv.URL + "/api/v1/events?domain=astrology")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown domain status = %d, want 400", resp.StatusCode)
	}
}

func TestGetEvent(t *testing.T) {
	srv, st := testServer(t, nil, nil)
	if err := st.Put(storedEvent("evt-1", models.DomainHealth)); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/v1/events/evt-1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var event models.Event
	decodeBody(t, resp, &event)
	if event.ID != "evt-1" {
		t.Errorf("ID = %s, want evt-1", event.ID)
	}

	resp, err = http.Get(srv.URL + "/api/v1/events/missing")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing event status = %d, want 404", resp.StatusCode)
	}
}

func TestAnomalies(t *testing.T) {
	signals := []detection.Signal{
		{ID: "conflict:10:20", Domain: models.DomainConflict, Label: "conflict activity near Sahel", Count: 20, Zscore: 3.0, Tier: detection.TierCritical},
	}
	srv, _ := testServer(t, signals, nil)

	resp, err := http.Get(srv.URL + "/api/v1/anomalies")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var body struct {
		Signals []detection.Signal `json:"signals"`
		Count   int                `json:"count"`
	}
	decodeBody(t, resp, &body)
	if body.Count != 1 || len(body.Signals) != 1 {
		t.Fatalf("body = %+v, want 1 signal", body)
	}
	if body.Signals[0].ID != "conflict:10:20" {
		t.Errorf("signal ID = %s", body.Signals[0].ID)
	}
}

func TestBrief(t *testing.T) {
	signals := []detection.Signal{
		{ID: "conflict:10:20", Domain: models.DomainConflict, Label: "conflict activity near Sahel", Count: 20, Zscore: 3.0, Tier: detection.TierCritical},
	}
	synth := &fakeSynth{result: brief.Result{Text: "All quiet.", Provenance: brief.ProvenanceAI}}
	srv, st := testServer(t, signals, synth)
	if err := st.Put(storedEvent("evt-1", models.DomainConflict)); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	resp := postJSON(t, srv.URL+"/api/v1/brief", map[string]string{"context": "West Africa watch"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body briefResponse
	decodeBody(t, resp, &body)
	if body.Text != "All quiet." || body.Provenance != brief.ProvenanceAI {
		t.Errorf("body = %+v", body)
	}
	if body.EventCount != 1 {
		t.Errorf("EventCount = %d, want 1", body.EventCount)
	}

	if synth.contextLabel != "West Africa watch" {
		t.Errorf("contextLabel = %q", synth.contextLabel)
	}
	if !strings.Contains(synth.anomalyContext, "[critical] conflict activity near Sahel: 20 events, z-score 3.0") {
		t.Errorf("anomalyContext = %q", synth.anomalyContext)
	}
}

func TestBriefExcludesAnomaliesOnRequest(t *testing.T) {
	signals := []detection.Signal{
		{ID: "conflict:10:20", Label: "conflict activity near Sahel", Count: 20, Zscore: 3.0, Tier: detection.TierCritical},
	}
	synth := &fakeSynth{result: brief.Result{Text: "x", Provenance: brief.ProvenanceLocal}}
	srv, _ := testServer(t, signals, synth)

	resp := postJSON(t, srv.URL+"/api/v1/brief", map[string]interface{}{
		"context":           "quiet mode",
		"include_anomalies": false,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if synth.anomalyContext != "" {
		t.Errorf("anomalyContext = %q, want empty when excluded", synth.anomalyContext)
	}
}

func TestBriefDefaultsContextLabel(t *testing.T) {
	synth := &fakeSynth{result: brief.Result{Text: "x", Provenance: brief.ProvenanceLocal}}
	srv, _ := testServer(t, nil, synth)

	resp, err := http.Post(srv.URL+"/api/v1/brief", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if synth.contextLabel != "global situation overview" {
		t.Errorf("contextLabel = %q, want default", synth.contextLabel)
	}
	if synth.anomalyContext != "" {
		t.Errorf("anomalyContext = %q, want empty with no signals", synth.anomalyContext)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t, nil, nil)
	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var body map[string]interface{}
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := testServer(t, nil, nil)
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRenderAnomalyContext(t *testing.T) {
	signals := []detection.Signal{
		{Label: "disaster activity near Chile", Count: 30, Zscore: 3.0, Tier: detection.TierCritical},
		{Label: "climate activity near Italy", Count: 10, Zscore: 2.0, Tier: detection.TierSignificant},
	}
	got := renderAnomalyContext(signals)
	want := "- [critical] disaster activity near Chile: 30 events, z-score 3.0\n" +
		"- [significant] climate activity near Italy: 10 events, z-score 2.0"
	if got != want {
		t.Errorf("renderAnomalyContext() = %q, want %q", got, want)
	}
	if renderAnomalyContext(nil) != "" {
		t.Error("renderAnomalyContext(nil) should be empty")
	}
}

func storedEvent(id string, domain models.Domain) models.Event {
	return models.Event{
		ID:        id,
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Domain:    domain,
		Severity:  models.SeverityMedium,
		Title:     "Event " + id,
		Location:  models.Location{Latitude: 45, Longitude: 12, Country: "Italy"},
	}
}
