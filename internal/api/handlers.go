// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/meridian/internal/brief"
	"github.com/tomtom215/meridian/internal/detection"
	"github.com/tomtom215/meridian/internal/logging"
	"github.com/tomtom215/meridian/internal/metrics"
	"github.com/tomtom215/meridian/internal/models"
	"github.com/tomtom215/meridian/internal/store"
)

// maxIngestBody caps a single ingest request at 8 MiB.
const maxIngestBody = 8 << 20

// EventStore is the storage surface the handlers need.
type EventStore interface {
	PutBatch(events []models.Event) error
	Get(id string) (models.Event, error)
	Snapshot() ([]models.Event, error)
	Count() (int, error)
}

// SignalSource serves the most recent anomaly scan.
type SignalSource interface {
	Latest() []detection.Signal
}

// BriefSynthesizer produces situation briefs from an event snapshot.
type BriefSynthesizer interface {
	Synthesize(ctx context.Context, events []models.Event, contextLabel, anomalyContext string) brief.Result
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	store   EventStore
	signals SignalSource
	synth   BriefSynthesizer
}

// NewHandlers creates the handler set.
func NewHandlers(store EventStore, signals SignalSource, synth BriefSynthesizer) *Handlers {
	return &Handlers{store: store, signals: signals, synth: synth}
}

// writeJSON encodes data as JSON and writes it to the response. Encoding
// errors are logged, not surfaced, since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ingestResult reports the outcome of one ingest request.
type ingestResult struct {
	Accepted int               `json:"accepted"`
	Rejected []ingestRejection `json:"rejected,omitempty"`
}

type ingestRejection struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// IngestEvents handles POST /api/v1/events. The body is a JSON array of
// events. Valid events are stored; invalid ones are rejected individually
// with their index, so one bad event does not fail the batch.
func (h *Handlers) IngestEvents(w http.ResponseWriter, r *http.Request) {
	var incoming []models.Event
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBody))
	if err := dec.Decode(&incoming); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON array of events: "+err.Error())
		return
	}
	if len(incoming) == 0 {
		writeError(w, http.StatusBadRequest, "event batch is empty")
		return
	}

	now := time.Now().UTC()
	result := ingestResult{}
	accepted := make([]models.Event, 0, len(incoming))
	for i := range incoming {
		event := incoming[i]
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = now
		}
		if err := event.Validate(); err != nil {
			metrics.EventsRejected.Inc()
			result.Rejected = append(result.Rejected, ingestRejection{Index: i, Error: err.Error()})
			continue
		}
		accepted = append(accepted, event)
	}

	if len(accepted) > 0 {
		if err := h.store.PutBatch(accepted); err != nil {
			logging.Error().Err(err).Int("events", len(accepted)).Msg("event batch write failed")
			writeError(w, http.StatusInternalServerError, "failed to store events")
			return
		}
		metrics.EventsIngested.Add(float64(len(accepted)))
	}
	result.Accepted = len(accepted)

	logging.Info().
		Int("accepted", result.Accepted).
		Int("rejected", len(result.Rejected)).
		Msg("event batch ingested")

	status := http.StatusAccepted
	if result.Accepted == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

// ListEvents handles GET /api/v1/events with optional domain and limit
// query parameters.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.Snapshot()
	if err != nil {
		logging.Error().Err(err).Msg("event snapshot failed")
		writeError(w, http.StatusInternalServerError, "failed to read events")
		return
	}

	if v := r.URL.Query().Get("domain"); v != "" {
		domain := models.Domain(v)
		if !domain.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown domain %q", v))
			return
		}
		filtered := events[:0]
		for _, e := range events {
			if e.Domain == domain {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	limit := 500
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if len(events) > limit {
		events = events[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// GetEvent handles GET /api/v1/events/{id}.
func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	event, err := h.store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("event %q not found", id))
		return
	}
	if err != nil {
		logging.Error().Err(err).Str("id", id).Msg("event lookup failed")
		writeError(w, http.StatusInternalServerError, "failed to read event")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Anomalies handles GET /api/v1/anomalies, serving the cached result of the
// most recent background scan.
func (h *Handlers) Anomalies(w http.ResponseWriter, r *http.Request) {
	signals := h.signals.Latest()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"signals": signals,
		"count":   len(signals),
	})
}

// briefRequest is the optional POST /api/v1/brief body. IncludeAnomalies
// defaults to true when omitted.
type briefRequest struct {
	Context          string `json:"context"`
	IncludeAnomalies *bool  `json:"include_anomalies"`
}

// briefResponse wraps a synthesized brief with its generation time.
type briefResponse struct {
	Text        string           `json:"text"`
	Provenance  brief.Provenance `json:"provenance"`
	EventCount  int              `json:"event_count"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Brief handles POST /api/v1/brief. The synthesis cascade never fails the
// request: provider trouble degrades to the local summary.
func (h *Handlers) Brief(w http.ResponseWriter, r *http.Request) {
	var req briefRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	contextLabel := req.Context
	if contextLabel == "" {
		contextLabel = "global situation overview"
	}

	events, err := h.store.Snapshot()
	if err != nil {
		logging.Error().Err(err).Msg("event snapshot failed")
		writeError(w, http.StatusInternalServerError, "failed to read events")
		return
	}

	anomalyContext := ""
	if req.IncludeAnomalies == nil || *req.IncludeAnomalies {
		anomalyContext = renderAnomalyContext(h.signals.Latest())
	}
	result := h.synth.Synthesize(r.Context(), events, contextLabel, anomalyContext)

	writeJSON(w, http.StatusOK, briefResponse{
		Text:        result.Text,
		Provenance:  result.Provenance,
		EventCount:  len(events),
		GeneratedAt: time.Now().UTC(),
	})
}

// Health handles GET /api/v1/health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Count()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"events": count,
	})
}

// renderAnomalyContext formats anomaly signals as prompt-ready lines, one
// per signal, in the detector's already-ranked order.
func renderAnomalyContext(signals []detection.Signal) string {
	if len(signals) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range signals {
		fmt.Fprintf(&b, "- [%s] %s: %d events, z-score %.1f\n", s.Tier, s.Label, s.Count, s.Zscore)
	}
	return strings.TrimRight(b.String(), "\n")
}
