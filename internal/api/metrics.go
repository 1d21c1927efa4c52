package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/printloom/storefront-backend/internal/store"
)

// ─── POST /api/stores/:storeID/metrics ───────────────────────────────────────

type recordMetricRequest struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// handleRecordMetric buffers one analytics event. The response is 202: the
// event is durable only after the background flusher's next write.
func (s *Server) handleRecordMetric(w http.ResponseWriter, r *http.Request) {
	var req recordMetricRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Kind == "" {
		req.Kind = "page_view"
	}

	s.metrics.Record(store.NewMetricEvent(chi.URLParam(r, "storeID"), req.Kind, req.Path))
	respond(w, http.StatusAccepted, nil)
}

// ─── GET /api/stores/:storeID/metrics ────────────────────────────────────────

type metricResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Path       string    `json:"path,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	events, err := s.q.ListMetricEvents(r.Context(), chi.URLParam(r, "storeID"), 500)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list metrics: %w", err))
		return
	}

	out := make([]metricResponse, 0, len(events))
	for _, e := range events {
		out = append(out, metricResponse{
			ID:         e.ID.String(),
			Kind:       e.Kind,
			Path:       e.Path.String,
			OccurredAt: e.OccurredAt,
		})
	}
	respond(w, http.StatusOK, out)
}
