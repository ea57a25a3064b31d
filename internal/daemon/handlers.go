package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/esaepulloh/bikedash/internal/logging"
	"github.com/esaepulloh/bikedash/internal/model"
	"github.com/esaepulloh/bikedash/internal/pipeline"
	"github.com/esaepulloh/bikedash/internal/source"

	"github.com/gorilla/mux"
)

type rangeResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

type summaryResponse struct {
	rangeResponse
	model.Dashboard
}

type dailyResponse struct {
	rangeResponse
	Daily []model.DailyTotal `json:"daily"`
}

type groupsResponse struct {
	rangeResponse
	Dimension string             `json:"dimension"`
	Groups    []model.GroupCount `json:"groups"`
}

var errNoData = errors.New("dataset not loaded yet")

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleRange(w http.ResponseWriter, _ *http.Request) {
	_, bounds, ok := s.dataset()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, errNoData)
		return
	}
	writeJSON(w, http.StatusOK, newRangeResponse(bounds))
}

func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	records, rng, ok := s.queryRange(w, r)
	if !ok {
		return
	}
	dash, err := pipeline.Summarize(records, rng)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{rangeResponse: newRangeResponse(rng), Dashboard: dash})
}

func (s *Service) handleDaily(w http.ResponseWriter, r *http.Request) {
	records, rng, ok := s.queryRange(w, r)
	if !ok {
		return
	}
	view := pipeline.FilterByRange(records, rng.Start, rng.End)
	writeJSON(w, http.StatusOK, dailyResponse{
		rangeResponse: newRangeResponse(rng),
		Daily:         pipeline.DailyTotals(view),
	})
}

func (s *Service) handleGroups(w http.ResponseWriter, r *http.Request) {
	dimension := mux.Vars(r)["dimension"]

	records, rng, ok := s.queryRange(w, r)
	if !ok {
		return
	}
	view := pipeline.FilterByRange(records, rng.Start, rng.End)
	canonical, known := pipeline.CanonicalDimension(dimension)
	if !known {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown dimension %q (want one of %v)", dimension, pipeline.Dimensions))
		return
	}
	groups, _ := pipeline.GroupBy(view, canonical)
	writeJSON(w, http.StatusOK, groupsResponse{
		rangeResponse: newRangeResponse(rng),
		Dimension:     canonical,
		Groups:        groups,
	})
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send the current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

// queryRange resolves the start and end query parameters against the loaded
// dataset. Missing parameters default to the dataset bounds. On failure it
// writes the error response and returns ok=false.
func (s *Service) queryRange(w http.ResponseWriter, r *http.Request) ([]model.Record, model.DateRange, bool) {
	records, bounds, ok := s.dataset()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, errNoData)
		return nil, model.DateRange{}, false
	}

	rng := bounds
	q := r.URL.Query()
	if v := q.Get("start"); v != "" {
		d, err := source.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("start: %w", err))
			return nil, model.DateRange{}, false
		}
		rng.Start = d
	}
	if v := q.Get("end"); v != "" {
		d, err := source.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("end: %w", err))
			return nil, model.DateRange{}, false
		}
		rng.End = d
	}
	if err := pipeline.ValidateRange(rng); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, model.DateRange{}, false
	}
	return records, rng, true
}

func newRangeResponse(rng model.DateRange) rangeResponse {
	return rangeResponse{
		Start: rng.Start.Format(model.DateLayout),
		End:   rng.End.Format(model.DateLayout),
		Days:  rng.Days(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.L().Warnw("error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
