// Package daemon provides the long-running JSON service over the loaded dataset.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/esaepulloh/bikedash/internal/logging"
	"github.com/esaepulloh/bikedash/internal/model"
	"github.com/esaepulloh/bikedash/internal/pipeline"
	"github.com/esaepulloh/bikedash/internal/source"
	"github.com/esaepulloh/bikedash/internal/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Event types.
const (
	EventLoaded   = "dataset_loaded"
	EventReloaded = "dataset_reloaded"
)

// Config controls the service runtime behavior.
type Config struct {
	DataPath     string
	Source       source.Options
	UseCache     bool
	Interval     time.Duration
	Addr         string
	EventsBuffer int
}

// Snapshot describes the dataset currently served.
type Snapshot struct {
	At           time.Time    `json:"at"`
	File         string       `json:"file"`
	Records      int          `json:"records"`
	SkippedRows  int          `json:"skipped_rows"`
	Inconsistent int          `json:"inconsistent_rows"`
	Start        string       `json:"start"`
	End          string       `json:"end"`
	Totals       model.Totals `json:"totals"`
}

// Event is emitted whenever the dataset is (re)loaded.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	ReloadCount     int64     `json:"reload_count"`
	DataFile        string    `json:"data_file"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the polling runtime and HTTP API.
type Service struct {
	cfg Config

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	reloadCount int64
	lastError   string

	// Replaced wholesale on reload and never mutated, so handlers may keep
	// using a slice after releasing the lock.
	records  []model.Record
	bounds   model.DateRange
	file     source.DiscoveredFile
	hasData  bool
	snapshot Snapshot

	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}

	return &Service{
		cfg:       cfg,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP router for the service API.
func (s *Service) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(logRequests)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/v1/status", s.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/v1/range", s.handleRange).Methods(http.MethodGet)
	router.HandleFunc("/v1/summary", s.handleSummary).Methods(http.MethodGet)
	router.HandleFunc("/v1/daily", s.handleDaily).Methods(http.MethodGet)
	router.HandleFunc("/v1/groups/{dimension}", s.handleGroups).Methods(http.MethodGet)
	router.HandleFunc("/v1/events", s.handleEvents).Methods(http.MethodGet)
	router.HandleFunc("/v1/stream", s.handleStream).Methods(http.MethodGet)

	return router
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logging.L().Infow("service listening", "addr", s.cfg.Addr, "interval", s.cfg.Interval)

	// Seed the dataset so queries work immediately.
	s.pollOnce()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce()
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		}
	}
}

// pollOnce reloads the dataset when the file's mtime or size changed.
func (s *Service) pollOnce() {
	now := time.Now()

	s.mu.RLock()
	known, hasData := s.file, s.hasData
	s.mu.RUnlock()

	if hasData {
		cur, err := source.Stat(known.Path)
		if err == nil && cur.MtimeNs == known.MtimeNs && cur.SizeBytes == known.SizeBytes {
			s.mu.Lock()
			s.lastPollAt = now
			s.pollCount++
			s.lastError = ""
			s.mu.Unlock()
			return
		}
		if err != nil {
			s.recordPollError(now, err)
			return
		}
	}

	result, err := s.load()
	if err != nil {
		s.recordPollError(now, err)
		return
	}

	snap := snapshotFromResult(result, now)
	eventType := EventLoaded
	if hasData {
		eventType = EventReloaded
	}

	s.mu.Lock()
	s.records = result.Records
	s.bounds = result.Range
	s.file = result.File
	s.hasData = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.reloadCount++
	s.lastError = ""
	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      eventType,
		Timestamp: now,
		Snapshot:  snap,
	}
	s.mu.Unlock()

	logging.L().Infow("dataset loaded",
		"file", result.File.Path,
		"records", len(result.Records),
		"range", result.Range.String(),
		"from_cache", result.FromCache)

	s.publishEvent(ev)
}

func (s *Service) recordPollError(at time.Time, err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.lastPollAt = at
	s.pollCount++
	s.mu.Unlock()
	logging.L().Warnw("poll failed", "error", err)
}

func (s *Service) load() (*pipeline.LoadResult, error) {
	if s.cfg.UseCache {
		cache, err := store.Open(pipeline.CachePath())
		if err == nil {
			defer func() { _ = cache.Close() }()
			cr, loadErr := pipeline.LoadWithCache(s.cfg.DataPath, s.cfg.Source, cache)
			if loadErr == nil {
				return cr, nil
			}
			logging.L().Debugw("cached load failed, parsing directly", "error", loadErr)
		}
	}

	return pipeline.Load(s.cfg.DataPath, s.cfg.Source)
}

func snapshotFromResult(r *pipeline.LoadResult, at time.Time) Snapshot {
	return Snapshot{
		At:           at,
		File:         r.File.Path,
		Records:      len(r.Records),
		SkippedRows:  r.SkippedRows,
		Inconsistent: r.Inconsistent,
		Start:        r.Range.Start.Format(model.DateLayout),
		End:          r.Range.End.Format(model.DateLayout),
		Totals:       pipeline.SumTotals(r.Records),
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		ReloadCount:     s.reloadCount,
		DataFile:        s.file.Path,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

// dataset returns the current records and their bounds.
func (s *Service) dataset() ([]model.Record, model.DateRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records, s.bounds, s.hasData
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Zap().Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Duration("took", time.Since(start)))
	})
}
