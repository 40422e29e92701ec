// Package analytics holds the dashboard's metric series and the live
// "realtime" reading. Both are synthetic: every fetch regenerates the series
// for the selected date range.
package analytics

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/insightpulse/internal/logging"
	"github.com/dmitrijs2005/insightpulse/internal/models"
	"github.com/dmitrijs2005/insightpulse/internal/timex"
)

const (
	DefaultDelay            = 800 * time.Millisecond
	DefaultRealtimeInterval = 5 * time.Second
)

type State struct {
	Data      []models.AnalyticsPoint
	Realtime  models.RealtimeSnapshot
	Filters   Filter
	IsLoading bool
	Error     string
}

// Summary is what the dashboard cards show.
type Summary struct {
	TotalPageViews   int
	TotalVisitors    int
	TotalConversions int
	TotalRevenue     int
	AvgBounceRate    float64
}

// Config tunes a Store. A zero RealtimeInterval means the default.
type Config struct {
	Delay            time.Duration
	RealtimeInterval time.Duration
}

type feed struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type Store struct {
	mu       sync.Mutex
	state    State
	gen      *Generator
	uploader Uploader
	cfg      Config
	logger   logging.Logger
	now      func() time.Time
	feed     *feed
}

// NewStore builds a store with the default filter and no data. uploader may
// be nil, in which case Export fails with ErrExportDisabled.
func NewStore(gen *Generator, uploader Uploader, cfg Config, logger logging.Logger) *Store {
	if gen == nil {
		gen = NewGenerator(nil)
	}
	if cfg.RealtimeInterval <= 0 {
		cfg.RealtimeInterval = DefaultRealtimeInterval
	}
	s := &Store{
		gen:      gen,
		uploader: uploader,
		cfg:      cfg,
		logger:   logger.With("module", "analytics"),
		now:      time.Now,
	}
	now := s.now()
	s.state.Filters = DefaultFilter(now)
	s.state.Realtime.LastUpdated = now
	return s
}

// State returns a copy of the store's state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Data = slices.Clone(s.state.Data)
	st.Filters = s.state.Filters.clone()
	return st
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *Store) begin() {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *Store) finish(err error) error {
	s.mu.Lock()
	s.state.IsLoading = false
	if err != nil {
		s.state.Error = err.Error()
	}
	s.mu.Unlock()
	return err
}

// Fetch merges patch into the filters and regenerates the series for the
// resulting range.
func (s *Store) Fetch(ctx context.Context, patch *FilterPatch) error {
	s.begin()

	s.mu.Lock()
	s.state.Filters = patch.apply(s.state.Filters)
	days := s.state.Filters.Days()
	s.mu.Unlock()

	if err := timex.Sleep(ctx, s.cfg.Delay); err != nil {
		return s.finish(fmt.Errorf("fetch analytics: %w", err))
	}

	s.mu.Lock()
	s.state.Data = s.gen.Series(s.now(), days)
	s.mu.Unlock()

	s.logger.Debug(ctx, "analytics fetched", "days", days)
	return s.finish(nil)
}

// UpdateFilters is Fetch with a mandatory patch.
func (s *Store) UpdateFilters(ctx context.Context, patch FilterPatch) error {
	return s.Fetch(ctx, &patch)
}

// StartRealtime starts refreshing the realtime reading every interval until
// StopRealtime is called or ctx is done. Starting a running feed does
// nothing. The returned func stops the feed.
func (s *Store) StartRealtime(ctx context.Context) (stop func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.feed != nil {
		return s.StopRealtime
	}
	fctx, cancel := context.WithCancel(ctx)
	f := &feed{cancel: cancel, done: make(chan struct{})}
	s.feed = f
	go s.runRealtime(fctx, f)

	s.logger.Debug(ctx, "realtime feed started", "interval", s.cfg.RealtimeInterval)
	return s.StopRealtime
}

func (s *Store) runRealtime(ctx context.Context, f *feed) {
	defer close(f.done)
	defer func() {
		s.mu.Lock()
		if s.feed == f {
			s.feed = nil
		}
		s.mu.Unlock()
		f.cancel()
	}()

	ticker := time.NewTicker(s.cfg.RealtimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			s.state.Realtime = s.gen.Realtime(s.now())
			s.mu.Unlock()
		}
	}
}

// StopRealtime cancels the feed and waits for it to exit. It is safe to call
// when no feed is running.
func (s *Store) StopRealtime() {
	s.mu.Lock()
	f := s.feed
	s.feed = nil
	s.mu.Unlock()

	if f == nil {
		return
	}
	f.cancel()
	<-f.done
}

// RealtimeRunning reports whether a feed is active.
func (s *Store) RealtimeRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feed != nil
}

// Summary totals the current series. The bounce rate is the mean over days.
func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum Summary
	for _, p := range s.state.Data {
		sum.TotalPageViews += p.PageViews
		sum.TotalVisitors += p.UniqueVisitors
		sum.TotalConversions += p.Conversions
		sum.TotalRevenue += p.Revenue
		sum.AvgBounceRate += p.BounceRate
	}
	if n := len(s.state.Data); n > 0 {
		sum.AvgBounceRate /= float64(n)
	}
	return sum
}

// Export uploads the current series as CSV and returns the object key.
func (s *Store) Export(ctx context.Context) (string, error) {
	s.begin()

	if s.uploader == nil {
		return "", s.finish(ErrExportDisabled)
	}

	s.mu.Lock()
	data := slices.Clone(s.state.Data)
	s.mu.Unlock()

	body, err := EncodeCSV(data)
	if err != nil {
		return "", s.finish(fmt.Errorf("encode export: %w", err))
	}
	key := ExportKey(s.now())
	if err := s.uploader.Upload(ctx, key, body, csvContentType); err != nil {
		return "", s.finish(fmt.Errorf("upload export: %w", err))
	}

	s.logger.Info(ctx, "analytics exported", "key", key, "rows", len(data))
	return key, s.finish(nil)
}
