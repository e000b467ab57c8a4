// Package scheduler batches rapid field edits into a single save per step.
//
// Edits call Schedule, which resets a quiet-period timer for the
// (employee, step) pair; when the timer fires, one write goes out covering
// the latest payload. Flush persists immediately and is the only path that
// surfaces remote failure - best-effort background saves retry on the next
// scheduled save instead.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"onboard/internal/wizard/fingerprint"
	"onboard/internal/wizard/models"
	"onboard/internal/wizard/store"
	dErrors "onboard/pkg/domain-errors"
)

// DefaultQuietPeriod is how long edits must stay quiet before an auto-save.
const DefaultQuietPeriod = 1500 * time.Millisecond

const remoteWriteTimeout = 15 * time.Second

// SaveResult describes one completed save attempt.
type SaveResult struct {
	Snapshot models.FormSnapshot
	// Flushed is true for explicit flushes, false for quiet-period fires.
	Flushed bool
	// RemoteOK reports whether the remote write landed.
	RemoteOK bool
}

// SavedFunc is notified after every save attempt.
type SavedFunc func(ctx context.Context, res SaveResult)

type stepKey struct {
	employeeID string
	stepID     models.StepID
}

type entry struct {
	timer   *time.Timer
	pending *models.StepPayload
	// seq increases with every Schedule for this step. A remote-write
	// completion whose seq is behind the latest is discarded so a stale
	// payload never overwrites a fresher one that raced ahead.
	seq uint64
}

// Scheduler coalesces edits and owns the write path to both stores.
type Scheduler struct {
	cache  store.CacheStore
	remote store.RemoteStore
	quiet  time.Duration
	logger *slog.Logger
	clock  func() time.Time
	saved  SavedFunc

	mu      sync.Mutex
	entries map[stepKey]*entry
	closed  bool

	wg sync.WaitGroup
}

type Option func(*Scheduler)

func WithQuietPeriod(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.quiet = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithSavedFunc registers the post-save hook (certification re-check, audit).
func WithSavedFunc(fn SavedFunc) Option {
	return func(s *Scheduler) { s.saved = fn }
}

// WithClock sets the time source for SavedAt stamps, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(cache store.CacheStore, remote store.RemoteStore, opts ...Option) *Scheduler {
	s := &Scheduler{
		cache:   cache,
		remote:  remote,
		quiet:   DefaultQuietPeriod,
		logger:  slog.Default(),
		clock:   time.Now,
		saved:   func(context.Context, SaveResult) {},
		entries: make(map[stepKey]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule records the latest payload for a step and resets its quiet-period
// timer. Calls before the timer fires coalesce into a single write.
func (s *Scheduler) Schedule(_ context.Context, employeeID string, stepID models.StepID, payload models.StepPayload) {
	key := stepKey{employeeID: employeeID, stepID: stepID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	e := s.entries[key]
	if e == nil {
		e = &entry{}
		s.entries[key] = e
	}
	e.seq++
	p := payload
	e.pending = &p
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(s.quiet, func() { s.fire(key) })
}

// Flush cancels the timer and persists any pending payload immediately,
// awaiting the remote write. Used on explicit "Save & Continue" and step
// exit; this is the one path where remote failure reaches the user.
func (s *Scheduler) Flush(ctx context.Context, employeeID string, stepID models.StepID) error {
	key := stepKey{employeeID: employeeID, stepID: stepID}

	s.mu.Lock()
	e := s.entries[key]
	if e == nil || e.pending == nil {
		s.mu.Unlock()
		return nil
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	payload := *e.pending
	seq := e.seq
	e.pending = nil
	s.mu.Unlock()

	return s.persist(ctx, key, payload, seq, true)
}

// fire is the quiet-period expiry path: best-effort, never surfaces errors.
func (s *Scheduler) fire(key stepKey) {
	s.mu.Lock()
	e := s.entries[key]
	if e == nil || e.pending == nil {
		s.mu.Unlock()
		return
	}
	payload := *e.pending
	seq := e.seq
	e.pending = nil
	e.timer = nil
	s.mu.Unlock()

	// Detached from any request context: the edit already happened.
	if err := s.persist(context.Background(), key, payload, seq, false); err != nil {
		s.logger.Warn("debounced save failed locally",
			"employee_id", key.employeeID,
			"step_id", key.stepID,
			"error", err,
		)
	}
}

// persist writes the snapshot to the local cache synchronously, then to the
// remote store - inline when awaitRemote, otherwise in the background.
func (s *Scheduler) persist(ctx context.Context, key stepKey, payload models.StepPayload, seq uint64, awaitRemote bool) error {
	fp, err := fingerprint.Fingerprint(payload)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "fingerprint payload")
	}
	snapshot := models.FormSnapshot{
		EmployeeID:  key.employeeID,
		StepID:      key.stepID,
		Payload:     payload,
		Fingerprint: fp,
		Origin:      models.OriginLocal,
		SavedAt:     s.clock(),
		Seq:         seq,
	}
	if err := s.cache.Put(ctx, snapshot); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "write snapshot to cache")
	}

	if awaitRemote {
		if err := s.writeRemote(ctx, key, snapshot); err != nil {
			s.saved(ctx, SaveResult{Snapshot: snapshot, Flushed: true})
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "remote save failed")
		}
		s.saved(ctx, SaveResult{Snapshot: snapshot, Flushed: true, RemoteOK: true})
		return nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), remoteWriteTimeout)
		defer cancel()
		err := s.writeRemote(ctx, key, snapshot)
		if err != nil {
			// Best-effort per edit: stays Origin=local, retried by the next
			// scheduled save.
			s.logger.Info("background remote save failed, will retry on next save",
				"employee_id", key.employeeID,
				"step_id", key.stepID,
				"error", err,
			)
		}
		s.saved(ctx, SaveResult{Snapshot: snapshot, RemoteOK: err == nil})
	}()
	return nil
}

// writeRemote performs the remote write and, when it still represents the
// latest scheduled state, promotes the cached snapshot to Origin=remote.
func (s *Scheduler) writeRemote(ctx context.Context, key stepKey, snapshot models.FormSnapshot) error {
	if err := s.remote.Save(ctx, key.employeeID, key.stepID, store.SaveRequest{Payload: snapshot.Payload}); err != nil {
		return err
	}

	s.mu.Lock()
	e := s.entries[key]
	stale := e != nil && snapshot.Seq < e.seq
	s.mu.Unlock()
	if stale {
		// A fresher payload was scheduled while this write was in flight;
		// its own completion will promote the cache.
		return nil
	}

	snapshot.Origin = models.OriginRemote
	if err := s.cache.Put(ctx, snapshot); err != nil {
		s.logger.Warn("promote cached snapshot to remote origin failed",
			"employee_id", key.employeeID,
			"step_id", key.stepID,
			"error", err,
		)
	}
	return nil
}

// Close stops all timers, flushes pending payloads best-effort, and waits
// for in-flight remote writes. Safe to call once during shutdown.
func (s *Scheduler) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	keys := make([]stepKey, 0, len(s.entries))
	pending := make(map[stepKey]struct {
		payload models.StepPayload
		seq     uint64
	})
	for key, e := range s.entries {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		if e.pending != nil {
			pending[key] = struct {
				payload models.StepPayload
				seq     uint64
			}{*e.pending, e.seq}
			e.pending = nil
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()

	for _, key := range keys {
		p := pending[key]
		if err := s.persist(ctx, key, p.payload, p.seq, true); err != nil {
			s.logger.Warn("final flush failed",
				"employee_id", key.employeeID,
				"step_id", key.stepID,
				"error", err,
			)
		}
	}
	s.wg.Wait()
}
