// Package nav decides which steps are reachable and serializes transition
// processing.
//
// The source of duplicate work here is the UI firing the same navigation
// event more than once in quick succession. Instead of one process-wide
// "is processing" boolean - which falsely suppresses unrelated transitions -
// the guard keeps a short-lived lock per "{from}->{to}" pair.
package nav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"onboard/internal/wizard/models"
	"onboard/internal/wizard/registry"
	dErrors "onboard/pkg/domain-errors"
)

// ErrTransitionInFlight reports that the identical transition is already
// being processed inside the suppression window.
var ErrTransitionInFlight = errors.New("transition already in flight")

// DefaultLockWindow absorbs duplicate event firings without blocking
// legitimate rapid navigation between different step pairs.
const DefaultLockWindow = 75 * time.Millisecond

// Guard evaluates step gates and suppresses duplicate transitions.
type Guard struct {
	registry *registry.Registry
	window   time.Duration
	clock    func() time.Time
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]time.Time // "{from}->{to}" -> expiry
}

type Option func(*Guard)

func WithLockWindow(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.window = d
		}
	}
}

// WithClock sets the time source for lock expiry, for tests.
func WithClock(clock func() time.Time) Option {
	return func(g *Guard) {
		if clock != nil {
			g.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) { g.logger = logger }
}

func NewGuard(reg *registry.Registry, opts ...Option) *Guard {
	g := &Guard{
		registry: reg,
		window:   DefaultLockWindow,
		clock:    time.Now,
		logger:   slog.Default(),
		locks:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CanEnter reports whether the step's UI may be reached. A step already
// visited stays enabled for backward navigation regardless of later edits;
// otherwise its gate decides.
func (g *Guard) CanEnter(id models.StepID, state models.CompletionState) bool {
	step, ok := g.registry.Get(id)
	if !ok {
		return false
	}
	if state.IsVisited(id) {
		return true
	}
	return step.Gate(state)
}

// Transition runs apply exactly once for a permitted transition.
//
// Rejections: a self-transition is ignored silently (no error, not
// performed); a duplicate of an in-flight pair returns
// ErrTransitionInFlight; an unknown or gated target returns a domain error.
// The pair lock is held for the suppression window even after apply
// completes, long enough to absorb duplicate UI events; apply failure
// releases it immediately so the user can retry.
func (g *Guard) Transition(ctx context.Context, from, to models.StepID, state models.CompletionState, apply func(context.Context) error) (bool, error) {
	if from == to {
		return false, nil
	}
	if _, ok := g.registry.Get(to); !ok {
		return false, dErrors.Newf(dErrors.CodeNotFound, "unknown step %s", to)
	}
	if !g.CanEnter(to, state) {
		return false, dErrors.Newf(dErrors.CodeForbidden, "step %s is not reachable yet", to)
	}

	key := lockKey(from, to)
	if !g.acquire(key) {
		g.logger.DebugContext(ctx, "duplicate transition suppressed", "from", from, "to", to)
		return false, ErrTransitionInFlight
	}

	if err := apply(ctx); err != nil {
		g.release(key)
		return false, err
	}
	return true, nil
}

func lockKey(from, to models.StepID) string {
	return fmt.Sprintf("%s->%s", from, to)
}

func (g *Guard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.clock()
	// Drop expired locks lazily; the map stays tiny (one entry per recent
	// pair).
	for k, expiry := range g.locks {
		if now.After(expiry) {
			delete(g.locks, k)
		}
	}
	if expiry, held := g.locks[key]; held && !now.After(expiry) {
		return false
	}
	g.locks[key] = now.Add(g.window)
	return true
}

func (g *Guard) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.locks, key)
}
