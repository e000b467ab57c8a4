// Package service is the orchestration engine for the onboarding wizard. It
// ties the registry, the two stores, the debounce scheduler, the navigation
// guard, certification checks, and cross-field validation together behind
// one employee-scoped API.
package service

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"onboard/internal/audit"
	"onboard/internal/documents"
	"onboard/internal/wizard/metrics"
	"onboard/internal/wizard/models"
	"onboard/internal/wizard/nav"
	"onboard/internal/wizard/registry"
	"onboard/internal/wizard/scheduler"
	"onboard/internal/wizard/store"
	"onboard/pkg/requestcontext"
)

// progress is the per-employee wizard state the engine tracks between
// requests: completion, visited steps, certifications, findings, and the
// navigation history.
type progress struct {
	state    models.CompletionState
	certs    map[models.StepID]*models.CertificationRecord
	findings map[models.StepID]*models.ValidationFinding
	history  []models.StepID
	current  models.StepID
}

func newProgress(first models.StepID) *progress {
	return &progress{
		state:    models.NewCompletionState(),
		certs:    make(map[models.StepID]*models.CertificationRecord),
		findings: make(map[models.StepID]*models.ValidationFinding),
		current:  first,
	}
}

// Service orchestrates step loads, saves, signing, and navigation.
type Service struct {
	registry *registry.Registry
	cache    store.CacheStore
	remote   store.RemoteStore
	sched    *scheduler.Scheduler
	guard    *nav.Guard
	extract  documents.Extractor
	pdf      documents.PDFRenderer
	audit    *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
	clock    func() time.Time

	quietPeriod time.Duration
	lockWindow  time.Duration

	mu         sync.Mutex
	byEmployee map[string]*progress
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAudit(p *audit.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.audit = p
		}
	}
}

// WithExtractor attaches the document field-extraction client; when absent,
// uploads keep whatever extracted fields they arrived with.
func WithExtractor(e documents.Extractor) Option {
	return func(s *Service) { s.extract = e }
}

// WithPDFRenderer attaches the PDF render client; when absent, signing skips
// regeneration and previews report unavailable.
func WithPDFRenderer(r documents.PDFRenderer) Option {
	return func(s *Service) { s.pdf = r }
}

// WithQuietPeriod overrides the debounce quiet period.
func WithQuietPeriod(d time.Duration) Option {
	return func(s *Service) { s.quietPeriod = d }
}

// WithLockWindow overrides the duplicate-transition suppression window.
func WithLockWindow(d time.Duration) Option {
	return func(s *Service) { s.lockWindow = d }
}

// WithClock sets the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New wires the engine. The scheduler and navigation guard are owned by the
// service: the scheduler's post-save hook feeds certification re-checks and
// the audit trail.
func New(reg *registry.Registry, cache store.CacheStore, remote store.RemoteStore, opts ...Option) *Service {
	s := &Service{
		registry:   reg,
		cache:      cache,
		remote:     remote,
		audit:      audit.NewPublisher(audit.NewMemoryStore()),
		logger:     slog.Default(),
		tracer:     otel.Tracer("onboard/internal/wizard/service"),
		clock:      time.Now,
		byEmployee: make(map[string]*progress),
	}
	for _, opt := range opts {
		opt(s)
	}

	schedOpts := []scheduler.Option{
		scheduler.WithLogger(s.logger),
		scheduler.WithClock(s.clock),
		scheduler.WithSavedFunc(s.onSaved),
	}
	if s.quietPeriod > 0 {
		schedOpts = append(schedOpts, scheduler.WithQuietPeriod(s.quietPeriod))
	}
	s.sched = scheduler.New(cache, remote, schedOpts...)

	guardOpts := []nav.Option{
		nav.WithLogger(s.logger),
		nav.WithClock(s.clock),
	}
	if s.lockWindow > 0 {
		guardOpts = append(guardOpts, nav.WithLockWindow(s.lockWindow))
	}
	s.guard = nav.NewGuard(reg, guardOpts...)

	return s
}

// progressFor returns the live progress record for an employee, creating it
// on first touch. Callers must hold s.mu; the record is only safe to read or
// mutate under it.
func (s *Service) progressFor(employeeID string) *progress {
	p, ok := s.byEmployee[employeeID]
	if !ok {
		p = newProgress(s.registry.First().ID)
		s.byEmployee[employeeID] = p
	}
	return p
}

// completionState returns an independent copy of the employee's completion
// state for gate evaluation.
func (s *Service) completionState(employeeID string) models.CompletionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressFor(employeeID).state.Clone()
}

// deviceDetail annotates an audit detail map with the client device the HTTP
// layer parsed from the User-Agent header, when one is on the context.
func deviceDetail(ctx context.Context, detail map[string]string) map[string]string {
	d := requestcontext.DeviceInfo(ctx)
	if d == (requestcontext.Device{}) {
		return detail
	}
	if detail == nil {
		detail = make(map[string]string, 3)
	}
	detail["device_browser"] = d.Browser
	detail["device_os"] = d.OS
	detail["device_mobile"] = strconv.FormatBool(d.Mobile)
	return detail
}

// Close flushes pending saves and stops background work.
func (s *Service) Close(ctx context.Context) {
	s.sched.Close(ctx)
}
