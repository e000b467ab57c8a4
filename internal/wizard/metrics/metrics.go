package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the wizard engine.
type Metrics struct {
	// Step load latency, labeled by which store won reconciliation
	LoadLatency *prometheus.HistogramVec

	// Saves by path ("debounced", "flush") and remote outcome
	Saves *prometheus.CounterVec

	// Certification validity flips by direction ("revoked", "restored")
	CertificationFlips *prometheus.CounterVec

	// Transitions by result ("performed", "suppressed", "rejected")
	Transitions *prometheus.CounterVec

	// Cross-field findings raised
	FindingsRaised prometheus.Counter
}

// New creates a Metrics instance with all wizard metrics registered.
func New() *Metrics {
	return &Metrics{
		LoadLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "onboard_wizard_load_duration_seconds",
			Help:    "Duration of step loads by winning snapshot source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}), // source: "local", "remote", "empty"

		Saves: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_wizard_saves_total",
			Help: "Total step saves by path and remote outcome",
		}, []string{"path", "remote"}), // path: "debounced", "flush"; remote: "ok", "failed"

		CertificationFlips: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_wizard_certification_flips_total",
			Help: "Certification validity changes by direction",
		}, []string{"direction"}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_wizard_transitions_total",
			Help: "Step transitions by result",
		}, []string{"result"}),

		FindingsRaised: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onboard_wizard_findings_raised_total",
			Help: "Cross-field validation findings raised",
		}),
	}
}

// ObserveLoad records a step load and which source won.
func (m *Metrics) ObserveLoad(source string, d time.Duration) {
	if m != nil {
		m.LoadLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementSave records one save attempt.
func (m *Metrics) IncrementSave(path string, remoteOK bool) {
	if m != nil {
		remote := "ok"
		if !remoteOK {
			remote = "failed"
		}
		m.Saves.WithLabelValues(path, remote).Inc()
	}
}

// IncrementCertificationFlip records a validity change.
func (m *Metrics) IncrementCertificationFlip(direction string) {
	if m != nil {
		m.CertificationFlips.WithLabelValues(direction).Inc()
	}
}

// IncrementTransition records a transition outcome.
func (m *Metrics) IncrementTransition(result string) {
	if m != nil {
		m.Transitions.WithLabelValues(result).Inc()
	}
}

// IncrementFinding records a newly raised finding.
func (m *Metrics) IncrementFinding() {
	if m != nil {
		m.FindingsRaised.Inc()
	}
}
