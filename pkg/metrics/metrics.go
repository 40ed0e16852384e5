package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var HistogramBuckets = []float64{
	// --- Fast responses (0 - 500ms) ---
	1, 5, 10, 25, 50, 75, 100, 150, 200, 300, 400, 500,

	// --- Medium responses (500ms - 2s) ---
	750, 1000, 1500, 2000,

	// --- Slow responses (2s - 15s) ---
	3000, 5000, 10000, 15000,
}

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	var metric prometheus.Collector
	switch m.Type {
	case "counter_vec":
		metric = prometheus.NewCounterVec(
			prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	case "counter":
		metric = prometheus.NewCounter(
			prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
		)
	case "gauge_vec":
		metric = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	case "histogram_vec":
		metric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: HistogramBuckets},
			m.Args,
		)
	case "summary_vec":
		metric = prometheus.NewSummaryVec(
			prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description},
			m.Args,
		)
	}
	return metric
}

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "process latency in milliseconds",
	Type:        "histogram_vec",
	Args:        []string{"type", "subtype"},
}

var MetricsEntitlementCheck = &Metric{
	ID:          "entCheck",
	Name:        "entitlement_check_total",
	Description: "Entitlement decisions, partitioned by feature and result (allowed, denied, unknown_user, error).",
	Type:        "counter_vec",
	Args:        []string{"feature", "result"},
}

var MetricsSubscriptionTransition = &Metric{
	ID:          "subTransition",
	Name:        "subscription_transition_total",
	Description: "Subscription status transitions that were persisted together with their audit record.",
	Type:        "counter_vec",
	Args:        []string{"from", "to", "reason"},
}

const (
	RefererKey = "X-Referer"

	subsystem = "fitgate"
)

// Recorder exposes the business metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	bpDur       *prometheus.HistogramVec
	checks      *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

// NewRecorder registers the business metrics on reg. Already registered
// collectors are reused so multiple recorders can share one registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	return &Recorder{
		bpDur:       register(reg, MetricsBusinessProcess).(*prometheus.HistogramVec),
		checks:      register(reg, MetricsEntitlementCheck).(*prometheus.CounterVec),
		transitions: register(reg, MetricsSubscriptionTransition).(*prometheus.CounterVec),
	}
}

func register(reg prometheus.Registerer, m *Metric) prometheus.Collector {
	c := NewMetric(m, subsystem)
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}

func (r *Recorder) ObserveProcess(typ, subtype string, start time.Time) {
	if r == nil {
		return
	}
	r.bpDur.WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
}

func (r *Recorder) ObserveEntitlement(feature, result string) {
	if r == nil {
		return
	}
	r.checks.WithLabelValues(feature, result).Inc()
}

func (r *Recorder) ObserveTransition(from, to, reason string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(from, to, reason).Inc()
}

// MillisecondsSince returns the elapsed time since start in fractional milliseconds.
func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond)
}

var Module = fx.Options(
	fx.Provide(func() *Recorder { return NewRecorder(prometheus.DefaultRegisterer) }),
)
