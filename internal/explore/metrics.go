package explore

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Exploration outcomes recorded in daylog_explore_explorations_total.
const (
	OutcomeMatched = "matched"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

// Metrics exports exploration counters and histograms. A nil *Metrics
// records nothing.
type Metrics struct {
	explorations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	resultSize   *prometheus.HistogramVec
}

// NewMetrics registers the exploration metrics with reg, or with the default
// registerer when reg is nil. Collectors already registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		explorations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daylog",
			Subsystem: "explore",
			Name:      "explorations_total",
			Help:      "Explorations run, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "daylog",
			Subsystem: "explore",
			Name:      "duration_seconds",
			Help:      "Exploration latency, by mode.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		resultSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "daylog",
			Subsystem: "explore",
			Name:      "result_entries",
			Help:      "Entries returned per exploration, by mode.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		}, []string{"mode"}),
	}

	if err := register(reg, &m.explorations); err != nil {
		return nil, err
	}
	if err := register(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := register(reg, &m.resultSize); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNewMetrics is like NewMetrics but panics on registration failure.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	m, err := NewMetrics(reg)
	if err != nil {
		panic(err)
	}
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				*c = existing
				return nil
			}
		}
		return fmt.Errorf("register explore metric: %w", err)
	}
	return nil
}

func (m *Metrics) observe(mode string, d time.Duration, results int, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeMatched
	switch {
	case err != nil:
		outcome = OutcomeError
	case results == 0:
		outcome = OutcomeEmpty
	}
	m.explorations.WithLabelValues(mode, outcome).Inc()
	m.duration.WithLabelValues(mode).Observe(d.Seconds())
	if err == nil {
		m.resultSize.WithLabelValues(mode).Observe(float64(results))
	}
}
