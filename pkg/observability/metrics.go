package observability

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/tendril/pkg/domain"
)

// Metrics holds the dispatcher collectors.
type Metrics struct {
	Registrations     *prometheus.CounterVec
	Dispatches        *prometheus.CounterVec
	DispatchDuration  *prometheus.HistogramVec
	Suggestions       prometheus.Counter
	SuggestDuration   prometheus.Histogram
	SuggestCandidates prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tendril_registrations_total",
				Help: "Command registrations and removals by outcome",
			},
			[]string{"event", "outcome"},
		),
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tendril_dispatches_total",
				Help: "Dispatched command lines by command and outcome",
			},
			[]string{"command", "outcome"},
		),
		DispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tendril_dispatch_duration_seconds",
				Help:    "Time spent routing, parsing and running synchronous handlers",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"command"},
		),
		Suggestions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tendril_suggestions_total",
			Help: "Completion requests",
		}),
		SuggestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tendril_suggest_duration_seconds",
			Help:    "Time spent computing completions",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		SuggestCandidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tendril_suggest_candidates",
			Help:    "Number of candidates returned per completion request",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Registrations, m.Dispatches, m.DispatchDuration,
		m.Suggestions, m.SuggestDuration, m.SuggestCandidates,
	}
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	registration := func(_ context.Context, e *domain.RegistrationEvent) {
		outcome := "ok"
		switch {
		case e.Err != nil:
			outcome = "error"
		case e.Skipped:
			outcome = "skipped"
		}
		m.Registrations.WithLabelValues(string(e.Type), outcome).Inc()
	}

	return domain.LifecycleHooks{
		OnRegister:   registration,
		OnUnregister: registration,
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			command := commandLabel(e.Route)
			m.Dispatches.WithLabelValues(command, domain.Kind(e.Err)).Inc()
			m.DispatchDuration.WithLabelValues(command).Observe(e.Duration.Seconds())
		},
		OnSuggest: func(_ context.Context, e *domain.SuggestEvent) {
			m.Suggestions.Inc()
			m.SuggestDuration.Observe(e.Duration.Seconds())
			m.SuggestCandidates.Observe(float64(e.Count))
		},
	}
}

// commandLabel keeps label cardinality bounded by the registered routes:
// the primary path of the route, or "unmatched".
func commandLabel(route string) string {
	if route == "" {
		return "unmatched"
	}
	cmd := domain.Command{Route: route}
	if name := cmd.Name(); name != "" {
		return name
	}
	return strings.TrimSpace(route)
}
