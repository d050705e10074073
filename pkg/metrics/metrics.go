package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registrations     *prometheus.CounterVec
	Logins            *prometheus.CounterVec
	Questions         *prometheus.CounterVec
	LLMLatency        prometheus.Histogram
	DuplicateRemovals prometheus.Counter
}

// New creates the collectors and registers them on reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lexaprendiz_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lexaprendiz_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		Questions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lexaprendiz_questions_total",
			Help: "Questions sent to the language model by outcome",
		}, []string{"outcome"}),
		LLMLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lexaprendiz_llm_request_seconds",
			Help:    "Latency of chat completion calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		}),
		DuplicateRemovals: f.NewCounter(prometheus.CounterOpts{
			Name: "lexaprendiz_duplicate_accounts_removed_total",
			Help: "Accounts removed by the admin duplicate cleanup",
		}),
	}
}

func (m *Metrics) Registration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Question(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Questions.WithLabelValues(outcome).Inc()
	m.LLMLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) DuplicatesRemoved(n int) {
	if m == nil {
		return
	}
	m.DuplicateRemovals.Add(float64(n))
}
