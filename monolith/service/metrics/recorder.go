package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcomes.
const (
	OutcomeFound   = "found"
	OutcomeNoRoute = "no_route"
	OutcomeError   = "error"
)

// Feedback outcomes.
const (
	OutcomeRecorded      = "recorded"
	OutcomeRejected      = "rejected"
	OutcomePersistFailed = "persist_failed"
)

// Recorder publishes routing metrics to a prometheus registry.
type Recorder struct {
	searchDuration    *prometheus.HistogramVec
	nodesExplored     prometheus.Histogram
	historyInfluenced prometheus.Counter
	feedback          *prometheus.CounterVec
	edgesTracked      prometheus.Gauge
}

// NewRecorder creates a Recorder whose collectors are registered with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		searchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "uroute_search_duration_seconds",
			Help:    "Duration of route searches",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"vehicle", "outcome"}),
		nodesExplored: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "uroute_search_nodes_explored",
			Help:    "Number of nodes settled per route search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		historyInfluenced: factory.NewCounter(prometheus.CounterOpts{
			Name: "uroute_history_influenced_edges_total",
			Help: "Edge costs adjusted by historical trip performance",
		}),
		feedback: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "uroute_feedback_total",
			Help: "Route feedback submissions by outcome",
		}, []string{"outcome"}),
		edgesTracked: factory.NewGauge(prometheus.GaugeOpts{
			Name: "uroute_history_edges_tracked",
			Help: "Number of edges with recorded trip history",
		}),
	}
}

// ObserveSearch records a completed search. nodesExplored and
// historyInfluenced are ignored for failed searches.
func (r *Recorder) ObserveSearch(vehicle, outcome string, elapsed time.Duration, nodesExplored, historyInfluenced int) {
	r.searchDuration.WithLabelValues(vehicle, outcome).Observe(elapsed.Seconds())
	if outcome == OutcomeError {
		return
	}

	r.nodesExplored.Observe(float64(nodesExplored))
	r.historyInfluenced.Add(float64(historyInfluenced))
}

// ObserveFeedback counts a feedback submission.
func (r *Recorder) ObserveFeedback(outcome string) {
	r.feedback.WithLabelValues(outcome).Inc()
}

// SetEdgesTracked updates the tracked edges gauge.
func (r *Recorder) SetEdgesTracked(n int) {
	r.edgesTracked.Set(float64(n))
}
