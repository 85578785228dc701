package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of the card generator.
type Metrics struct {
	Batches           *prometheus.CounterVec
	CardsComposed     prometheus.Counter
	MembersSkipped    prometheus.Counter
	AssetsUnavailable *prometheus.CounterVec
	BatchDuration     prometheus.Histogram
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Batches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idcards_batches_total",
			Help: "Card batches by outcome (composed, empty_input, canceled).",
		}, []string{"result"}),
		CardsComposed: f.NewCounter(prometheus.CounterOpts{
			Name: "idcards_cards_composed_total",
			Help: "Member cards appended to a document.",
		}),
		MembersSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "idcards_members_skipped_total",
			Help: "Members skipped after a composition failure.",
		}),
		AssetsUnavailable: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idcards_assets_unavailable_total",
			Help: "Card images left out because the asset was unavailable.",
		}, []string{"role"}),
		BatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "idcards_batch_duration_seconds",
			Help:    "Time to compose one batch.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
}

func (m *Metrics) ObserveBatch(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.Batches.WithLabelValues(result).Inc()
	m.BatchDuration.Observe(took.Seconds())
}

func (m *Metrics) IncCardsComposed() {
	if m == nil {
		return
	}
	m.CardsComposed.Inc()
}

func (m *Metrics) IncMembersSkipped() {
	if m == nil {
		return
	}
	m.MembersSkipped.Inc()
}

func (m *Metrics) IncAssetUnavailable(role string) {
	if m == nil {
		return
	}
	m.AssetsUnavailable.WithLabelValues(role).Inc()
}
