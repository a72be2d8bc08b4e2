package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module.
// Tracks registration/publication counts and critical path durations.
type Metrics struct {
	SourcesRegistered     prometheus.Counter
	ContentPublished      prometheus.Counter
	ModificationsRecorded prometheus.Counter
	PublishDuration       prometheus.Histogram
	GetContentDuration    prometheus.Histogram
	ModifyDuration        prometheus.Histogram
}

// New creates a new Metrics instance with all registry module metrics registered.
func New() *Metrics {
	return &Metrics{
		SourcesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veracity_sources_registered_total",
			Help: "Total number of content sources registered",
		}),
		ContentPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veracity_content_published_total",
			Help: "Total number of content records published",
		}),
		ModificationsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veracity_modifications_recorded_total",
			Help: "Total number of content modifications recorded",
		}),
		PublishDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veracity_publish_content_duration_seconds",
			Help:    "Duration of PublishContent operations (write critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		GetContentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veracity_get_content_duration_seconds",
			Help:    "Duration of GetContent operations (verification hot path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ModifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veracity_record_modification_duration_seconds",
			Help:    "Duration of RecordModification operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementSourcesRegistered records a successful source registration.
func (m *Metrics) IncrementSourcesRegistered() {
	m.SourcesRegistered.Inc()
}

// IncrementContentPublished records a successful content publication.
func (m *Metrics) IncrementContentPublished() {
	m.ContentPublished.Inc()
}

// IncrementModificationsRecorded records a successful modification append.
func (m *Metrics) IncrementModificationsRecorded() {
	m.ModificationsRecorded.Inc()
}

// ObservePublish records the duration of a PublishContent operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObservePublish(start time.Time) {
	m.PublishDuration.Observe(time.Since(start).Seconds())
}

// ObserveGetContent records the duration of a GetContent operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGetContent(start time.Time) {
	m.GetContentDuration.Observe(time.Since(start).Seconds())
}

// ObserveModify records the duration of a RecordModification operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveModify(start time.Time) {
	m.ModifyDuration.Observe(time.Since(start).Seconds())
}
