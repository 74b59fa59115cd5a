// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "interview_emotion"

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Session metrics
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	SessionsFailed    prometheus.Counter
	SessionDuration   prometheus.Histogram

	// Capture/aggregation metrics
	SamplesAccepted    *prometheus.CounterVec
	SamplesDropped     *prometheus.CounterVec
	WindowsClosed      *prometheus.CounterVec
	WindowsEmpty       *prometheus.CounterVec
	EmissionsTotal     *prometheus.CounterVec
	ClassifierFailures *prometheus.CounterVec
	ClassifierLatency  *prometheus.HistogramVec

	// Transcription metrics
	UtterancesTotal prometheus.Counter
	STTErrors       *prometheus.CounterVec

	// Report metrics
	ReportsSaved     prometheus.Counter
	ReportSaveErrors *prometheus.CounterVec
	ScrubQueries     prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the process-wide metrics instance, registered on
// the default registry.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates and registers all metrics on the given registerer.
// Tests pass a fresh registry to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of interview sessions started",
		}),
		SessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Total number of sessions finalized into a report",
		}),
		SessionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_failed_total",
			Help:      "Total number of sessions whose finalization failed",
		}),
		SessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of recorded sessions in seconds",
			Buckets:   []float64{30, 60, 120, 300, 600, 1200, 1800, 3600},
		}),

		SamplesAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_accepted_total",
			Help:      "Total raw samples accepted into a window",
		}, []string{"modality"}),
		SamplesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_dropped_total",
			Help:      "Total raw samples dropped (full classification queue)",
		}, []string{"modality"}),
		WindowsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_closed_total",
			Help:      "Total aggregation windows closed with an emission",
		}, []string{"modality"}),
		WindowsEmpty: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_empty_total",
			Help:      "Total aggregation windows closed without any usable sample",
		}, []string{"modality"}),
		EmissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emissions_total",
			Help:      "Total emissions inserted into the session store",
		}, []string{"modality"}),
		ClassifierFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_failures_total",
			Help:      "Total per-sample classifier failures",
		}, []string{"modality"}),
		ClassifierLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_latency_seconds",
			Help:      "Per-sample classification latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"modality"}),

		UtterancesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Total completed utterances received from transcription",
		}),
		STTErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_errors_total",
			Help:      "Total transcription errors",
		}, []string{"provider"}),

		ReportsSaved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_saved_total",
			Help:      "Total reports persisted (blob and record)",
		}),
		ReportSaveErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_save_errors_total",
			Help:      "Total report persistence failures by stage",
		}, []string{"stage"}),
		ScrubQueries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrub_queries_total",
			Help:      "Total playback scrub queries served",
		}),

		KafkaPublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordSessionStart records a session starting.
func (m *Metrics) RecordSessionStart() {
	m.SessionsStarted.Inc()
}

// RecordSessionEnd records a session finalization attempt.
func (m *Metrics) RecordSessionEnd(success bool, durationSeconds float64) {
	m.SessionDuration.Observe(durationSeconds)
	if success {
		m.SessionsCompleted.Inc()
	} else {
		m.SessionsFailed.Inc()
	}
}

// RecordSample records a raw sample accepted into a window.
func (m *Metrics) RecordSample(modality string) {
	m.SamplesAccepted.WithLabelValues(modality).Inc()
}

// RecordSampleDropped records a sample dropped by a full queue.
func (m *Metrics) RecordSampleDropped(modality string) {
	m.SamplesDropped.WithLabelValues(modality).Inc()
}

// RecordWindowClosed records a window closing with an emission.
func (m *Metrics) RecordWindowClosed(modality string) {
	m.WindowsClosed.WithLabelValues(modality).Inc()
	m.EmissionsTotal.WithLabelValues(modality).Inc()
}

// RecordWindowEmpty records a window closing without usable samples.
func (m *Metrics) RecordWindowEmpty(modality string) {
	m.WindowsEmpty.WithLabelValues(modality).Inc()
}

// RecordClassifierFailure records a per-sample classifier failure.
func (m *Metrics) RecordClassifierFailure(modality string) {
	m.ClassifierFailures.WithLabelValues(modality).Inc()
}

// RecordClassifierLatency records one classification invocation.
func (m *Metrics) RecordClassifierLatency(modality string, seconds float64) {
	m.ClassifierLatency.WithLabelValues(modality).Observe(seconds)
}

// RecordUtterance records a completed utterance.
func (m *Metrics) RecordUtterance() {
	m.UtterancesTotal.Inc()
}

// RecordSTTError records a transcription error.
func (m *Metrics) RecordSTTError(provider string) {
	m.STTErrors.WithLabelValues(provider).Inc()
}

// RecordReportSaved records a fully persisted report.
func (m *Metrics) RecordReportSaved() {
	m.ReportsSaved.Inc()
}

// RecordReportSaveError records a persistence failure by stage
// ("blob" or "record").
func (m *Metrics) RecordReportSaveError(stage string) {
	m.ReportSaveErrors.WithLabelValues(stage).Inc()
}

// RecordScrubQuery records a playback scrub query.
func (m *Metrics) RecordScrubQuery() {
	m.ScrubQueries.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
