package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the dojo service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Recognition metrics
	framesIngested      prometheus.Counter
	framesDuplicate     prometheus.Counter
	posesRejected       *prometheus.CounterVec
	actionsDetected     *prometheus.CounterVec
	keyframesCaptured   *prometheus.CounterVec
	frameLatency        prometheus.Histogram
	classifyLatency     prometheus.Histogram
	sessionsActive      prometheus.Gauge
	sessionsEnded       prometheus.Counter
	emissionsDropped    prometheus.Counter
	streamClients       prometheus.Gauge
	streamMessagesSent  prometheus.Counter
	streamMessagesDrops prometheus.Counter

	// Queue metrics, one series per shard
	queueSize          *prometheus.GaugeVec
	queueCapacity      *prometheus.GaugeVec
	queueUtilization   *prometheus.GaugeVec
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Worker metrics
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dojo",
		subsystem:        "engine",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.framesIngested = auto.NewCounter(m.counterOpts("frames_ingested_total", "Frames run through a session pipeline"))
	m.framesDuplicate = auto.NewCounter(m.counterOpts("frames_duplicate_total", "Resent frames dropped by the deduper"))
	m.posesRejected = auto.NewCounterVec(m.counterOpts("poses_rejected_total", "Poses rejected at the buffer boundary"), []string{"reason"})
	m.actionsDetected = auto.NewCounterVec(m.counterOpts("actions_detected_total", "Confirmed action events"), []string{"type"})
	m.keyframesCaptured = auto.NewCounterVec(m.counterOpts("keyframes_captured_total", "Captured keyframes"), []string{"type"})
	m.frameLatency = auto.NewHistogram(m.histogramOpts("frame_processing_latency_milliseconds", "Time to run one frame through a session"))
	m.classifyLatency = auto.NewHistogram(m.histogramOpts("classification_latency_milliseconds", "Time to build an end-of-session report"))
	m.sessionsActive = auto.NewGauge(m.gaugeOpts("sessions_active", "Open training sessions"))
	m.sessionsEnded = auto.NewCounter(m.counterOpts("sessions_ended_total", "Sessions that produced a final report"))
	m.emissionsDropped = auto.NewCounter(m.counterOpts("emissions_dropped_total", "Emissions evicted from a full session log"))
	m.streamClients = auto.NewGauge(m.gaugeOpts("stream_clients", "Connected live stream clients"))
	m.streamMessagesSent = auto.NewCounter(m.counterOpts("stream_messages_sent_total", "Emissions written to live stream clients"))
	m.streamMessagesDrops = auto.NewCounter(m.counterOpts("stream_messages_dropped_total", "Emissions dropped for slow stream clients"))

	m.queueSize = auto.NewGaugeVec(m.gaugeOpts("queue_size", "Messages waiting in a shard queue"), []string{"shard"})
	m.queueCapacity = auto.NewGaugeVec(m.gaugeOpts("queue_capacity", "Capacity of a shard queue"), []string{"shard"})
	m.queueUtilization = auto.NewGaugeVec(m.gaugeOpts("queue_utilization_ratio", "Fill ratio of a shard queue (0-1)"), []string{"shard"})
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Messages enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Messages dequeued"))
	m.queueEnqueueErrors = auto.NewCounterVec(m.counterOpts("queue_enqueue_errors_total", "Messages refused by a queue"), []string{"reason"})

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Running shard workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds", "Time a worker spends on one message"))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Messages a worker failed to handle"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordFrameIngested increments the processed frames counter.
func RecordFrameIngested() { globalManager.framesIngested.Inc() }

// RecordFrameDuplicate increments the duplicate frames counter.
func RecordFrameDuplicate() { globalManager.framesDuplicate.Inc() }

// RecordPoseRejected counts a pose refused for reason.
func RecordPoseRejected(reason string) { globalManager.posesRejected.WithLabelValues(reason).Inc() }

// RecordAction counts a confirmed action of the given type.
func RecordAction(actionType string) { globalManager.actionsDetected.WithLabelValues(actionType).Inc() }

// RecordKeyFrame counts a captured keyframe of the given type.
func RecordKeyFrame(keyframeType string) {
	globalManager.keyframesCaptured.WithLabelValues(keyframeType).Inc()
}

// RecordFrameLatency records the per-frame pipeline latency in milliseconds.
func RecordFrameLatency(latencyMs float64) { globalManager.frameLatency.Observe(latencyMs) }

// RecordClassificationLatency records report build latency in milliseconds.
func RecordClassificationLatency(latencyMs float64) { globalManager.classifyLatency.Observe(latencyMs) }

// UpdateSessionsActive sets the open session count.
func UpdateSessionsActive(count int) { globalManager.sessionsActive.Set(float64(count)) }

// RecordSessionEnded increments the ended sessions counter.
func RecordSessionEnded() { globalManager.sessionsEnded.Inc() }

// RecordEmissionDropped counts an emission evicted from a session log.
func RecordEmissionDropped() { globalManager.emissionsDropped.Inc() }

// UpdateStreamClients sets the connected stream client count.
func UpdateStreamClients(count int) { globalManager.streamClients.Set(float64(count)) }

// RecordStreamSent counts an emission written to a stream client.
func RecordStreamSent() { globalManager.streamMessagesSent.Inc() }

// RecordStreamDropped counts an emission a slow client missed.
func RecordStreamDropped() { globalManager.streamMessagesDrops.Inc() }

// Queue Metrics Functions.

// UpdateQueueSize sets the current size of a shard queue.
func UpdateQueueSize(shard string, size int) {
	globalManager.queueSize.WithLabelValues(shard).Set(float64(size))
}

// UpdateQueueCapacity sets the capacity of a shard queue.
func UpdateQueueCapacity(shard string, capacity int) {
	globalManager.queueCapacity.WithLabelValues(shard).Set(float64(capacity))
}

// UpdateQueueUtilization sets the fill ratio of a shard queue.
func UpdateQueueUtilization(shard string, utilization float64) {
	globalManager.queueUtilization.WithLabelValues(shard).Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a refused enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records worker processing latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records errors by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
