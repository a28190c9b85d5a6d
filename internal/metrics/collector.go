package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector collects and exports metrics for the powermap service.
type Collector struct {
	// Request metrics
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	// Analysis metrics
	analysesTotal    *prometheus.CounterVec
	analysisDuration prometheus.Histogram

	// Graph metrics
	graphEntities      prometheus.Histogram
	graphRelationships prometheus.Histogram
	networkDensity     prometheus.Histogram

	// Community metrics
	communitiesDetected prometheus.Histogram
	modularity          prometheus.Histogram

	// Event metrics
	eventsPublished    *prometheus.CounterVec
	eventPublishErrors *prometheus.CounterVec
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powermap_requests_total",
				Help: "Total number of HTTP requests processed",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "powermap_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		analysesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powermap_analyses_total",
				Help: "Total number of network analyses",
			},
			[]string{"status"},
		),
		analysisDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "powermap_analysis_duration_seconds",
				Help:    "Network analysis duration in seconds",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),
		graphEntities: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "powermap_graph_entities",
				Help:    "Number of entities per analyzed graph",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
			},
		),
		graphRelationships: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "powermap_graph_relationships",
				Help:    "Number of relationships per analyzed graph",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
			},
		),
		networkDensity: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "powermap_network_density",
				Help:    "Density of analyzed networks",
				Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			},
		),
		communitiesDetected: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "powermap_communities_detected",
				Help:    "Number of communities per analyzed graph",
				Buckets: []float64{1, 2, 3, 5, 10, 20, 50, 100},
			},
		),
		modularity: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "powermap_modularity",
				Help:    "Modularity scores of detected partitions",
				Buckets: []float64{-0.5, 0.0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			},
		),
		eventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powermap_events_published_total",
				Help: "Total number of events published",
			},
			[]string{"topic"},
		),
		eventPublishErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powermap_event_publish_errors_total",
				Help: "Total number of event publish errors",
			},
			[]string{"topic"},
		),
	}
}

// IncrementRequests increments the request counter.
func (c *Collector) IncrementRequests(method, endpoint, status string) {
	c.requestsTotal.WithLabelValues(method, endpoint, status).Inc()
}

// ObserveRequestDuration observes the request duration.
func (c *Collector) ObserveRequestDuration(method, endpoint string, duration time.Duration) {
	c.requestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// IncrementAnalyses increments the analysis counter.
func (c *Collector) IncrementAnalyses(status string) {
	c.analysesTotal.WithLabelValues(status).Inc()
}

// ObserveAnalysisDuration observes the analysis duration.
func (c *Collector) ObserveAnalysisDuration(duration time.Duration) {
	c.analysisDuration.Observe(duration.Seconds())
}

// ObserveGraphSize observes entity and relationship counts for one
// analyzed graph.
func (c *Collector) ObserveGraphSize(entities, relationships int) {
	c.graphEntities.Observe(float64(entities))
	c.graphRelationships.Observe(float64(relationships))
}

// ObserveNetworkDensity observes the density of one analyzed graph.
func (c *Collector) ObserveNetworkDensity(density float64) {
	c.networkDensity.Observe(density)
}

// ObserveCommunities observes the community count and modularity of
// one partition.
func (c *Collector) ObserveCommunities(count int, modularity float64) {
	c.communitiesDetected.Observe(float64(count))
	c.modularity.Observe(modularity)
}

// IncrementEventsPublished increments the published-event counter.
func (c *Collector) IncrementEventsPublished(topic string) {
	c.eventsPublished.WithLabelValues(topic).Inc()
}

// IncrementEventPublishErrors increments the publish-error counter.
func (c *Collector) IncrementEventPublishErrors(topic string) {
	c.eventPublishErrors.WithLabelValues(topic).Inc()
}
