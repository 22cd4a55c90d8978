package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "nessiecatalog"

	metricLabelHandler   = "handler"
	metricLabelOperation = "operation"
	metricLabelStatus    = "status"
	metricLabelResult    = "result"
)

// Result label values of CommitCounter
const (
	ResultSuccess  = "success"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// Metrics is the structure that holds all prometheus metrics
var (
	// ClientRequestCounter counts the requests sent to the versioned store
	ClientRequestCounter = newCounterVec(
		"client_request_count",
		"Count of requests sent to the versioned store per operation",
		metricLabelOperation, metricLabelStatus,
	)
	// ClientRequestDuration observe the round trip of requests to the versioned store
	ClientRequestDuration = newSummaryVec(
		"client_request_duration_seconds",
		"Seconds for a round trip to the versioned store per operation",
		metricLabelOperation, metricLabelStatus,
	)
	// ServiceRequestCounter count the number of requests for each catalog handler
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each handler",
		metricLabelHandler, metricLabelStatus,
	)
	// ServiceRequestDuration observe the duration of requests for each catalog handler
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to unmarshal requests, execute a catalog operation and marshal its reponses",
		metricLabelHandler, metricLabelStatus,
	)
	// CommitCounter counts catalog commits by outcome
	CommitCounter = newCounterVec(
		"commit_count",
		"Number of catalog commits per operation and result",
		metricLabelOperation, metricLabelResult,
	)
	// ReferencesGauge number of references seen by the last listing
	ReferencesGauge = newGaugeVec(
		"references_total",
		"Number of references returned by the last listing",
	)
)

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newGaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
