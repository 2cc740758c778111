package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-iusync/metrics"
)

const (
	subsystem  = "server"
	protoLabel = "protocol"
)

var (
	targetQueue = metrics.NewGauge(
		"target_queue",
		subsystem,
		"target size of the queue",
		[]string{protoLabel},
	)
	queue = metrics.NewGauge(
		"queue",
		subsystem,
		"actual size of the queue",
		[]string{protoLabel},
	)
	targetRps = metrics.NewGauge(
		"rps",
		subsystem,
		"target requests per second",
		[]string{protoLabel},
	)
	requests = metrics.NewCounter(
		"requests",
		subsystem,
		"requests counter",
		[]string{protoLabel, "state"},
	)
	clientRequests = metrics.NewCounter(
		"client_requests",
		subsystem,
		"client requests counter",
		[]string{protoLabel, "result"},
	)
	clientLatency = metrics.NewHistogramWithBuckets(
		"client_latency_seconds",
		subsystem,
		"latency since initiating a request",
		[]string{protoLabel, "result"},
		prometheus.ExponentialBuckets(0.001, 2, 14),
	)
	serverLatency = metrics.NewHistogramWithBuckets(
		"server_latency_seconds",
		subsystem,
		"latency since accepting new stream",
		[]string{protoLabel},
		prometheus.ExponentialBuckets(0.001, 2, 14),
	)
)

func newTracker(protocol string) *tracker {
	return &tracker{
		targetQueue:          targetQueue.WithLabelValues(protocol),
		queue:                queue.WithLabelValues(protocol),
		targetRps:            targetRps.WithLabelValues(protocol),
		completed:            requests.WithLabelValues(protocol, "completed"),
		failed:               requests.WithLabelValues(protocol, "failed"),
		accepted:             requests.WithLabelValues(protocol, "accepted"),
		dropped:              requests.WithLabelValues(protocol, "dropped"),
		serverLatency:        serverLatency.WithLabelValues(protocol),
		clientSucceeded:      clientRequests.WithLabelValues(protocol, "success"),
		clientFailed:         clientRequests.WithLabelValues(protocol, "failure"),
		clientServerError:    clientRequests.WithLabelValues(protocol, "server_error"),
		clientLatency:        clientLatency.WithLabelValues(protocol, "success"),
		clientLatencyFailure: clientLatency.WithLabelValues(protocol, "failure"),
	}
}

type tracker struct {
	targetQueue                                      prometheus.Gauge
	queue                                            prometheus.Gauge
	targetRps                                        prometheus.Gauge
	completed, failed, accepted, dropped             prometheus.Counter
	clientSucceeded, clientFailed, clientServerError prometheus.Counter
	serverLatency                                    prometheus.Observer
	clientLatency, clientLatencyFailure              prometheus.Observer
}
