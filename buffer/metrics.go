package buffer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-iusync/metrics"
)

const subsystem = "buffer"

const (
	dropDecode                = "decode"
	dropSelfEcho              = "self_echo"
	dropUnknownUnit           = "unknown_unit"
	dropDuplicateAnnouncement = "duplicate_announcement"
	dropDuplicateMessage      = "duplicate_message"
	dropLatched               = "latched"
	dropClosed                = "closed"

	resendAccepted = "accepted"
	resendRejected = "rejected"
	resendFailed   = "failed"
)

var (
	eventsReceived = metrics.NewCounter(
		"events_received",
		subsystem,
		"number of decoded events by kind",
		[]string{"kind"},
	)
	eventsDropped = metrics.NewCounter(
		"events_dropped",
		subsystem,
		"number of events dropped without handler invocation",
		[]string{"reason"},
	)
	handlerPanics = metrics.NewCounter(
		"handler_panics",
		subsystem,
		"number of recovered panics in event handlers",
		[]string{},
	).WithLabelValues()
	resendRequests = metrics.NewCounter(
		"resend_requests",
		subsystem,
		"number of resend requests by result",
		[]string{"result"},
	)
	resendLatency = metrics.NewHistogramWithBuckets(
		"resend_latency_seconds",
		subsystem,
		"latency of resend requests",
		[]string{"result"},
		prometheus.ExponentialBuckets(0.001, 2, 12),
	)
	mirroredUnits = metrics.NewGauge(
		"mirrored_units",
		subsystem,
		"number of durable units mirrored by a buffer",
		[]string{"buffer"},
	)
)
