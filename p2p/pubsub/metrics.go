package pubsub

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-iusync/metrics"
)

var processedMessages = metrics.NewHistogramWithBuckets(
	"processed_messages_seconds",
	"pubsub",
	"time spent in topic handlers",
	[]string{"result"},
	prometheus.ExponentialBuckets(0.0001, 2, 16),
)
