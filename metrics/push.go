package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

type pushConfig struct {
	clock     clockwork.Clock
	retries   int
	retryWait time.Duration
}

// PushOpt configures StartPushingMetrics.
type PushOpt func(*pushConfig)

// WithClock replaces the wall clock that schedules pushes.
func WithClock(clock clockwork.Clock) PushOpt {
	return func(c *pushConfig) {
		c.clock = clock
	}
}

// WithRetries sets how often a failed push is retried and the minimal wait between retries.
func WithRetries(retries int, wait time.Duration) PushOpt {
	return func(c *pushConfig) {
		c.retries = retries
		c.retryWait = wait
	}
}

type retryableHttpLogger struct {
	inner *zap.Logger
}

func (r retryableHttpLogger) Error(format string, args ...any) {
	r.inner.Sugar().Errorw(format, args...)
}

func (r retryableHttpLogger) Info(format string, args ...any) {
	r.inner.Sugar().Infow(format, args...)
}

func (r retryableHttpLogger) Warn(format string, args ...any) {
	r.inner.Sugar().Warnw(format, args...)
}

func (r retryableHttpLogger) Debug(format string, args ...any) {
	r.inner.Sugar().Debugw(format, args...)
}

// StartPushingMetrics pushes the default registry to the gateway at url every period
// until ctx is canceled.
func StartPushingMetrics(
	ctx context.Context,
	logger *zap.Logger,
	url string,
	headers map[string]string,
	period time.Duration,
	instance string,
	opts ...PushOpt,
) {
	cfg := pushConfig{
		clock:     clockwork.NewRealClock(),
		retries:   3,
		retryWait: time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.retries
	client.RetryWaitMin = cfg.retryWait
	client.RetryWaitMax = 10 * cfg.retryWait
	client.Logger = retryableHttpLogger{logger.Named("push")}

	header := http.Header{}
	for k, v := range headers {
		header.Add(k, v)
	}
	pusher := push.New(url, "iusync").
		Client(client.StandardClient()).
		Gatherer(prometheus.DefaultGatherer).
		Grouping("instance", instance).
		Header(header)
	go func() {
		ticker := cfg.clock.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if err := pusher.PushContext(ctx); err != nil {
					logger.Warn("failed to push metrics", zap.String("url", url), zap.Error(err))
				}
			}
		}
	}()
}
