// Package metrics define telemetry primitives to use across components. it uses the prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Config for the metrics http server and push gateway.
type Config struct {
	Enabled    bool              `mapstructure:"metrics"`
	Address    string            `mapstructure:"metrics-address"`
	PushURL    string            `mapstructure:"metrics-push"`
	PushPeriod time.Duration     `mapstructure:"metrics-push-period"`
	PushHeader map[string]string `mapstructure:"metrics-push-header"`
}

func DefaultConfig() Config {
	return Config{
		Address:    "127.0.0.1:1010",
		PushPeriod: time.Minute,
	}
}

// StartMetricsServer serves /metrics on addr until ctx is canceled.
func StartMetricsServer(ctx context.Context, logger *zap.Logger, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.String("address", addr), zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	return srv
}
