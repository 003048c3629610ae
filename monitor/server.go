package monitor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var metricsServer *http.Server

// MonitorConfig holds the metrics endpoint settings
type MonitorConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoopMetricsServer exposes the prometheus registry on its own port. It
// blocks until the server is shut down.
func LoopMetricsServer(cfg MonitorConfig) {
	if !cfg.Enabled {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}
	log.Info().Str("worker", "metrics_server").Str("action", "start").Int("port", cfg.Port).Msg("Metrics server - started")
	if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Str("section", "monitor").Msg("Unable to start the metrics server")
	}
}

// ShutdownServer stops the metrics endpoint
func ShutdownServer() {
	if metricsServer == nil {
		return
	}
	if err := metricsServer.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Str("section", "monitor").Msg("Unable to shutdown the metrics server")
	}
}
