package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"gitlab.com/cloverpay-platform/affiliate_api/actions"
	"gitlab.com/cloverpay-platform/affiliate_api/config"
	"gitlab.com/cloverpay-platform/affiliate_api/crons"
	"gitlab.com/cloverpay-platform/affiliate_api/monitor"
	"gitlab.com/cloverpay-platform/affiliate_api/net/kafka"
	"gitlab.com/cloverpay-platform/affiliate_api/queries"
	"gitlab.com/cloverpay-platform/affiliate_api/service"
)

// Server interface
type Server interface {
	Listen()
}

type server struct {
	config    config.Config
	actions   *actions.Actions
	service   *service.Service
	analytics *kafka.Writer
	ctx       context.Context
	close     context.CancelFunc
	HTTP      *http.Server
}

// NewServer constructor
func NewServer(cfg config.Config) Server {
	ctx, close := context.WithCancel(context.Background())

	repo, err := queries.NewRepo(cfg.DatabaseCluster)
	if err != nil {
		log.Fatal().Str("section", "server").Err(err).Msg("Unable to connect to the database")
	}

	var analytics *kafka.Writer
	if len(cfg.Kafka.Brokers) > 0 {
		analytics = kafka.NewWriter(cfg.Kafka)
	}

	engine := service.NewService(ctx, cfg, repo, analytics)
	userActions := actions.NewActions(cfg, engine, ctx)

	return &server{
		config:    cfg,
		service:   engine,
		actions:   userActions,
		analytics: analytics,
		ctx:       ctx,
		close:     close,
	}
}

// Listen starts the crons, the metrics endpoint and the http api, then waits
// for a termination signal
func (srv *server) Listen() {
	crons.Start(srv.config.Crons, srv.service)

	go srv.ListenToRequests()
	go monitor.LoopMetricsServer(srv.config.Server.Monitoring)

	srv.stopOnSignal()
}

func (srv *server) stopOnSignal() {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc

	log.Info().Str("section", "server").Str("app_event", "terminate").Str("signal", sig.String()).Msg("Shutting down services")
	srv.closeApp(5 * time.Second)
}

func (srv *server) closeApp(timeout time.Duration) {
	timeoutFunc := time.AfterFunc(timeout, func() {
		log.Printf("timeout %d ms has been elapsed, force exit", timeout.Milliseconds())
		os.Exit(0)
	})
	defer timeoutFunc.Stop()

	monitor.ShutdownServer()
	if srv.HTTP != nil {
		if err := srv.HTTP.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Str("section", "server").Str("action", "terminate").Msg("Unable to shutdown HTTP server")
		}
	}

	crons.Close()
	if srv.analytics != nil {
		if err := srv.analytics.Close(); err != nil {
			log.Error().Err(err).Str("section", "server").Str("action", "terminate").Msg("Unable to close the analytics writer")
		}
	}
	srv.close()
}
