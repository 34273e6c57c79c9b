package server

import (
	"context"
	"os/signal"
	"syscall"

	"PlayerCast/pkg/config"
	xhttp "PlayerCast/pkg/http"
	pkgkafka "PlayerCast/pkg/kafka"
	applogger "PlayerCast/pkg/logger"
)

// App encapsulates the service lifecycle: HTTP API plus optional Kafka requests.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	requests   pkgkafka.MessageHandler
}

// New creates a new App. consumer and requests may be nil when Kafka is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	requests pkgkafka.MessageHandler,
) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		consumer:   consumer,
		requests:   requests,
	}
}

// Run starts the application and blocks until ctx ends or a signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.consumer != nil && a.requests != nil {
		a.consumer.RegisterHandler(a.requests)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.log.Info("forecast requests consumer started", applogger.String("topic", a.requests.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("playercast started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("store", a.cfg.Store.Type),
		applogger.String("model", a.cfg.Model.Type),
		applogger.Int("horizon", a.cfg.Forecast.Horizon))

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops intake first; clients are closed by the DI cleanup.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
