package di

import (
	"context"
	"fmt"

	"PlayerCast/internal/domain/repository"
	"PlayerCast/internal/domain/service"
	"PlayerCast/internal/handler/api"
	internalrepo "PlayerCast/internal/repository"
	icache "PlayerCast/internal/service/cache"
	"PlayerCast/internal/service/ratelimit"
	"PlayerCast/internal/services/analytics"
	"PlayerCast/internal/services/features"
	"PlayerCast/internal/services/forecast"
	"PlayerCast/internal/usecase"
	pkgch "PlayerCast/pkg/clickhouse"
	"PlayerCast/pkg/config"
	xhttp "PlayerCast/pkg/http"
	pkgkafka "PlayerCast/pkg/kafka"
	applogger "PlayerCast/pkg/logger"
	"PlayerCast/pkg/metrics"
	"PlayerCast/pkg/postgres"
	"PlayerCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideRegressionModel loads the configured regression model.
func ProvideRegressionModel(cfg *config.Config) (service.RegressionModel, error) {
	switch cfg.Model.Type {
	case "http":
		return analytics.NewHTTPRegressionModel(cfg.Model.URL, cfg.Model.Timeout, cfg.Model.Retries), nil
	default:
		m, err := analytics.LoadLinearModel(cfg.Model.ArtifactPath)
		if err != nil {
			return nil, fmt.Errorf("linear model: %w", err)
		}
		return m, nil
	}
}

// ProvideEngine creates the forecast engine.
func ProvideEngine(
	model service.RegressionModel,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) (*forecast.Engine, error) {
	lags, err := features.NewLagBuilder(cfg.Forecast.LagLevels...)
	if err != nil {
		return nil, fmt.Errorf("lag builder: %w", err)
	}
	return forecast.NewEngine(model,
		forecast.WithHorizon(cfg.Forecast.Horizon),
		forecast.WithAligner(features.NewAligner(features.WithGapThreshold(cfg.Forecast.GapThreshold))),
		forecast.WithLagBuilder(lags),
		forecast.WithLogger(l),
		forecast.WithMetrics(m),
	)
}

// ProvideForecaster exposes the engine as the domain Forecaster.
func ProvideForecaster(e *forecast.Engine) service.Forecaster {
	return e
}

// ProvideSeasonStore opens the configured season store.
func ProvideSeasonStore(ctx context.Context, cfg *config.Config, l *applogger.Logger) (repository.SeasonStore, func(), error) {
	switch cfg.Store.Type {
	case "clickhouse":
		client, err := pkgch.NewClient(ctx,
			pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				l.Warn("clickhouse close error", applogger.Error(err))
			}
		}
		return internalrepo.NewCHSeasonStore(client, cfg.ClickHouse.Table, l), cleanup, nil
	case "postgres":
		pool, err := postgres.New(ctx, cfg.Postgres.URL, postgres.WithMaxConns(cfg.Postgres.MaxConns))
		if err != nil {
			return nil, nil, fmt.Errorf("postgres pool: %w", err)
		}
		return internalrepo.NewPGSeasonStore(pool, cfg.Postgres.Table, l), pool.Close, nil
	default:
		s, err := internalrepo.OpenCSVSeasonStore(cfg.Store.CSVPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

// ProvideForecastCache builds an in-process cache, backed by Redis when enabled.
func ProvideForecastCache(ctx context.Context, cfg *config.Config, l *applogger.Logger) (*icache.ForecastCache, func(), error) {
	l1 := icache.NewTTLCache()
	if !cfg.Cache.Redis.Enabled {
		return icache.NewForecastCache(l1, cfg.Cache.TTL), func() {}, nil
	}
	rc := icache.NewRedisCache(icache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	cleanup := func() {
		if err := rc.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}
	return icache.NewForecastCache(icache.NewLayered(l1, rc), cfg.Cache.TTL), cleanup, nil
}

// ProvideForecastPublisher creates a Kafka publisher, or a no-op one when Kafka is off.
func ProvideForecastPublisher(cfg *config.Config, l *applogger.Logger) (repository.ForecastPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopForecastPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaForecastPublisher(producer, cfg.Kafka.ForecastTopic)
	cleanup := func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return pub, cleanup, nil
}

// ProvidePlayerForecaster creates the forecast use case.
func ProvidePlayerForecaster(
	store repository.SeasonStore,
	f service.Forecaster,
	fc *icache.ForecastCache,
	pub repository.ForecastPublisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.PlayerForecaster {
	return usecase.NewPlayerForecaster(store, f, cfg.Forecast.Horizon,
		usecase.WithCache(fc),
		usecase.WithPublisher(pub),
		usecase.WithForecastMetrics(m),
		usecase.WithForecastLogger(l),
		usecase.WithWorkers(cfg.Forecast.Workers),
	)
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when Kafka is off.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.RequestTopic+".dlq"),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaForecastHandler serves the forecast request topic.
func ProvideKafkaForecastHandler(
	f *usecase.PlayerForecaster,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) pkgkafka.MessageHandler {
	return usecase.NewKafkaForecastHandler(cfg.Kafka.RequestTopic, f, m, l)
}

// ProvideBatchLimiter limits batch forecast requests per client.
func ProvideBatchLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.BatchRate, cfg.Server.BatchBurst)
}

// ProvideHTTPServer creates the Echo server with the forecast routes.
func ProvideHTTPServer(
	f *usecase.PlayerForecaster,
	rl *ratelimit.Limiter,
	l *applogger.Logger,
	cfg *config.Config,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(l,
		[]xhttp.Handler{api.NewForecastEchoHandler(l, f, rl)},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
) *server.App {
	return server.New(cfg, l, srv, consumer, kh)
}
