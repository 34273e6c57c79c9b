//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"PlayerCast/pkg/config"
	"PlayerCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(ctx context.Context, cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Model and engine
		ProvideRegressionModel,
		ProvideEngine,
		ProvideForecaster,

		// Infrastructure
		ProvideSeasonStore,
		ProvideForecastCache,
		ProvideForecastPublisher,
		ProvideKafkaConsumer,

		// Use cases
		ProvidePlayerForecaster,
		ProvideKafkaForecastHandler,

		// Transport
		ProvideBatchLimiter,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
