// Package main implements the playercast CLI for offline forecasts and data loading.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"PlayerCast/internal/di"
	"PlayerCast/internal/domain/repository"
	"PlayerCast/internal/usecase"
	"PlayerCast/pkg/config"
	applogger "PlayerCast/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "playercast",
	Short:         "Player season forecasting",
	Long:          "playercast forecasts the next seasons of football players from their season history.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "Path to YAML config")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runtime bundles what the offline commands need.
type runtime struct {
	cfg        *config.Config
	log        *applogger.Logger
	store      repository.SeasonStore
	forecaster *usecase.PlayerForecaster
	cleanup    func()
}

// loadRuntime wires the season store and engine without any network surface.
func loadRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, err
	}
	// CLI output goes to stdout; keep logs on stderr.
	cfg.Log.Output = "stderr"
	l, err := di.ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	model, err := di.ProvideRegressionModel(cfg)
	if err != nil {
		return nil, err
	}
	engine, err := di.ProvideEngine(model, nil, l, cfg)
	if err != nil {
		return nil, err
	}
	store, cleanup, err := di.ProvideSeasonStore(ctx, cfg, l)
	if err != nil {
		return nil, err
	}
	f := usecase.NewPlayerForecaster(store, engine, cfg.Forecast.Horizon,
		usecase.WithForecastLogger(l),
		usecase.WithWorkers(cfg.Forecast.Workers),
	)
	return &runtime{cfg: cfg, log: l, store: store, forecaster: f, cleanup: cleanup}, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
