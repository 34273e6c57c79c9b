package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"PlayerCast/internal/domain/models"
	"PlayerCast/internal/repository"
	"PlayerCast/internal/services/features"

	"github.com/spf13/cobra"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast [player-id...]",
	Short: "Forecast players from the configured store or a history file",
	Long: "Forecasts the given players from the configured season store. With --history the " +
		"history is read from a file instead: .csv in the season CSV layout, .json as an array " +
		"of season records, or legacy camelCase rows with --legacy.",
	RunE: runForecast,
}

var (
	forecastHistory string
	forecastLegacy  bool
)

func init() {
	forecastCmd.Flags().StringVar(&forecastHistory, "history", "", "Forecast a single history read from this file")
	forecastCmd.Flags().BoolVar(&forecastLegacy, "legacy", false, "History JSON uses legacy camelCase rows")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.cleanup()

	if forecastHistory != "" {
		history, err := readHistory(forecastHistory, forecastLegacy)
		if err != nil {
			return err
		}
		pf, err := rt.forecaster.ForecastHistory(ctx, history)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), pf)
	}

	if len(args) == 0 {
		return fmt.Errorf("player ids or --history required")
	}
	res, err := rt.forecaster.ForecastBatch(ctx, args)
	if err != nil {
		return err
	}
	if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("%d of %d players failed", len(res.Errors), len(args))
	}
	return nil
}

func readHistory(path string, legacy bool) ([]models.SeasonRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return repository.ReadSeasonsCSV(f)
	}
	if legacy {
		var rows []features.LegacyRow
		if err := json.NewDecoder(f).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode legacy history: %w", err)
		}
		return features.FromLegacy(rows), nil
	}
	var history []models.SeasonRecord
	if err := json.NewDecoder(f).Decode(&history); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return history, nil
}
