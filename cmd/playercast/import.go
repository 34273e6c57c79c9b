package main

import (
	"fmt"
	"os"

	"PlayerCast/internal/repository"
	"PlayerCast/pkg/config"
	applogger "PlayerCast/pkg/logger"
	"PlayerCast/pkg/postgres"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <players.csv>",
	Short: "Load a season CSV into PostgreSQL",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres.url or DATABASE_URL is required")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()
	records, err := repository.ReadSeasonsCSV(f)
	if err != nil {
		return err
	}

	pool, err := postgres.New(ctx, cfg.Postgres.URL, postgres.WithMaxConns(cfg.Postgres.MaxConns))
	if err != nil {
		return err
	}
	defer pool.Close()

	l := applogger.NewWriter(os.Stderr, cfg.Log.Level)
	store := repository.NewPGSeasonStore(pool, cfg.Postgres.Table, l)
	if err := store.UpsertSeasons(ctx, records); err != nil {
		return err
	}
	l.Info("seasons imported", applogger.Int("records", len(records)), applogger.String("table", cfg.Postgres.Table))
	return nil
}
