package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List players in the configured store",
	RunE:  runPlayers,
}

var (
	playersChampionship string
	playersYear         int
)

func init() {
	playersCmd.Flags().StringVar(&playersChampionship, "championship", "", "Only players of this championship")
	playersCmd.Flags().IntVar(&playersYear, "year", 0, "Only players with a season in this year")
	rootCmd.AddCommand(playersCmd)
}

func runPlayers(cmd *cobra.Command, _ []string) error {
	rt, err := loadRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.cleanup()

	ids, err := rt.store.ListPlayers(cmd.Context(), playersChampionship, playersYear)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}
