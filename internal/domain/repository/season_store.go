package repository

import (
	"context"

	"PlayerCast/internal/domain/models"
)

// SeasonStore provides read-only access to historical season records.
type SeasonStore interface {
	// GetPlayerHistory returns every season of a player, in any order.
	// It returns models.ErrPlayerNotFound when the player has no records.
	GetPlayerHistory(ctx context.Context, playerID string) ([]models.SeasonRecord, error)
	// ListPlayers returns the ids of players with a season in the given year
	// (0 means any year), optionally filtered by championship.
	ListPlayers(ctx context.Context, championship string, year int) ([]string, error)
}
