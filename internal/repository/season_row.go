package repository

import (
	"PlayerCast/internal/domain/models"
	"PlayerCast/internal/services/features"
)

// seasonColumns is the column list shared by the SQL season stores.
const seasonColumns = `player_id, year, age, role, squad, championship,
	games_played, goals, assists, minute_played, value_player,
	goals_conceded, clean_sheets`

// seasonRow is the scan target for one row of seasonColumns.
type seasonRow struct {
	PlayerID      string
	Year          int
	Age           int
	Role          string
	Squad         string
	Championship  string
	GamesPlayed   *float64
	Goals         *float64
	Assists       *float64
	MinutePlayed  *float64
	ValuePlayer   *float64
	GoalsConceded *float64
	CleanSheets   *float64
}

func (r *seasonRow) dest() []any {
	return []any{
		&r.PlayerID, &r.Year, &r.Age, &r.Role, &r.Squad, &r.Championship,
		&r.GamesPlayed, &r.Goals, &r.Assists, &r.MinutePlayed, &r.ValuePlayer,
		&r.GoalsConceded, &r.CleanSheets,
	}
}

func (r *seasonRow) record() models.SeasonRecord {
	return models.SeasonRecord{
		PlayerID:      r.PlayerID,
		Year:          r.Year,
		Age:           r.Age,
		Role:          features.NormalizeRole(r.Role),
		Squad:         r.Squad,
		Championship:  r.Championship,
		GamesPlayed:   models.FromPtr(r.GamesPlayed),
		Goals:         models.FromPtr(r.Goals),
		Assists:       models.FromPtr(r.Assists),
		MinutePlayed:  models.FromPtr(r.MinutePlayed),
		ValuePlayer:   models.FromPtr(r.ValuePlayer),
		GoalsConceded: models.FromPtr(r.GoalsConceded),
		CleanSheets:   models.FromPtr(r.CleanSheets),
	}
}
