package features

import (
	"strings"

	"PlayerCast/internal/domain/models"
)

// LegacyRow is the camelCase player payload produced by the crawler-backed store.
type LegacyRow struct {
	NamePlayer    string   `json:"namePlayer"`
	Year          int      `json:"year"`
	Age           int      `json:"age"`
	Role          string   `json:"role"`
	NameTeam      string   `json:"nameTeam"`
	NameLeague    string   `json:"nameLeague"`
	Games         *float64 `json:"games"`
	Goals         *float64 `json:"goals"`
	Assists       *float64 `json:"assists"`
	Minutes       *float64 `json:"minutes"`
	ValuePlayer   *float64 `json:"valuePlayer"`
	GoalsConceded *float64 `json:"goalsConceded"`
	CleanSheets   *float64 `json:"cleanSheets"`
}

// ToSeason maps a legacy row onto the canonical season record.
// Any role other than goalkeeper is treated as outfield.
func (l LegacyRow) ToSeason() models.SeasonRecord {
	return models.SeasonRecord{
		PlayerID:      l.NamePlayer,
		Year:          l.Year,
		Age:           l.Age,
		Role:          NormalizeRole(l.Role),
		Squad:         l.NameTeam,
		Championship:  l.NameLeague,
		GamesPlayed:   models.FromPtr(l.Games),
		Goals:         models.FromPtr(l.Goals),
		Assists:       models.FromPtr(l.Assists),
		MinutePlayed:  models.FromPtr(l.Minutes),
		ValuePlayer:   models.FromPtr(l.ValuePlayer),
		GoalsConceded: models.FromPtr(l.GoalsConceded),
		CleanSheets:   models.FromPtr(l.CleanSheets),
	}
}

// FromLegacy converts a batch of legacy rows.
func FromLegacy(rows []LegacyRow) []models.SeasonRecord {
	out := make([]models.SeasonRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToSeason())
	}
	return out
}

// NormalizeRole maps free-form positions onto the two modelled roles.
func NormalizeRole(s string) models.Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ""
	case "goalkeeper", "gk", "keeper":
		return models.RoleGoalkeeper
	default:
		return models.RoleOutfield
	}
}
