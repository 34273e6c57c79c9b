package models

import (
	"encoding/json"
	"time"
)

// MaxLagLevel is the deepest lag a row may carry. The model reads ModelLagWindow
// levels; a rotation leaves one extra level behind until the next step drops it.
const (
	MaxLagLevel    = 3
	ModelLagWindow = 2
)

// FeatureRow is a season record extended with lagged target metrics.
// Lags[L-1] holds lag level L.
type FeatureRow struct {
	SeasonRecord
	Lags [MaxLagLevel]Targets
}

// Lag returns lag level l (1-based).
func (r FeatureRow) Lag(l int) Targets {
	if l < 1 || l > MaxLagLevel {
		return Targets{}
	}
	return r.Lags[l-1]
}

// ModelInput projects the row onto the regression model's feature columns.
func (r FeatureRow) ModelInput() ModelInput {
	return ModelInput{
		Age:          r.Age,
		Year:         r.Year,
		Role:         r.Role,
		Squad:        r.Squad,
		Championship: r.Championship,
		Lag1:         r.Lags[0],
		Lag2:         r.Lags[1],
	}
}

// Forecast projects the row onto the forecast output shape.
func (r FeatureRow) Forecast() ForecastRecord {
	return ForecastRecord{
		Year:         r.Year,
		Age:          r.Age,
		Role:         r.Role,
		Squad:        r.Squad,
		Championship: r.Championship,
		GamesPlayed:  r.GamesPlayed,
		Goals:        r.Goals,
		Assists:      r.Assists,
		MinutePlayed: r.MinutePlayed,
		ValuePlayer:  r.ValuePlayer,
	}
}

// ModelInput is the feature row handed to a regression model.
type ModelInput struct {
	Age          int
	Year         int
	Role         Role
	Squad        string
	Championship string
	Lag1         Targets
	Lag2         Targets
}

// Numeric returns the numeric features in a stable column order with their names.
func (m ModelInput) Numeric() ([]string, []Stat) {
	names := make([]string, 0, 2+2*NumTargets)
	vals := make([]Stat, 0, 2+2*NumTargets)
	names = append(names, "age", "year")
	vals = append(vals, Observed(float64(m.Age)), Observed(float64(m.Year)))
	for i, col := range TargetColumns {
		names = append(names, "lag_1_"+col)
		vals = append(vals, m.Lag1[i])
	}
	for i, col := range TargetColumns {
		names = append(names, "lag_2_"+col)
		vals = append(vals, m.Lag2[i])
	}
	return names, vals
}

// Categorical returns the categorical features keyed by column name.
func (m ModelInput) Categorical() map[string]string {
	return map[string]string{
		"role":         string(m.Role),
		"squad":        m.Squad,
		"championship": m.Championship,
	}
}

// MarshalJSON flattens the input into model column names.
func (m ModelInput) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 5+2*NumTargets)
	for k, v := range m.Categorical() {
		out[k] = v
	}
	names, vals := m.Numeric()
	for i, n := range names {
		out[n] = vals[i].Ptr()
	}
	out["age"] = m.Age
	out["year"] = m.Year
	return json.Marshal(out)
}

// ForecastRecord is one predicted future season.
type ForecastRecord struct {
	Year         int    `json:"year"`
	Age          int    `json:"age"`
	Role         Role   `json:"role"`
	Squad        string `json:"squad"`
	Championship string `json:"championship"`
	GamesPlayed  Stat   `json:"games_played"`
	Goals        Stat   `json:"goals"`
	Assists      Stat   `json:"assists"`
	MinutePlayed Stat   `json:"minute_played"`
	ValuePlayer  Stat   `json:"value_player"`
}

// Targets returns the forecast target metrics in model order.
func (f ForecastRecord) Targets() Targets {
	return Targets{f.GamesPlayed, f.Goals, f.Assists, f.MinutePlayed, f.ValuePlayer}
}

// PlayerForecast is the engine's answer for one player.
type PlayerForecast struct {
	PlayerID    string           `json:"player_id"`
	LastYear    int              `json:"last_year"`
	Horizon     int              `json:"horizon"`
	Seasons     []ForecastRecord `json:"seasons"`
	Warnings    []string         `json:"warnings,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// BatchForecast collects per-player outcomes of a batch run.
type BatchForecast struct {
	Forecasts []*PlayerForecast `json:"forecasts"`
	Errors    map[string]string `json:"errors,omitempty"`
}
