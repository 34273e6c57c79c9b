package models

import (
	"encoding/json"
	"fmt"
)

// Role is the playing role a target set depends on.
type Role string

const (
	RoleGoalkeeper Role = "Goalkeeper"
	RoleOutfield   Role = "Outfield"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleGoalkeeper || r == RoleOutfield
}

// Target indexes the fixed target-column order shared with the regression model.
type Target int

const (
	GamesPlayed Target = iota
	Goals
	Assists
	MinutePlayed
	ValuePlayer
)

// NumTargets is the arity of every model output vector.
const NumTargets = 5

// TargetColumns lists target column names in model order.
var TargetColumns = [NumTargets]string{
	"games_played",
	"goals",
	"assists",
	"minute_played",
	"value_player",
}

func (t Target) String() string {
	if t < 0 || int(t) >= NumTargets {
		return fmt.Sprintf("target(%d)", int(t))
	}
	return TargetColumns[t]
}

// Targets holds one value per target column in model order.
type Targets [NumTargets]Stat

// TargetsFromVector builds Targets from a model output vector.
func TargetsFromVector(v []float64) (Targets, error) {
	var t Targets
	if len(v) != NumTargets {
		return t, fmt.Errorf("expected %d values, got %d", NumTargets, len(v))
	}
	for i, x := range v {
		t[i] = Observed(x)
	}
	return t, nil
}

// ObservedCount returns how many targets carry a value.
func (t Targets) ObservedCount() int {
	n := 0
	for _, s := range t {
		if s.Valid {
			n++
		}
	}
	return n
}

// SeasonRecord is one player's stats for one year.
type SeasonRecord struct {
	PlayerID     string `json:"player_id" validate:"required"`
	Year         int    `json:"year" validate:"gte=1900,lte=2200"`
	Age          int    `json:"age" validate:"gte=0,lte=80"`
	Role         Role   `json:"role" validate:"oneof=Goalkeeper Outfield"`
	Squad        string `json:"squad"`
	Championship string `json:"championship"`

	GamesPlayed  Stat `json:"games_played"`
	Goals        Stat `json:"goals"`
	Assists      Stat `json:"assists"`
	MinutePlayed Stat `json:"minute_played"`
	ValuePlayer  Stat `json:"value_player"`

	// Goalkeeper-only metrics; carried for completeness, never modelled.
	GoalsConceded Stat `json:"goals_conceded"`
	CleanSheets   Stat `json:"clean_sheets"`
}

// UnmarshalJSON accepts "name" as an alias of "player_id".
func (r *SeasonRecord) UnmarshalJSON(b []byte) error {
	type plain SeasonRecord
	aux := struct {
		*plain
		Name string `json:"name"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if r.PlayerID == "" {
		r.PlayerID = aux.Name
	}
	return nil
}

// Targets returns the model target metrics in fixed order.
func (r SeasonRecord) Targets() Targets {
	return Targets{r.GamesPlayed, r.Goals, r.Assists, r.MinutePlayed, r.ValuePlayer}
}

// SetTargets overwrites the model target metrics.
func (r *SeasonRecord) SetTargets(t Targets) {
	r.GamesPlayed = t[GamesPlayed]
	r.Goals = t[Goals]
	r.Assists = t[Assists]
	r.MinutePlayed = t[MinutePlayed]
	r.ValuePlayer = t[ValuePlayer]
}

// AlignedSeries is a year-contiguous history for one player.
type AlignedSeries struct {
	PlayerID string
	Rows     []SeasonRecord
	// Filled flags rows inserted for years absent from the source history.
	Filled []bool
	// GapThreshold is the filled-row share above which Advisory reports.
	GapThreshold float64
}

// Len returns the number of rows.
func (s AlignedSeries) Len() int { return len(s.Rows) }

// FilledCount returns the number of sentinel rows.
func (s AlignedSeries) FilledCount() int {
	n := 0
	for _, f := range s.Filled {
		if f {
			n++
		}
	}
	return n
}

// GapRatio returns the share of sentinel rows.
func (s AlignedSeries) GapRatio() float64 {
	if len(s.Rows) == 0 {
		return 0
	}
	return float64(s.FilledCount()) / float64(len(s.Rows))
}

// Advisory returns a non-fatal *AlignmentGapError when sentinel rows dominate.
func (s AlignedSeries) Advisory() error {
	if len(s.Rows) == 0 || s.GapRatio() <= s.GapThreshold {
		return nil
	}
	return &AlignmentGapError{
		PlayerID:  s.PlayerID,
		Filled:    s.FilledCount(),
		Total:     len(s.Rows),
		Threshold: s.GapThreshold,
	}
}
