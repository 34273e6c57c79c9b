package features

import (
	"fmt"
	"math"

	"PlayerCast/internal/domain/models"
)

// DefaultGapThreshold is the filled-row share above which an aligned series
// is reported as low confidence.
const DefaultGapThreshold = 0.5

// Season years outside this range are rejected; the HTTP binding uses the same bounds.
const (
	MinSeasonYear = 1900
	MaxSeasonYear = 2200
)

// Aligner fills year gaps in one player's history with unobserved rows.
type Aligner struct {
	gapThreshold float64
}

// AlignerOption configures Aligner.
type AlignerOption func(*Aligner)

// WithGapThreshold sets the advisory filled-row share.
func WithGapThreshold(t float64) AlignerOption {
	return func(a *Aligner) {
		if t > 0 && t <= 1 {
			a.gapThreshold = t
		}
	}
}

func NewAligner(opts ...AlignerOption) *Aligner {
	a := &Aligner{gapThreshold: DefaultGapThreshold}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Align orders a player's records by year and makes them contiguous.
//
// Gaps are searched over [begin, end) where begin and end are the first and
// last known years; the last known season always closes the series. A year in
// that range without a record gets a row whose target metrics are unobserved,
// carrying identity fields forward from the previous season.
func (a *Aligner) Align(records []models.SeasonRecord) (models.AlignedSeries, error) {
	if len(records) == 0 {
		return models.AlignedSeries{}, &models.InsufficientHistoryError{Reason: "no season records"}
	}

	playerID := records[0].PlayerID
	byYear := make(map[int]models.SeasonRecord, len(records))
	begin, end := records[0].Year, records[0].Year
	for _, r := range records {
		if err := checkRecord(playerID, r); err != nil {
			return models.AlignedSeries{}, err
		}
		if _, dup := byYear[r.Year]; dup {
			return models.AlignedSeries{}, &models.SchemaMismatchError{
				PlayerID: playerID, Year: r.Year, Field: "year", Reason: "duplicate season",
			}
		}
		byYear[r.Year] = r
		if r.Year < begin {
			begin = r.Year
		}
		if r.Year > end {
			end = r.Year
		}
	}
	if begin == end {
		return models.AlignedSeries{}, &models.InsufficientHistoryError{
			PlayerID: playerID,
			Records:  len(records),
			Reason:   fmt.Sprintf("degenerate year range [%d, %d)", begin, end),
		}
	}

	n := end - begin + 1
	series := models.AlignedSeries{
		PlayerID:     playerID,
		Rows:         make([]models.SeasonRecord, 0, n),
		Filled:       make([]bool, 0, n),
		GapThreshold: a.gapThreshold,
	}
	prev := byYear[begin]
	for y := begin; y < end; y++ {
		r, ok := byYear[y]
		if !ok {
			r = fillRow(prev, y)
		}
		series.Rows = append(series.Rows, r)
		series.Filled = append(series.Filled, r.Targets().ObservedCount() == 0)
		prev = r
	}
	last := byYear[end]
	series.Rows = append(series.Rows, last)
	series.Filled = append(series.Filled, last.Targets().ObservedCount() == 0)

	return series, nil
}

func checkRecord(playerID string, r models.SeasonRecord) error {
	switch {
	case r.PlayerID == "":
		return &models.SchemaMismatchError{Year: r.Year, Field: "player_id", Reason: "required"}
	case r.PlayerID != playerID:
		return &models.SchemaMismatchError{
			PlayerID: playerID, Year: r.Year, Field: "player_id",
			Reason: fmt.Sprintf("history mixes players %q and %q", playerID, r.PlayerID),
		}
	case !r.Role.Valid():
		return &models.SchemaMismatchError{
			PlayerID: playerID, Year: r.Year, Field: "role",
			Reason: fmt.Sprintf("unknown role %q", r.Role),
		}
	case r.Year <= 0:
		return &models.SchemaMismatchError{PlayerID: playerID, Field: "year", Reason: "required"}
	case r.Year < MinSeasonYear || r.Year > MaxSeasonYear:
		return &models.SchemaMismatchError{
			PlayerID: playerID, Year: r.Year, Field: "year",
			Reason: fmt.Sprintf("outside [%d, %d]", MinSeasonYear, MaxSeasonYear),
		}
	}

	for i, st := range r.Targets() {
		if err := checkStat(playerID, r.Year, models.TargetColumns[i], st); err != nil {
			return err
		}
	}
	if err := checkStat(playerID, r.Year, "goals_conceded", r.GoalsConceded); err != nil {
		return err
	}
	return checkStat(playerID, r.Year, "clean_sheets", r.CleanSheets)
}

// checkStat rejects observed metrics that are negative or not finite.
func checkStat(playerID string, year int, column string, st models.Stat) error {
	if !st.Valid {
		return nil
	}
	if st.Value < 0 || math.IsNaN(st.Value) || math.IsInf(st.Value, 0) {
		return &models.SchemaMismatchError{
			PlayerID: playerID, Year: year, Field: column,
			Reason: fmt.Sprintf("invalid value %v", st.Value),
		}
	}
	return nil
}

func fillRow(prev models.SeasonRecord, year int) models.SeasonRecord {
	return models.SeasonRecord{
		PlayerID:     prev.PlayerID,
		Year:         year,
		Age:          prev.Age + (year - prev.Year),
		Role:         prev.Role,
		Squad:        prev.Squad,
		Championship: prev.Championship,
	}
}
