package features

import (
	"fmt"

	"PlayerCast/internal/domain/models"
)

// DefaultLagLevels are the lag levels the regression model is trained on.
var DefaultLagLevels = []int{1, 2}

// LagBuilder attaches lagged copies of the target metrics to each season.
type LagBuilder struct {
	levels []int
}

// NewLagBuilder validates the requested levels; none means DefaultLagLevels.
func NewLagBuilder(levels ...int) (*LagBuilder, error) {
	if len(levels) == 0 {
		levels = DefaultLagLevels
	}
	seen := make(map[int]bool, len(levels))
	for _, l := range levels {
		if l < 1 || l > models.MaxLagLevel {
			return nil, fmt.Errorf("lag level %d out of range 1..%d", l, models.MaxLagLevel)
		}
		if seen[l] {
			return nil, fmt.Errorf("lag level %d repeated", l)
		}
		seen[l] = true
	}
	return &LagBuilder{levels: append([]int(nil), levels...)}, nil
}

// Levels returns a copy of the configured lag levels.
func (b *LagBuilder) Levels() []int { return append([]int(nil), b.levels...) }

// Build computes lag_L_<metric> for every row of a single-player aligned series.
// Rows with fewer than L predecessors keep lag level L unobserved.
func (b *LagBuilder) Build(series models.AlignedSeries) ([]models.FeatureRow, error) {
	rows := series.Rows
	for i, r := range rows {
		if r.PlayerID != series.PlayerID {
			return nil, &models.SchemaMismatchError{
				PlayerID: series.PlayerID, Year: r.Year, Field: "player_id",
				Reason: fmt.Sprintf("row belongs to %q", r.PlayerID),
			}
		}
		if i > 0 && r.Year != rows[i-1].Year+1 {
			return nil, &models.SchemaMismatchError{
				PlayerID: series.PlayerID, Year: r.Year, Field: "year",
				Reason: fmt.Sprintf("series not contiguous after %d", rows[i-1].Year),
			}
		}
	}

	out := make([]models.FeatureRow, len(rows))
	for i, r := range rows {
		fr := models.FeatureRow{SeasonRecord: r}
		for _, l := range b.levels {
			if i-l >= 0 {
				fr.Lags[l-1] = rows[i-l].Targets()
			}
		}
		out[i] = fr
	}
	return out, nil
}
