package features

import "PlayerCast/internal/domain/models"

// Step rotates a feature row one season forward.
//
// The current target metrics become lag 1, lag 1 becomes lag 2, lag 2 becomes
// lag 3 and the previous lag 3 is dropped. Age and year advance by one and the
// target metrics of the new season are left unobserved for the model to fill.
// The input row is not modified.
func Step(row models.FeatureRow) models.FeatureRow {
	next := row
	for l := models.MaxLagLevel - 1; l > 0; l-- {
		next.Lags[l] = row.Lags[l-1]
	}
	next.Lags[0] = row.Targets()
	next.SetTargets(models.Targets{})
	next.GoalsConceded = models.Stat{}
	next.CleanSheets = models.Stat{}
	next.Age++
	next.Year++
	return next
}

// Merge completes a crafted row with predicted target metrics.
func Merge(crafted models.FeatureRow, targets models.Targets) models.FeatureRow {
	out := crafted
	out.SetTargets(targets)
	return out
}
