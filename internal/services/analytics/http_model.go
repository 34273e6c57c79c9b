package analytics

import (
	"context"
	"fmt"
	"time"

	"PlayerCast/internal/domain/models"
)

type predictRequest struct {
	Features models.ModelInput `json:"features"`
}

type predictResponse struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

// HTTPRegressionModel calls a remote inference service at POST {baseURL}/predict.
type HTTPRegressionModel struct {
	base *HTTPServiceBase
}

func NewHTTPRegressionModel(baseURL string, timeout time.Duration, retries int) *HTTPRegressionModel {
	return &HTTPRegressionModel{base: NewHTTPServiceBase(baseURL, timeout, retries)}
}

// Predict returns the target vector in models.TargetColumns order. A response
// whose columns differ from that order is rejected.
func (m *HTTPRegressionModel) Predict(ctx context.Context, in models.ModelInput) ([]float64, error) {
	var resp predictResponse
	if err := m.base.PostJSONWithRetry(ctx, "/predict", predictRequest{Features: in}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Columns) != models.NumTargets || len(resp.Values) != models.NumTargets {
		return nil, fmt.Errorf("predict: expected %d columns and values, got %d and %d",
			models.NumTargets, len(resp.Columns), len(resp.Values))
	}
	for i, col := range resp.Columns {
		if col != models.TargetColumns[i] {
			return nil, fmt.Errorf("predict: column %d is %q, want %q", i, col, models.TargetColumns[i])
		}
	}
	return resp.Values, nil
}
