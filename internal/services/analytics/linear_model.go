package analytics

import (
	"context"
	"fmt"
	"math"
	"os"

	"PlayerCast/internal/domain/models"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// NumericFeature describes the imputation and scaling of one numeric column.
type NumericFeature struct {
	Name   string  `yaml:"name"`
	Median float64 `yaml:"median"`
	Mean   float64 `yaml:"mean"`
	Scale  float64 `yaml:"scale"`
}

// LinearArtifact is the on-disk form of a trained linear model.
type LinearArtifact struct {
	Targets   []string         `yaml:"targets"`
	Numeric   []NumericFeature `yaml:"numeric"`
	Intercept []float64        `yaml:"intercept"`
	// Weights has one row per target and one column per numeric feature.
	Weights [][]float64 `yaml:"weights"`
	// Categorical maps column -> category -> per-target contribution.
	Categorical map[string]map[string][]float64 `yaml:"categorical"`
}

// categoricalColumns fixes the summation order of one-hot contributions.
var categoricalColumns = []string{"role", "squad", "championship"}

// LinearModel evaluates y = W·z + b + Σ onehot, where z is the median-imputed,
// standardised numeric feature vector. It is read-only after construction.
type LinearModel struct {
	numeric     []NumericFeature
	inputIndex  []int
	weights     *mat.Dense
	intercept   *mat.VecDense
	categorical map[string]map[string][]float64
}

// LoadLinearModel reads and validates a YAML artifact.
func LoadLinearModel(path string) (*LinearModel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var a LinearArtifact
	if err := yaml.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	return NewLinearModel(a)
}

func NewLinearModel(a LinearArtifact) (*LinearModel, error) {
	if len(a.Targets) != models.NumTargets {
		return nil, fmt.Errorf("artifact has %d targets, want %d", len(a.Targets), models.NumTargets)
	}
	for i, t := range a.Targets {
		if t != models.TargetColumns[i] {
			return nil, fmt.Errorf("artifact target %d is %q, want %q", i, t, models.TargetColumns[i])
		}
	}
	if len(a.Intercept) != models.NumTargets {
		return nil, fmt.Errorf("intercept has %d values, want %d", len(a.Intercept), models.NumTargets)
	}
	if len(a.Weights) != models.NumTargets {
		return nil, fmt.Errorf("weights have %d rows, want %d", len(a.Weights), models.NumTargets)
	}

	names, _ := models.ModelInput{}.Numeric()
	pos := make(map[string]int, len(names))
	for i, n := range names {
		pos[n] = i
	}

	n := len(a.Numeric)
	if n == 0 {
		return nil, fmt.Errorf("artifact has no numeric features")
	}
	idx := make([]int, n)
	for j, f := range a.Numeric {
		p, ok := pos[f.Name]
		if !ok {
			return nil, fmt.Errorf("unknown numeric feature %q", f.Name)
		}
		if f.Scale == 0 || math.IsNaN(f.Scale) {
			return nil, fmt.Errorf("feature %q has zero scale", f.Name)
		}
		idx[j] = p
	}

	data := make([]float64, 0, models.NumTargets*n)
	for i, row := range a.Weights {
		if len(row) != n {
			return nil, fmt.Errorf("weights row %d has %d columns, want %d", i, len(row), n)
		}
		data = append(data, row...)
	}

	for col, cats := range a.Categorical {
		for cat, w := range cats {
			if len(w) != models.NumTargets {
				return nil, fmt.Errorf("categorical %s=%s has %d weights, want %d", col, cat, len(w), models.NumTargets)
			}
		}
	}

	return &LinearModel{
		numeric:     a.Numeric,
		inputIndex:  idx,
		weights:     mat.NewDense(models.NumTargets, n, data),
		intercept:   mat.NewVecDense(models.NumTargets, append([]float64(nil), a.Intercept...)),
		categorical: a.Categorical,
	}, nil
}

func (m *LinearModel) Predict(ctx context.Context, in models.ModelInput) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, vals := in.Numeric()
	z := mat.NewVecDense(len(m.numeric), nil)
	for j, f := range m.numeric {
		v := f.Median
		if s := vals[m.inputIndex[j]]; s.Valid {
			v = s.Value
		}
		z.SetVec(j, (v-f.Mean)/f.Scale)
	}

	y := mat.NewVecDense(models.NumTargets, nil)
	y.MulVec(m.weights, z)
	y.AddVec(y, m.intercept)

	cats := in.Categorical()
	for _, col := range categoricalColumns {
		w, ok := m.categorical[col][cats[col]]
		if !ok {
			continue
		}
		for i := range w {
			y.SetVec(i, y.AtVec(i)+w[i])
		}
	}

	out := make([]float64, models.NumTargets)
	for i := range out {
		out[i] = y.AtVec(i)
	}
	return out, nil
}
