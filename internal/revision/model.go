package revision

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sample is one training example: a session's comprehension level and
// duration mapped to the number of days before the topic should be revised.
type Sample struct {
	Comprehension int     `json:"comprehension"`
	Minutes       float64 `json:"minutes"`
	Days          float64 `json:"days"`
}

// SeedSamples is the fixed training set the model is fitted on at startup.
var SeedSamples = []Sample{
	{1, 30, 1}, {1, 60, 2},
	{2, 45, 2}, {2, 90, 3},
	{3, 60, 4}, {3, 120, 5},
	{4, 60, 7}, {4, 180, 8},
	{5, 60, 14}, {5, 240, 15},
}

var (
	ErrTooFewSamples = errors.New("at least 3 samples are required")
	ErrSingular      = errors.New("training samples do not determine a unique fit")
	ErrInvalidModel  = errors.New("invalid revision model")
)

// Model is a log-linear regression:
//
//	ln(days) = Intercept + ComprehensionCoef*level + DurationCoef*minutes
//
// Fitting in log space keeps every prediction positive and lets the interval
// grow geometrically with comprehension. Predictions are capped at MaxDays,
// the largest interval seen in training.
type Model struct {
	Intercept         float64   `json:"intercept"`
	ComprehensionCoef float64   `json:"comprehension_coef"`
	DurationCoef      float64   `json:"duration_coef"`
	MaxDays           float64   `json:"max_days"`
	TrainedAt         time.Time `json:"trained_at"`
	Samples           int       `json:"samples"`
}

// Fit solves the least-squares normal equations for the samples.
func Fit(samples []Sample) (*Model, error) {
	if len(samples) < 3 {
		return nil, ErrTooFewSamples
	}

	var xtx [3][3]float64
	var xty [3]float64
	maxDays := 0.0
	for i, s := range samples {
		if s.Days <= 0 || math.IsNaN(s.Days) || math.IsInf(s.Days, 0) {
			return nil, fmt.Errorf("sample %d: days must be positive, got %v", i, s.Days)
		}
		x := [3]float64{1, float64(s.Comprehension), s.Minutes}
		y := math.Log(s.Days)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				xtx[r][c] += x[r] * x[c]
			}
			xty[r] += x[r] * y
		}
		maxDays = math.Max(maxDays, s.Days)
	}

	beta, err := solve3(xtx, xty)
	if err != nil {
		return nil, err
	}
	return &Model{
		Intercept:         beta[0],
		ComprehensionCoef: beta[1],
		DurationCoef:      beta[2],
		MaxDays:           maxDays,
		TrainedAt:         time.Now().UTC(),
		Samples:           len(samples),
	}, nil
}

// solve3 runs Gaussian elimination with partial pivoting.
func solve3(a [3][3]float64, b [3]float64) ([3]float64, error) {
	const eps = 1e-12
	for col := 0; col < 3; col++ {
		pivot := col
		for r := col + 1; r < 3; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < eps {
			return [3]float64{}, ErrSingular
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < 3; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c < 3; c++ {
				a[r][c] -= f * a[col][c]
			}
			b[r] -= f * b[col]
		}
	}

	var x [3]float64
	for r := 2; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < 3; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}

// Validate rejects models that could not have come from Fit, such as a
// truncated or hand-edited persisted file.
func (m *Model) Validate() error {
	for _, v := range []float64{m.Intercept, m.ComprehensionCoef, m.DurationCoef, m.MaxDays} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite coefficient", ErrInvalidModel)
		}
	}
	if m.MaxDays < MinDays {
		return fmt.Errorf("%w: max_days %v below minimum", ErrInvalidModel, m.MaxDays)
	}
	if m.ComprehensionCoef < 0 {
		return fmt.Errorf("%w: interval must not shrink with comprehension", ErrInvalidModel)
	}
	return nil
}

// Predict returns the raw, unrounded interval in days.
func (m *Model) Predict(comprehension int, minutes float64) (float64, error) {
	days := math.Exp(m.Intercept + m.ComprehensionCoef*float64(comprehension) + m.DurationCoef*minutes)
	if math.IsNaN(days) {
		return 0, fmt.Errorf("prediction for level %d, %v minutes is not finite", comprehension, minutes)
	}
	return math.Min(days, m.MaxDays), nil
}
