package revision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

const (
	FallbackDays = 7
	MinDays      = 1

	MinComprehension = 1
	MaxComprehension = 5
)

var ErrModelUnavailable = errors.New("revision model unavailable")

// Regressor produces a raw interval in days.
type Regressor interface {
	Predict(comprehension int, minutes float64) (float64, error)
}

// Predictor turns a session's comprehension and duration into a revision
// interval. It is built once at startup and is safe for concurrent use; the
// model it wraps is never mutated after construction.
type Predictor struct {
	model  Regressor
	logger *slog.Logger
}

// NewPredictor loads the model from store. A load failure is logged and
// leaves the Predictor without a model, so every estimate falls back.
func NewPredictor(ctx context.Context, store ModelStore, logger *slog.Logger) *Predictor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Predictor{logger: logger}
	m, err := store.Load(ctx)
	if err != nil {
		logger.Error("revision model could not be loaded, predictions will use fallback",
			"error", err, "fallback_days", FallbackDays)
		return p
	}
	p.model = m
	return p
}

func NewPredictorWithModel(model Regressor, logger *slog.Logger) *Predictor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Predictor{model: model, logger: logger}
}

// Ready reports whether a model is loaded.
func (p *Predictor) Ready() bool {
	return p.model != nil
}

// Estimate predicts the interval in whole days, rounded and floored at
// MinDays. Any failure yields a FallbackDays result with the reason attached.
func (p *Predictor) Estimate(comprehension int, minutes float64) (res Result[int]) {
	if p.model == nil {
		return Fallback(FallbackDays, ErrModelUnavailable)
	}
	if comprehension < MinComprehension || comprehension > MaxComprehension {
		return Fallback(FallbackDays, fmt.Errorf("comprehension level %d out of range", comprehension))
	}
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes < 0 {
		return Fallback(FallbackDays, fmt.Errorf("invalid duration %v", minutes))
	}

	defer func() {
		if r := recover(); r != nil {
			res = Fallback(FallbackDays, fmt.Errorf("prediction panicked: %v", r))
		}
	}()

	raw, err := p.model.Predict(comprehension, minutes)
	if err != nil {
		return Fallback(FallbackDays, err)
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return Fallback(FallbackDays, fmt.Errorf("non-finite prediction %v", raw))
	}
	days := int(math.Round(raw))
	if days < MinDays {
		days = MinDays
	}
	return Ok(days)
}

// NextRevisionDays implements DayPredictor. Fallbacks are logged and never
// surfaced to the caller.
func (p *Predictor) NextRevisionDays(comprehension int, minutes float64) int {
	res := p.Estimate(comprehension, minutes)
	if res.IsFallback() {
		p.logger.Warn("revision prediction fell back",
			"reason", res.Reason(),
			"comprehension_level", comprehension,
			"duration_minutes", minutes,
			"days", res.Value(),
		)
	}
	return res.Value()
}
