package revision

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const TimeOfDayLayout = "15:04:05"

var ErrMissingTime = errors.New("start or end time missing")

// ParseTimeOfDay parses an HH:MM:SS string.
func ParseTimeOfDay(s string) (time.Time, error) {
	t, err := time.Parse(TimeOfDayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t, nil
}

// MeasureDuration returns the minutes between start and end. An end earlier
// than start means the session crossed midnight, so one day is added. Missing
// or unparseable inputs yield a fallback of 0.
func MeasureDuration(start, end *string) Result[float64] {
	if start == nil || end == nil || *start == "" || *end == "" {
		return Fallback(0.0, ErrMissingTime)
	}
	s, err := ParseTimeOfDay(*start)
	if err != nil {
		return Fallback(0.0, err)
	}
	e, err := ParseTimeOfDay(*end)
	if err != nil {
		return Fallback(0.0, err)
	}
	d := e.Sub(s)
	if d < 0 {
		d += 24 * time.Hour
	}
	return Ok(d.Minutes())
}

// DurationMinutes is MeasureDuration with fallbacks logged and collapsed to 0.
func DurationMinutes(start, end *string) float64 {
	res := MeasureDuration(start, end)
	if res.IsFallback() && !errors.Is(res.Reason(), ErrMissingTime) {
		slog.Default().Warn("could not measure session duration", "error", res.Reason())
	}
	return res.Value()
}
