package repository

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"smartstudy-backend/internal/models"
	"smartstudy-backend/internal/revision"
)

func dateToPG(d *models.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time, Valid: true}
}

func dateFromPG(d pgtype.Date) *models.Date {
	if !d.Valid {
		return nil
	}
	v := models.DateOf(d.Time)
	return &v
}

// timeOfDayToPG converts an HH:MM:SS string to a TIME value. Strings that do
// not parse are stored as NULL.
func timeOfDayToPG(s *string) pgtype.Time {
	if s == nil {
		return pgtype.Time{}
	}
	t, err := revision.ParseTimeOfDay(*s)
	if err != nil {
		return pgtype.Time{}
	}
	micros := int64(t.Hour())*3600e6 + int64(t.Minute())*60e6 + int64(t.Second())*1e6
	return pgtype.Time{Microseconds: micros, Valid: true}
}

func timeOfDayFromPG(t pgtype.Time) *string {
	if !t.Valid {
		return nil
	}
	s := time.Time{}.Add(time.Duration(t.Microseconds) * time.Microsecond).Format(revision.TimeOfDayLayout)
	return &s
}
