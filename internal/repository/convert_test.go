package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartstudy-backend/internal/models"
)

func TestTimeOfDayConversion(t *testing.T) {
	s := "23:30:15"
	pg := timeOfDayToPG(&s)
	require.True(t, pg.Valid)
	assert.Equal(t, int64(23*3600+30*60+15)*1e6, pg.Microseconds)

	back := timeOfDayFromPG(pg)
	require.NotNil(t, back)
	assert.Equal(t, s, *back)

	bad := "half past nine"
	assert.False(t, timeOfDayToPG(&bad).Valid)
	assert.False(t, timeOfDayToPG(nil).Valid)
	assert.Nil(t, timeOfDayFromPG(pgtype.Time{}))
}

func TestDateConversion(t *testing.T) {
	d := models.NewDate(2024, 1, 10)
	pg := dateToPG(&d)
	require.True(t, pg.Valid)

	back := dateFromPG(pg)
	require.NotNil(t, back)
	assert.Equal(t, "2024-01-10", back.String())

	assert.False(t, dateToPG(nil).Valid)
	assert.Nil(t, dateFromPG(pgtype.Date{}))
}
