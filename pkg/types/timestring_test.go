package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	ts, err := NewTimeStringFromString("10:00")
	require.NoError(t, err)
	assert.Equal(t, "10:00", ts.String())

	_, err = NewTimeStringFromString("25:00")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = NewTimeStringFromString("10:00:00")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestTimeString_AddMinutes(t *testing.T) {
	ts := TimeString("10:00")

	got, err := ts.AddMinutes(75)
	require.NoError(t, err)
	assert.Equal(t, TimeString("11:15"), got)

	got, err = ts.AddMinutes(0)
	require.NoError(t, err)
	assert.Equal(t, ts, got)

	_, err = ts.AddMinutes(14 * 60)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = ts.AddMinutes(-11 * 60)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestTimeString_Comparisons(t *testing.T) {
	assert.True(t, TimeString("09:00").IsBefore("10:00"))
	assert.True(t, TimeString("10:30").IsAfter("10:00"))
	assert.False(t, TimeString("10:00").IsBefore("10:00"))
	assert.False(t, TimeString("10:00").IsAfter("10:00"))
}

func TestTimeString_Scan(t *testing.T) {
	var ts TimeString

	require.NoError(t, ts.Scan("15:04:05"))
	assert.Equal(t, TimeString("15:04"), ts)

	require.NoError(t, ts.Scan([]byte("08:30:00")))
	assert.Equal(t, TimeString("08:30"), ts)

	require.NoError(t, ts.Scan(time.Date(2025, 6, 1, 21, 45, 0, 0, time.UTC)))
	assert.Equal(t, TimeString("21:45"), ts)

	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())
}

func TestTimeString_TotalMinutes(t *testing.T) {
	m, err := TimeString("08:15").TotalMinutes()
	require.NoError(t, err)
	assert.Equal(t, 495, m)
}
