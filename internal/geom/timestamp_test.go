package geom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimestampNormalizesOverflow(t *testing.T) {
	ts, err := NewTimestamp(5, 2_500_000_000)
	require.NoError(t, err)
	require.Equal(t, uint32(7), ts.Seconds)
	require.Equal(t, uint32(500_000_000), ts.Nanoseconds)
}

func TestTimestampRejectsNegative(t *testing.T) {
	_, err := NewTimestamp(-1, 0)
	require.ErrorIs(t, err, ErrInvalidTimestamp)

	_, err = NewTimestamp(0, -1)
	require.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestTimestampOrdering(t *testing.T) {
	a, _ := NewTimestamp(1, 0)
	b, _ := NewTimestamp(1, 1)
	c, _ := NewTimestamp(2, 0)

	require.True(t, a.Before(b))
	require.True(t, b.Before(c))
	require.True(t, c.After(a))
	require.False(t, a.After(a))
	require.True(t, a.Equal(a))
}

func TestTimestampBinaryRoundTrip(t *testing.T) {
	ts, _ := NewTimestamp(1234, 56789)
	data, err := ts.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 8)

	var back Timestamp
	require.NoError(t, back.UnmarshalBinary(data))
	require.Equal(t, ts, back)
}

func TestTimestampAddCarries(t *testing.T) {
	ts, _ := NewTimestamp(1, 900_000_000)
	sum := ts.AddNanos(200_000_000)
	require.Equal(t, uint32(2), sum.Seconds)
	require.Equal(t, uint32(100_000_000), sum.Nanoseconds)
}
