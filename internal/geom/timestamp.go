package geom

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// nanosPerSecond is the number of nanoseconds in a second.
const nanosPerSecond = 1_000_000_000

// ErrInvalidTimestamp is returned when a Timestamp is constructed from
// negative seconds or nanoseconds.
var ErrInvalidTimestamp = errors.New("geom: invalid timestamp")

// Timestamp is a (seconds, nanoseconds) pair with nanoseconds normalized into
// [0, 1e9). Timestamps total order lexicographically.
type Timestamp struct {
	Seconds     uint32
	Nanoseconds uint32
}

// NewTimestamp builds a Timestamp from possibly-unnormalized seconds and
// nanoseconds, carrying ns->s overflow. Negative inputs are rejected.
func NewTimestamp(seconds, nanoseconds int64) (Timestamp, error) {
	if seconds < 0 || nanoseconds < 0 {
		return Timestamp{}, fmt.Errorf("%w: seconds=%d nanoseconds=%d", ErrInvalidTimestamp, seconds, nanoseconds)
	}
	total := seconds + nanoseconds/nanosPerSecond
	ns := nanoseconds % nanosPerSecond
	if total > int64(^uint32(0)) {
		return Timestamp{}, fmt.Errorf("%w: seconds overflow", ErrInvalidTimestamp)
	}
	return Timestamp{Seconds: uint32(total), Nanoseconds: uint32(ns)}, nil
}

// NewTimestampFromNanos builds a Timestamp from a single nanosecond counter,
// as used by the 8-byte little-endian wire encoding.
func NewTimestampFromNanos(totalNanos uint64) Timestamp {
	return Timestamp{
		Seconds:     uint32(totalNanos / nanosPerSecond),
		Nanoseconds: uint32(totalNanos % nanosPerSecond),
	}
}

// Nanos returns the timestamp as a single nanosecond counter.
func (t Timestamp) Nanos() uint64 {
	return uint64(t.Seconds)*nanosPerSecond + uint64(t.Nanoseconds)
}

// Before reports whether t is strictly less than u.
func (t Timestamp) Before(u Timestamp) bool {
	return t.Seconds < u.Seconds || (t.Seconds == u.Seconds && t.Nanoseconds < u.Nanoseconds)
}

// After reports whether t is strictly greater than u.
func (t Timestamp) After(u Timestamp) bool {
	return u.Before(t)
}

// Equal reports whether t and u denote the same instant.
func (t Timestamp) Equal(u Timestamp) bool {
	return t.Seconds == u.Seconds && t.Nanoseconds == u.Nanoseconds
}

// AddNanos returns t advanced by ns nanoseconds, carrying into seconds.
func (t Timestamp) AddNanos(ns uint64) Timestamp {
	return NewTimestampFromNanos(t.Nanos() + ns)
}

// String renders the timestamp as a decimal nanosecond count, losslessly.
func (t Timestamp) String() string {
	return fmt.Sprintf("%d", t.Nanos())
}

// MarshalBinary encodes t as an 8-byte little-endian nanosecond counter.
func (t Timestamp) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, t.Nanos())
	return buf, nil
}

// UnmarshalBinary decodes t from an 8-byte little-endian nanosecond counter.
func (t *Timestamp) UnmarshalBinary(data []byte) error {
	if len(data) != 8 {
		return fmt.Errorf("geom: timestamp wire encoding must be 8 bytes, got %d", len(data))
	}
	*t = NewTimestampFromNanos(binary.LittleEndian.Uint64(data))
	return nil
}
