package engine

import "time"

// Timestamp is a packed 64-bit word: the high 44 bits are seconds since the
// Unix epoch, the low 20 bits are a sub-second "µs-tick" in [0, 1_000_000).
// All-zero means unknown. See spec.md §3.
type Timestamp uint64

const (
	tsSubsecBits = 20
	tsSubsecMask = (uint64(1) << tsSubsecBits) - 1
	// tsSubsecRange is the number of microseconds in a second; the 20-bit
	// field holds values in [0, tsSubsecRange). We store microseconds
	// modulo this range, never nanoseconds directly (spec.md §9).
	tsSubsecRange = 1_000_000
)

// ZeroTimestamp is the "unknown" sentinel.
const ZeroTimestamp Timestamp = 0

// NewTimestamp packs a time.Time into a Timestamp. The zero time.Time packs
// to ZeroTimestamp, which is indistinguishable from "unknown" by design —
// callers that need to record an explicit epoch-zero time must not rely on
// this encoding.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return ZeroTimestamp
	}
	secs := uint64(t.Unix())
	micros := uint64(t.Nanosecond() / 1000 % tsSubsecRange)
	return Timestamp((secs << tsSubsecBits) | (micros & tsSubsecMask))
}

// Now packs the current time.
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

// Time unpacks a Timestamp into a time.Time. ZeroTimestamp unpacks to the
// zero time.Time.
func (ts Timestamp) Time() time.Time {
	if ts == ZeroTimestamp {
		return time.Time{}
	}
	secs := int64(uint64(ts) >> tsSubsecBits)
	micros := int64(uint64(ts) & tsSubsecMask)
	return time.Unix(secs, micros*1000).UTC()
}

// Known reports whether this timestamp carries an actual value.
func (ts Timestamp) Known() bool {
	return ts != ZeroTimestamp
}
