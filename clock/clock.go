// Package clock implements the time-source abstraction frames are stamped
// from (spec §4.8): a local clock, a PTP-disciplined variant,
// and a per-kind adapter that guarantees non-decreasing outbound
// timestamps.
package clock

import (
	"sync"
	"time"
)

// Hundred nanosecond units are the wire timestamp resolution (spec §3);
// this package works in the same units throughout so ClockAdapter never
// needs an intermediate conversion.
const unitsPerSecond = 10_000_000

// TimeSource exposes the current time in wire units along with PTP
// synchronization state.
type TimeSource interface {
	// Now100ns returns the current time in 100ns units since an
	// unspecified but stable epoch.
	Now100ns() int64
	// ElapsedMS returns milliseconds since the time source was
	// constructed or last Reset.
	ElapsedMS() int64
	// IsSynchronized reports whether this source is currently
	// disciplined against an external reference.
	IsSynchronized() bool
	// OffsetMicroseconds reports the last known offset from the
	// reference, in microseconds. Zero for an undisciplined source.
	OffsetMicroseconds() float64
	// Reset rebases ElapsedMS's origin to now.
	Reset()
}

// Local is a TimeSource with no external discipline: Now100ns reads the
// wall clock, and ElapsedMS uses the monotonic clock reading.
type Local struct {
	mu      sync.Mutex
	started time.Time
}

// NewLocal returns a Local clock started now.
func NewLocal() *Local {
	return &Local{started: time.Now()}
}

// Now100ns returns wall-clock time in 100ns units.
func (l *Local) Now100ns() int64 {
	return time.Now().UnixNano() / 100
}

// ElapsedMS returns milliseconds since construction or the last Reset.
func (l *Local) ElapsedMS() int64 {
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()
	return time.Since(started).Milliseconds()
}

// IsSynchronized always reports false for a Local clock.
func (l *Local) IsSynchronized() bool { return false }

// OffsetMicroseconds is always zero for a Local clock.
func (l *Local) OffsetMicroseconds() float64 { return 0 }

// Reset rebases the elapsed-time origin to now.
func (l *Local) Reset() {
	l.mu.Lock()
	l.started = time.Now()
	l.mu.Unlock()
}

// Disciplined is a TimeSource that reports the Local clock minus a
// correction supplied by an external PTP follower (spec §4.8:
// "PTP-disciplined: local minus ptp.clock_correction, tracking
// grandmaster").
type Disciplined struct {
	local *Local

	mu         sync.RWMutex
	correction int64 // 100ns units, subtracted from the local reading
	synced     bool
	offsetUS   float64
}

// NewDisciplined wraps local with PTP correction state, initially
// unsynchronized.
func NewDisciplined(local *Local) *Disciplined {
	return &Disciplined{local: local}
}

// Now100ns returns the local reading adjusted by the current correction.
func (d *Disciplined) Now100ns() int64 {
	d.mu.RLock()
	c := d.correction
	d.mu.RUnlock()
	return d.local.Now100ns() - c
}

// ElapsedMS delegates to the wrapped local clock.
func (d *Disciplined) ElapsedMS() int64 { return d.local.ElapsedMS() }

// IsSynchronized reports whether the follower has completed at least one
// offset measurement.
func (d *Disciplined) IsSynchronized() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.synced
}

// OffsetMicroseconds reports the accumulated correction applied so far,
// in microseconds.
func (d *Disciplined) OffsetMicroseconds() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.offsetUS
}

// Reset clears discipline state, reverting to an undisciplined local
// reading until the next Apply.
func (d *Disciplined) Reset() {
	d.mu.Lock()
	d.correction = 0
	d.synced = false
	d.offsetUS = 0
	d.mu.Unlock()
	d.local.Reset()
}

// Apply adds a correction from the PTP servo (in 100ns units) to the
// accumulated correction and marks the clock synchronized. The PTP follower calls this after every PI
// servo sample.
func (d *Disciplined) Apply(correction100ns int64) {
	d.mu.Lock()
	d.correction += correction100ns
	d.synced = true
	d.offsetUS = float64(d.correction) / 10 // 100ns units -> microseconds
	d.mu.Unlock()
}
