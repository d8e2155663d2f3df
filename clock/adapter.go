package clock

import "sync"

// Adapter stamps outbound frames of one kind (video or audio) with
// timestamps that never regress, even if the underlying TimeSource steps
// backward (spec §4.8, §5 ordering invariant: "the sequence of
// frame.timestamp values must be non-decreasing").
type Adapter struct {
	source TimeSource

	mu   sync.Mutex
	last int64
}

// NewAdapter returns an Adapter reading from source.
func NewAdapter(source TimeSource) *Adapter {
	return &Adapter{source: source}
}

// Next returns the next wire timestamp (100ns units, truncated to the
// 32-bit wire field), guaranteed strictly greater than the previously
// returned value from this Adapter.
func (a *Adapter) Next() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.source.Now100ns()
	if now <= a.last {
		now = a.last + 1
	}
	a.last = now
	return uint32(now)
}

// Reset forgets the last-returned timestamp, allowing the next call to
// return any value the time source produces.
func (a *Adapter) Reset() {
	a.mu.Lock()
	a.last = 0
	a.mu.Unlock()
}
