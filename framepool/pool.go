// Package framepool implements the fixed-count, growable buffer pool used
// to back inbound frames (spec §4.2). Pools are bounded-memory by design: a
// pool never allocates more than count buffers, and acquiring from an
// exhausted pool returns nil rather than blocking — the channel translates
// that into a dropped-frame statistics bump (spec §9, open question b).
package framepool

import (
	"errors"
	"sync"
)

// ErrOverCap is returned by Buffer.Grow when the requested size exceeds the
// pool's configured maximum.
var ErrOverCap = errors.New("framepool: requested size exceeds pool cap")

// Buffer is a reusable backing buffer handed out by a Pool. Its capacity
// only ever grows; when it already suffices, Grow just changes the visible
// length.
type Buffer struct {
	Data []byte
}

// Grow ensures b.Data has length n, reallocating and copying if its current
// capacity is insufficient. It returns ErrOverCap if n exceeds max.
func (b *Buffer) Grow(n, max int) error {
	if n > max {
		return ErrOverCap
	}
	if cap(b.Data) < n {
		grown := make([]byte, n)
		copy(grown, b.Data)
		b.Data = grown
		return nil
	}
	b.Data = b.Data[:n]
	return nil
}

// Pool is a fixed-count ring of reusable buffers. Creation takes the
// buffer count, the initial per-buffer size, the hard cap a buffer may grow
// to, and whether growth is permitted at all.
type Pool struct {
	mu       sync.Mutex
	free     []*Buffer // FIFO: oldest-released buffer is reused first
	created  int
	count    int
	initial  int
	max      int
	growable bool
}

// New creates a Pool that will mint at most count buffers of initial size
// initialSize, growable up to max bytes if growable is true.
func New(count, initialSize, max int, growable bool) *Pool {
	return &Pool{
		count:    count,
		initial:  initialSize,
		max:      max,
		growable: growable,
	}
}

// Acquire returns the oldest released buffer, or mints a new one if the
// pool hasn't yet reached its count, or returns nil if the pool is
// exhausted. Acquire never blocks.
func (p *Pool) Acquire() *Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.free); n > 0 {
		b := p.free[0]
		p.free = p.free[1:]
		return b
	}
	if p.created < p.count {
		p.created++
		return &Buffer{Data: make([]byte, 0, p.initial)}
	}
	return nil
}

// Release returns b to the pool for reuse.
func (p *Pool) Release(b *Buffer) {
	if b == nil {
		return
	}
	p.mu.Lock()
	p.free = append(p.free, b)
	p.mu.Unlock()
}

// Grow ensures b has at least n bytes of usable length, respecting the
// pool's growable flag and max cap.
func (p *Pool) Grow(b *Buffer, n int) error {
	if !p.growable && n > cap(b.Data) {
		return ErrOverCap
	}
	return b.Grow(n, p.max)
}

// Dispose releases all pooled buffers. The pool is usable afterward (it
// will mint fresh buffers up to count again).
func (p *Pool) Dispose() {
	p.mu.Lock()
	p.free = nil
	p.created = 0
	p.mu.Unlock()
}

// Outstanding returns the number of buffers currently acquired and not yet
// released — useful for the pool-boundedness property in spec §8.
func (p *Pool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created - len(p.free)
}
