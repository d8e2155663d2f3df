package channel

import (
	"sync"

	"github.com/omtransport/omt/metadata"
)

// EventKind identifies the variant of a ChannelEvent.
type EventKind int

// Event variants delivered from a channel to its owner (spec §4.4, §9:
// "the Changed callback becomes a message-passing channel (unbounded
// SPSC) of ChannelEvent variants").
const (
	TallyChanged EventKind = iota
	RedirectChanged
	Disconnected
)

func (k EventKind) String() string {
	switch k {
	case TallyChanged:
		return "TallyChanged"
	case RedirectChanged:
		return "RedirectChanged"
	case Disconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// ChannelEvent is one event raised by a channel's inbound loop.
type ChannelEvent struct {
	Kind     EventKind
	Tally    metadata.Tally
	Redirect string
}

// eventQueue is an unbounded single-producer single-consumer queue: the
// inbound loop is the sole producer, the owner is the sole consumer. A
// bounded Go channel can't model "unbounded" directly, so events live in a
// plain slice behind a mutex, with a capacity-1 signal channel waking any
// waiting consumer.
type eventQueue struct {
	mu     sync.Mutex
	items  []ChannelEvent
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{signal: make(chan struct{}, 1)}
}

func (q *eventQueue) push(e ChannelEvent) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// pop returns the oldest pending event, or ok=false if none is queued.
func (q *eventQueue) pop() (ChannelEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return ChannelEvent{}, false
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e, true
}

// Wait returns a channel that becomes readable when an event may be
// available. The caller should still call pop in a loop since multiple
// pushes can coalesce into one signal.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}
