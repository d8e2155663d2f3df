package channel

import "sync"

// Stats holds per-channel cumulative and delta-since-last-read counters.
// A single lock guards all fields — the counters change together often
// enough that a finer-grained scheme wouldn't pay for itself (spec §5:
// "Statistics are protected by a single per-channel lock; reads
// snapshot-and-reset the delta counters atomically").
type Stats struct {
	mu sync.Mutex

	framesSent, bytesSent       uint64
	framesReceived, bytesReceived uint64
	framesDropped                uint64

	deltaFramesSent, deltaBytesSent       uint64
	deltaFramesReceived, deltaBytesReceived uint64
	deltaFramesDropped                    uint64
}

// Snapshot is a point-in-time read of Stats, including the counters
// accumulated since the previous Snapshot call.
type Snapshot struct {
	FramesSent, BytesSent         uint64
	FramesReceived, BytesReceived uint64
	FramesDropped                 uint64

	DeltaFramesSent, DeltaBytesSent         uint64
	DeltaFramesReceived, DeltaBytesReceived uint64
	DeltaFramesDropped                      uint64
}

func (s *Stats) addSent(frames, bytes uint64) {
	s.mu.Lock()
	s.framesSent += frames
	s.bytesSent += bytes
	s.deltaFramesSent += frames
	s.deltaBytesSent += bytes
	s.mu.Unlock()
}

func (s *Stats) addReceived(frames, bytes uint64) {
	s.mu.Lock()
	s.framesReceived += frames
	s.bytesReceived += bytes
	s.deltaFramesReceived += frames
	s.deltaBytesReceived += bytes
	s.mu.Unlock()
}

func (s *Stats) addDropped() {
	s.mu.Lock()
	s.framesDropped++
	s.deltaFramesDropped++
	s.mu.Unlock()
}

// Snapshot returns the current counters and resets the delta fields.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		FramesSent:     s.framesSent,
		BytesSent:      s.bytesSent,
		FramesReceived: s.framesReceived,
		BytesReceived:  s.bytesReceived,
		FramesDropped:  s.framesDropped,

		DeltaFramesSent:     s.deltaFramesSent,
		DeltaBytesSent:      s.deltaBytesSent,
		DeltaFramesReceived: s.deltaFramesReceived,
		DeltaBytesReceived:  s.deltaBytesReceived,
		DeltaFramesDropped:  s.deltaFramesDropped,
	}
	s.deltaFramesSent, s.deltaBytesSent = 0, 0
	s.deltaFramesReceived, s.deltaBytesReceived = 0, 0
	s.deltaFramesDropped = 0
	return snap
}
