package channel

import "testing"

func TestStatsDeltaResetsOnSnapshot(t *testing.T) {
	t.Parallel()
	var s Stats
	s.addSent(3, 300)
	s.addReceived(1, 100)
	s.addDropped()

	first := s.Snapshot()
	if first.FramesSent != 3 || first.DeltaFramesSent != 3 {
		t.Fatalf("first snapshot = %+v", first)
	}
	if first.FramesDropped != 1 || first.DeltaFramesDropped != 1 {
		t.Fatalf("first snapshot dropped = %+v", first)
	}

	second := s.Snapshot()
	if second.FramesSent != 3 {
		t.Fatalf("cumulative FramesSent should persist: %+v", second)
	}
	if second.DeltaFramesSent != 0 || second.DeltaBytesSent != 0 || second.DeltaFramesDropped != 0 {
		t.Fatalf("deltas should reset after snapshot: %+v", second)
	}
}
