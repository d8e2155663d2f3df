package ptp

import "testing"

func TestOffsetAndDelayComputation(t *testing.T) {
	t.Parallel()
	var port [10]byte
	e := newExchange(0, port)

	h := Header{Domain: 0, SequenceID: 1, TwoStep: true}
	e.onSync(h, 0, 1100) // t2 = 1100
	e.onFollowUp(h, 1000) // t1 = 1000
	if !e.readyForDelayReq() {
		t.Fatal("expected ready for delay request after t1 and t2 known")
	}
	e.recordDelayReqSent(1200) // t3 = 1200

	s, ok := e.onDelayResp(h, port, 1250) // t4 = 1250
	if !ok {
		t.Fatal("expected completed sample")
	}
	if s.rawOffset != 25 {
		t.Fatalf("rawOffset = %d, want 25", s.rawOffset)
	}
	if s.pathDelay != 75 {
		t.Fatalf("pathDelay = %d, want 75", s.pathDelay)
	}
}

func TestEpochBaselineLatchedOnFirstSample(t *testing.T) {
	t.Parallel()
	var port [10]byte
	e := newExchange(0, port)
	h := Header{Domain: 0, SequenceID: 1, TwoStep: true}

	e.onSync(h, 0, 1100)
	e.onFollowUp(h, 1000)
	e.recordDelayReqSent(1200)
	s, _ := e.onDelayResp(h, port, 1250)

	if e.drift(s) != 0 {
		t.Fatalf("drift on first sample = %d, want 0 (baseline latched)", e.drift(s))
	}

	h2 := Header{Domain: 0, SequenceID: 2, TwoStep: true}
	e.onSync(h2, 0, 2200)
	e.onFollowUp(h2, 2000)
	e.recordDelayReqSent(2300)
	s2, _ := e.onDelayResp(h2, port, 2360)

	if e.drift(s2) != s2.rawOffset-s.rawOffset {
		t.Fatalf("drift on second sample = %d, want relative to baseline", e.drift(s2))
	}
}

func TestOnFollowUpRejectsSequenceMismatch(t *testing.T) {
	t.Parallel()
	var port [10]byte
	e := newExchange(0, port)
	e.onSync(Header{Domain: 0, SequenceID: 1, TwoStep: true}, 0, 1100)

	ok := e.onFollowUp(Header{Domain: 0, SequenceID: 2}, 1000)
	if ok {
		t.Fatal("expected FollowUp with mismatched sequence to be rejected")
	}
}

func TestOnDelayRespRejectsWrongPort(t *testing.T) {
	t.Parallel()
	var myPort, otherPort [10]byte
	otherPort[0] = 1
	e := newExchange(0, myPort)
	h := Header{Domain: 0, SequenceID: 1}
	e.onSync(h, 0, 1100)
	e.onFollowUp(h, 1000)
	e.recordDelayReqSent(1200)

	_, ok := e.onDelayResp(h, otherPort, 1250)
	if ok {
		t.Fatal("expected DelayResp addressed to a different port to be ignored")
	}
}

func TestOneStepSyncSetsT1Immediately(t *testing.T) {
	t.Parallel()
	var port [10]byte
	e := newExchange(0, port)
	h := Header{Domain: 0, SequenceID: 5, TwoStep: false}
	e.onSync(h, 1000, 1100)
	if !e.readyForDelayReq() {
		t.Fatal("expected ready for delay request immediately after a one-step Sync")
	}
}
