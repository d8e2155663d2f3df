package ptp

// sample is one completed four-timestamp offset/delay measurement.
type sample struct {
	rawOffset int64 // 100ns units
	pathDelay int64 // 100ns units
}

// exchange tracks one in-flight Sync/FollowUp/DelayReq/DelayResp cycle and
// produces offset/delay samples (spec §4.7). It holds no I/O state — the
// Follower drives it from parsed messages and feeds its output to the
// Servo and the disciplined clock.
type exchange struct {
	domain uint8
	port   [10]byte

	haveT1, haveT2 bool
	t1, t2, t3, t4 int64
	seq            uint16
	master         [10]byte

	haveBaseline  bool
	epochBaseline int64
}

func newExchange(domain uint8, port [10]byte) *exchange {
	return &exchange{domain: domain, port: port}
}

// reset clears an in-progress exchange, keeping the epoch baseline.
func (e *exchange) reset() {
	e.haveT1, e.haveT2 = false, false
	e.t1, e.t2, e.t3, e.t4 = 0, 0, 0, 0
}

// onSync records t2 and, for a one-step master, takes the Sync message's
// own origin timestamp as t1 immediately.
func (e *exchange) onSync(h Header, originTimestamp100ns, localReceiptTime100ns int64) {
	if h.Domain != e.domain {
		return
	}
	e.reset()
	e.t2 = localReceiptTime100ns
	e.haveT2 = true
	e.seq = h.SequenceID
	e.master = h.SourcePortIdentity

	if !h.TwoStep {
		e.t1 = originTimestamp100ns
		e.haveT1 = true
	}
}

// onFollowUp completes t1 for a two-step master, if the sequence matches
// the outstanding Sync.
func (e *exchange) onFollowUp(h Header, originTimestamp100ns int64) bool {
	if h.Domain != e.domain || h.SequenceID != e.seq || e.haveT1 {
		return false
	}
	e.t1 = originTimestamp100ns + h.Correction100ns
	e.haveT1 = true
	return true
}

// readyForDelayReq reports whether both t1 and t2 are known, meaning a
// DelayReq should now be sent.
func (e *exchange) readyForDelayReq() bool {
	return e.haveT1 && e.haveT2 && e.t3 == 0
}

// recordDelayReqSent records t3, the local time just before transmitting
// DelayReq.
func (e *exchange) recordDelayReqSent(localSendTime100ns int64) {
	e.t3 = localSendTime100ns
}

// onDelayResp completes t4 if the response's requesting port identity
// matches ours, and returns the completed sample if so.
func (e *exchange) onDelayResp(h Header, requestingPort [10]byte, receiveTimestamp100ns int64) (sample, bool) {
	if h.Domain != e.domain || requestingPort != e.port || e.t3 == 0 {
		return sample{}, false
	}
	e.t4 = receiveTimestamp100ns

	rawOffset := ((e.t2 - e.t1) - (e.t4 - e.t3)) / 2
	pathDelay := ((e.t2 - e.t1) + (e.t4 - e.t3)) / 2
	if pathDelay < 0 {
		pathDelay = 0
	}

	if !e.haveBaseline {
		e.epochBaseline = rawOffset
		e.haveBaseline = true
	}

	e.reset()
	return sample{rawOffset: rawOffset, pathDelay: pathDelay}, true
}

// drift returns the servo input for s: the raw offset relative to the
// latched epoch baseline (spec §4.7).
func (e *exchange) drift(s sample) int64 {
	return s.rawOffset - e.epochBaseline
}
