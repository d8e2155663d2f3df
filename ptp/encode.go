package ptp

import "encoding/binary"

// encodeHeader writes a 34-byte PTP common header for an outbound
// message. Correction is always zero for messages this follower
// originates (DelayReq).
func encodeHeader(buf []byte, msgType MessageType, domain uint8, seq uint16, port [10]byte, bodyLen int) {
	buf[0] = byte(msgType) & 0x0F
	buf[1] = 2 // PTPv2
	binary.BigEndian.PutUint16(buf[2:4], uint16(HeaderLen+bodyLen))
	buf[4] = domain
	buf[5] = 0
	buf[6] = 0 // flags0: one-step, two-step flag clear
	buf[7] = 0
	binary.BigEndian.PutUint64(buf[8:16], 0) // correctionField
	// bytes 16-20 reserved/clockIdentity padding, left zero
	copy(buf[20:30], port[:])
	binary.BigEndian.PutUint16(buf[30:32], seq)
	buf[32] = 0 // control field, legacy
	buf[33] = 0 // logMessageInterval
}

// encodeTimestamp writes a 10-byte PTP timestamp (48-bit seconds + 32-bit
// nanoseconds, both big-endian) for ns100, a reading in 100ns units.
func encodeTimestamp(buf []byte, ns100 int64) {
	seconds := ns100 / 10_000_000
	nanos := (ns100 % 10_000_000) * 100
	var secBuf [8]byte
	binary.BigEndian.PutUint64(secBuf[:], uint64(seconds))
	copy(buf[0:6], secBuf[2:8]) // low 48 bits
	binary.BigEndian.PutUint32(buf[6:10], uint32(nanos))
}

// EncodeDelayReq builds a DelayReq message: 34-byte header followed by a
// 10-byte origin timestamp (the local send time, per IEEE 1588 convention
// for one-step DelayReq senders).
func EncodeDelayReq(domain uint8, seq uint16, port [10]byte, sendTime100ns int64) []byte {
	buf := make([]byte, HeaderLen+TimestampLen)
	encodeHeader(buf, DelayReq, domain, seq, port, TimestampLen)
	encodeTimestamp(buf[HeaderLen:], sendTime100ns)
	return buf
}

// ParseDelayResp parses a DelayResp body (following the common header):
// a 10-byte receive timestamp and a 10-byte requesting port identity.
func ParseDelayResp(body []byte) (receiveTimestamp100ns int64, requestingPort [10]byte, err error) {
	if len(body) < TimestampLen+10 {
		return 0, requestingPort, errShortBody
	}
	receiveTimestamp100ns, err = Timestamp100ns(body[0:TimestampLen])
	if err != nil {
		return 0, requestingPort, err
	}
	copy(requestingPort[:], body[TimestampLen:TimestampLen+10])
	return receiveTimestamp100ns, requestingPort, nil
}

// ParseOriginTimestamp parses the 10-byte origin/preciseOrigin timestamp
// that forms the body of a Sync or FollowUp message.
func ParseOriginTimestamp(body []byte) (int64, error) {
	if len(body) < TimestampLen {
		return 0, errShortBody
	}
	return Timestamp100ns(body[0:TimestampLen])
}
