// Package ptp implements an IEEE 1588-2008 PTP follower: multicast message
// parsing, the four-timestamp offset/delay computation, and a PI servo
// that feeds corrections into a disciplined clock (spec §4.7).
package ptp

import (
	"encoding/binary"
	"fmt"
)

// MulticastAddr is the PTP event/general multicast group.
const MulticastAddr = "224.0.1.129"

// EventPort and GeneralPort are the standard PTP UDP ports.
const (
	EventPort   = 319
	GeneralPort = 320
)

// MessageType identifies a PTP message's low nibble of header byte 0.
type MessageType uint8

// Recognized message types (spec §4.7).
const (
	Sync       MessageType = 0x0
	DelayReq   MessageType = 0x1
	FollowUp   MessageType = 0x8
	DelayResp  MessageType = 0x9
	Announce   MessageType = 0xB
)

// HeaderLen is the fixed size of the PTP common header.
const HeaderLen = 34

// TimestampLen is the fixed size of a PTP origin/receive timestamp field.
const TimestampLen = 10

// twoStepFlag is bit 1 of the first flags byte (header byte 6).
const twoStepFlag = 1 << 1

// Header is the parsed 34-byte PTP common header.
type Header struct {
	MessageType   MessageType
	Version       uint8
	Length        uint16
	Domain        uint8
	TwoStep       bool
	Correction100ns int64 // correctionField converted from ns*2^16 to 100ns units
	SourcePortIdentity [10]byte
	SequenceID    uint16
}

// ParseHeader parses the 34-byte PTP common header from buf.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderLen {
		return Header{}, fmt.Errorf("ptp: header needs %d bytes, got %d", HeaderLen, len(buf))
	}
	correctionRaw := int64(binary.BigEndian.Uint64(buf[8:16]))
	h := Header{
		MessageType:     MessageType(buf[0] & 0x0F),
		Version:         buf[1] & 0x0F,
		Length:          binary.BigEndian.Uint16(buf[2:4]),
		Domain:          buf[4],
		TwoStep:         buf[6]&twoStepFlag != 0,
		Correction100ns: (correctionRaw >> 16) / 100,
		SequenceID:      binary.BigEndian.Uint16(buf[30:32]),
	}
	copy(h.SourcePortIdentity[:], buf[20:30])
	return h, nil
}

// Timestamp100ns parses a 10-byte PTP timestamp (48-bit seconds + 32-bit
// nanoseconds, both big-endian) into 100ns units.
func Timestamp100ns(buf []byte) (int64, error) {
	if len(buf) < TimestampLen {
		return 0, fmt.Errorf("ptp: timestamp needs %d bytes, got %d", TimestampLen, len(buf))
	}
	var secBuf [8]byte
	copy(secBuf[2:], buf[0:6]) // 48-bit seconds, left-padded into a uint64
	seconds := binary.BigEndian.Uint64(secBuf[:])
	nanos := binary.BigEndian.Uint32(buf[6:10])
	return int64(seconds)*10_000_000 + int64(nanos)/100, nil
}

// PortIdentity derives the 10-byte PTP port identity from a MAC address
// via EUI-64 expansion (spec §4.7): mac[0..2] | 0xFF 0xFE | mac[3..5],
// followed by a fixed 2-byte port number.
func PortIdentity(mac [6]byte, portNumber uint16) [10]byte {
	var id [10]byte
	copy(id[0:3], mac[0:3])
	id[3] = 0xFF
	id[4] = 0xFE
	copy(id[5:8], mac[3:6])
	binary.BigEndian.PutUint16(id[8:10], portNumber)
	return id
}
