package metadata

import (
	"encoding/binary"
	"fmt"
)

// SCTE104 is the reserved 0x0004 typed-metadata item: an SCTE-104 splice
// marker, carried as a 10-byte payload.
type SCTE104 struct {
	Op            uint8
	SpliceEventID uint32
	PTSOffset     uint32
	AutoReturn    uint8
}

// Encode returns the 10-byte wire payload for s.
func (s SCTE104) Encode() []byte {
	b := make([]byte, 10)
	b[0] = s.Op
	binary.LittleEndian.PutUint32(b[1:5], s.SpliceEventID)
	binary.LittleEndian.PutUint32(b[5:9], s.PTSOffset)
	b[9] = s.AutoReturn
	return b
}

// DecodeSCTE104 parses a 10-byte SCTE-104 item payload.
func DecodeSCTE104(payload []byte) (SCTE104, error) {
	if len(payload) != 10 {
		return SCTE104{}, fmt.Errorf("metadata: scte-104 payload must be 10 bytes, got %d", len(payload))
	}
	return SCTE104{
		Op:            payload[0],
		SpliceEventID: binary.LittleEndian.Uint32(payload[1:5]),
		PTSOffset:     binary.LittleEndian.Uint32(payload[5:9]),
		AutoReturn:    payload[9],
	}, nil
}

// Item wraps s as a typed-metadata Item.
func (s SCTE104) Item() Item {
	return Item{Type: TypeSCTE104, Payload: s.Encode()}
}
