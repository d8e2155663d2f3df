package metadata

import (
	"encoding/binary"
	"fmt"
)

// AFDBar is the reserved 0x0005 typed-metadata item: Active Format
// Description plus bar-data coordinates.
type AFDBar struct {
	AFD       uint8
	Aspect    uint8
	BarTop    uint16
	BarBottom uint16
}

// Encode returns the 6-byte wire payload for a.
func (a AFDBar) Encode() []byte {
	b := make([]byte, 6)
	b[0] = a.AFD
	b[1] = a.Aspect
	binary.LittleEndian.PutUint16(b[2:4], a.BarTop)
	binary.LittleEndian.PutUint16(b[4:6], a.BarBottom)
	return b
}

// DecodeAFDBar parses a 6-byte AFD+Bar item payload.
func DecodeAFDBar(payload []byte) (AFDBar, error) {
	if len(payload) != 6 {
		return AFDBar{}, fmt.Errorf("metadata: afd+bar payload must be 6 bytes, got %d", len(payload))
	}
	return AFDBar{
		AFD:       payload[0],
		Aspect:    payload[1],
		BarTop:    binary.LittleEndian.Uint16(payload[2:4]),
		BarBottom: binary.LittleEndian.Uint16(payload[4:6]),
	}, nil
}

// Item wraps a as a typed-metadata Item.
func (a AFDBar) Item() Item {
	return Item{Type: TypeAFDBar, Payload: a.Encode()}
}
