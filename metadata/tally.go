package metadata

import "fmt"

// Tally is the reserved 0x0006 typed-metadata item: the on-air state of a
// source in a production switcher.
type Tally struct {
	Preview, Program bool
}

// Encode returns the 2-byte wire payload for t.
func (t Tally) Encode() []byte {
	b := make([]byte, 2)
	if t.Preview {
		b[0] = 1
	}
	if t.Program {
		b[1] = 1
	}
	return b
}

// DecodeTally parses a 2-byte Tally item payload.
func DecodeTally(payload []byte) (Tally, error) {
	if len(payload) != 2 {
		return Tally{}, fmt.Errorf("metadata: tally payload must be 2 bytes, got %d", len(payload))
	}
	return Tally{Preview: payload[0] != 0, Program: payload[1] != 0}, nil
}

// Item wraps t as a typed-metadata Item.
func (t Tally) Item() Item {
	return Item{Type: TypeTally, Payload: t.Encode()}
}
