package metadata

import "fmt"

// FrameRateIndex is the 2-bit frame-rate field packed into a Timecode's
// flags byte.
type FrameRateIndex uint8

// Frame-rate indices for the Timecode flags byte (bits 3-4).
const (
	FrameRateUnspecified FrameRateIndex = iota
	FrameRate24
	FrameRate30
	FrameRate25
)

// Timecode flag bits (spec §4.3: "bit0 drop-frame, bit1 color-frame, bit2
// field-mark, bits3-4 frame-rate index").
const (
	timecodeDropBit  = 1 << 0
	timecodeColorBit = 1 << 1
	timecodeFieldBit = 1 << 2
	timecodeRateShift = 3
	timecodeRateMask  = 0x3
)

// Timecode is the reserved 0x0001 typed-metadata item: an SMPTE-style
// HH:MM:SS:FF timecode plus drop-frame/color-frame/field-mark flags and a
// frame-rate index.
type Timecode struct {
	Hour, Minute, Second, Frame uint8
	DropFrame, ColorFrame, FieldMark bool
	Rate FrameRateIndex
}

// Encode returns the 5-byte wire payload for t.
func (t Timecode) Encode() []byte {
	var flags uint8
	if t.DropFrame {
		flags |= timecodeDropBit
	}
	if t.ColorFrame {
		flags |= timecodeColorBit
	}
	if t.FieldMark {
		flags |= timecodeFieldBit
	}
	flags |= (uint8(t.Rate) & timecodeRateMask) << timecodeRateShift
	return []byte{t.Hour, t.Minute, t.Second, t.Frame, flags}
}

// DecodeTimecode parses a 5-byte Timecode item payload.
func DecodeTimecode(payload []byte) (Timecode, error) {
	if len(payload) != 5 {
		return Timecode{}, fmt.Errorf("metadata: timecode payload must be 5 bytes, got %d", len(payload))
	}
	flags := payload[4]
	return Timecode{
		Hour:       payload[0],
		Minute:     payload[1],
		Second:     payload[2],
		Frame:      payload[3],
		DropFrame:  flags&timecodeDropBit != 0,
		ColorFrame: flags&timecodeColorBit != 0,
		FieldMark:  flags&timecodeFieldBit != 0,
		Rate:       FrameRateIndex((flags >> timecodeRateShift) & timecodeRateMask),
	}, nil
}

// Item wraps t as a typed-metadata Item.
func (t Timecode) Item() Item {
	return Item{Type: TypeTimecode, Payload: t.Encode()}
}
