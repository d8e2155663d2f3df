// Package wire implements the common frame header, the kind-specific
// extended headers, and the pure-functional encode/decode operations
// described in spec §4.1. It never allocates on the hot path: callers own
// the backing buffer and pass in the offset to read or write at.
package wire

import "fmt"

// Kind tags both the wire header and the subscription mask. It is a closed
// set: Video, Audio, Metadata.
type Kind uint8

// The three frame kinds carried by the transport.
const (
	Video Kind = iota
	Audio
	Metadata
)

// Valid reports whether k is one of the three defined kinds.
func (k Kind) Valid() bool {
	return k == Video || k == Audio || k == Metadata
}

// String renders the kind for logging and error messages.
func (k Kind) String() string {
	switch k {
	case Video:
		return "video"
	case Audio:
		return "audio"
	case Metadata:
		return "metadata"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Mask is a set over {Video, Audio, Metadata}, used as the per-channel
// subscription mask on the sending side.
type Mask uint8

// Bit values for Mask, one per Kind.
const (
	MaskVideo    Mask = 1 << Video
	MaskAudio    Mask = 1 << Audio
	MaskMetadata Mask = 1 << Metadata
	MaskNone     Mask = 0
	MaskAll      Mask = MaskVideo | MaskAudio | MaskMetadata
)

// Has reports whether k is included in the mask.
func (m Mask) Has(k Kind) bool {
	return m&(1<<k) != 0
}

// With returns the mask with k added.
func (m Mask) With(k Kind) Mask {
	return m | (1 << k)
}

// Without returns the mask with k removed.
func (m Mask) Without(k Kind) Mask {
	return m &^ (1 << k)
}

// Codec tags the wire codec field in the common header and, redundantly
// per spec §3, in the video/audio extended headers.
type Codec uint8

// The codec identifiers carried on the wire. The actual codec
// implementations are external collaborators (spec §6); this enum only
// names them.
const (
	CodecUnspecified Codec = iota
	CodecVMX1
	CodecAV1
	CodecOpus
	CodecPCMPlanarFloat
)
