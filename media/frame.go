// Package media defines the consumer-facing frame types that cross the
// Sender/Receiver API boundary — distinct from the wire.Frame type, which is
// what actually travels over a Channel once encoded.
package media

import (
	"encoding/binary"

	"github.com/omtransport/omt/metadata"
)

// frameMetadataLenSize is the width of the trailing length field that
// records how many bytes of frame-metadata follow a video/audio frame's
// encoded data on the wire (spec §3: "the length of trailing
// frame-metadata is recorded by the sender and subtracted by the
// receiver before codec handoff").
const frameMetadataLenSize = 4

// AppendFrameMetadata appends meta after data along with a trailing
// little-endian uint32 recording len(meta), so SplitFrameMetadata can
// recover both halves on the receive side without knowing the codec.
func AppendFrameMetadata(data, meta []byte) []byte {
	out := make([]byte, 0, len(data)+len(meta)+frameMetadataLenSize)
	out = append(out, data...)
	out = append(out, meta...)
	var lenBuf [frameMetadataLenSize]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(meta)))
	return append(out, lenBuf[:]...)
}

// SplitFrameMetadata reverses AppendFrameMetadata, returning the original
// data and the trailing frame-metadata bytes. A payload too short to
// carry the trailing length field (or with an implausible length) is
// returned unmodified with no frame-metadata, for defense against
// malformed input.
func SplitFrameMetadata(payload []byte) (data, meta []byte) {
	if len(payload) < frameMetadataLenSize {
		return payload, nil
	}
	n := len(payload) - frameMetadataLenSize
	metaLen := int(binary.LittleEndian.Uint32(payload[n:]))
	if metaLen < 0 || metaLen > n {
		return payload, nil
	}
	return payload[:n-metaLen], payload[n-metaLen : n]
}

// Kind identifies which of the three media planes a frame belongs to.
type Kind uint8

// The closed set of frame kinds carried by the transport.
const (
	Video Kind = iota
	Audio
	Metadata
)

// String renders the kind for logging.
func (k Kind) String() string {
	switch k {
	case Video:
		return "video"
	case Audio:
		return "audio"
	case Metadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// Colorspace enumerates the colorspace tag carried in the video extended
// header.
type Colorspace uint8

// Supported colorspace tags.
const (
	ColorspaceUnknown Colorspace = iota
	ColorspaceBT601
	ColorspaceBT709
	ColorspaceBT2020
)

// VideoFlags is a bitset carried in the video extended header.
type VideoFlags uint8

// Video extended-header flag bits.
const (
	VideoFlagAlpha VideoFlags = 1 << iota
	VideoFlagInterlaced
	VideoFlagHighBitDepth
	VideoFlagPreview
)

// OutboundFrame is what a producer hands to Sender.Send. It carries either
// raw planar/packed samples (Data) for the Sender to encode, or an
// already-compressed payload when Compressed is set.
type OutboundFrame struct {
	Kind Kind

	// Video fields.
	Width        int
	Height       int
	FrameRateNum uint32
	FrameRateDen uint32
	AspectRatio  float32
	Flags        VideoFlags
	Colorspace   Colorspace

	// Audio fields.
	SampleRate     uint32
	Channels       uint8
	SamplesPerChan uint32
	ActiveChannels uint32

	// CodecName identifies the codec the Sender should select an encoder
	// for (raw input), or the codec Data is already encoded with
	// (Compressed input). One of "vmx1", "av1", "opus", "pcm".
	CodecName string

	// Data holds raw samples (to be encoded) or, when Compressed is true,
	// an already-encoded payload to pass through unmodified.
	Data       []byte
	Compressed bool

	// FrameMetadata is appended after Data on the wire, followed by a
	// trailing length field (AppendFrameMetadata) so the receiver can
	// strip it before codec handoff.
	FrameMetadata []byte

	// TimestampOverride, if non-zero, is used instead of the Sender's
	// clock-derived timestamp (100ns units). Zero means "use the clock".
	TimestampOverride int64
}

// VideoFrame is what Receiver.Receive returns for a decoded/pass-through
// video access unit.
type VideoFrame struct {
	Width         int
	Height        int
	FrameRateNum  uint32
	FrameRateDen  uint32
	Colorspace    Colorspace
	Flags         VideoFlags
	Timestamp     int64 // 100ns units
	Data          []byte
	FrameMetadata []byte
}

// AudioFrame is what Receiver.Receive returns for a decoded/pass-through
// audio frame.
type AudioFrame struct {
	SampleRate     uint32
	Channels       uint8
	SamplesPerChan uint32
	Timestamp      int64 // 100ns units
	Data           []byte
	FrameMetadata  []byte
}

// MetadataFrame is what Receiver.Receive returns for a Metadata frame that
// was not absorbed as a channel control document (§4.4).
type MetadataFrame struct {
	Timestamp int64 // 100ns units
	XML       string            // set when the payload was a UTF-8 XML document
	Items     []metadata.Item   // set when the payload was a typed-metadata item stream
}
