package wire

import (
	"encoding/binary"
	"math"
)

// HeaderSize is the fixed size of the common frame header (spec §3).
const HeaderSize = 16

// Magic identifies OMT framing at the start of the common header.
var Magic = [2]byte{'O', 'M'}

// Per-kind payload caps (spec §3 invariant: "P + E ≤ payload-size cap per
// kind"). These bound the frame pool's growable buffers (§4.2) and reject
// runaway declared lengths before they're ever read off the wire.
const (
	CapVideo    = 64 << 20 // 64 MiB: uncompressed 4K planar video headroom
	CapAudio    = 4 << 20  // 4 MiB: many channels of planar float at once
	CapMetadata = 256 << 10
)

// CapForKind returns the payload-size cap for k, or 0 if k is invalid.
func CapForKind(k Kind) int {
	switch k {
	case Video:
		return CapVideo
	case Audio:
		return CapAudio
	case Metadata:
		return CapMetadata
	default:
		return 0
	}
}

// videoExtLen and audioExtLen are the fixed, kind-specific extended header
// sizes written immediately after the common header.
const (
	videoExtLen = 19 // width(2) height(2) fpsNum(4) fpsDen(4) aspect(4) flags(1) colorspace(1) codec(1)
	audioExtLen = 14 // sampleRate(4) channels(1) samplesPerChan(4) activeMask(4) codec(1)
)

// ExtHeaderLen returns the fixed extended-header length for k.
func ExtHeaderLen(k Kind) uint16 {
	switch k {
	case Video:
		return videoExtLen
	case Audio:
		return audioExtLen
	default:
		return 0
	}
}

// VideoFlags mirrors the video extended-header flag bitset (alpha,
// interlaced, high-bit-depth, preview).
type VideoFlags uint8

// Video extended-header flag bits.
const (
	FlagAlpha VideoFlags = 1 << iota
	FlagInterlaced
	FlagHighBitDepth
	FlagPreview
)

// VideoExt is the video extended header (spec §3).
type VideoExt struct {
	Width        uint16
	Height       uint16
	FrameRateNum uint32
	FrameRateDen uint32
	AspectRatio  float32
	Flags        VideoFlags
	Colorspace   uint8
	Codec        Codec
}

// AudioExt is the audio extended header (spec §3).
type AudioExt struct {
	SampleRate        uint32
	Channels          uint8
	SamplesPerChannel uint32
	ActiveChannelMask uint32
	Codec             Codec
}

// Header is the parsed common frame header, returned by ReadHeader.
type Header struct {
	Kind        Kind
	Codec       Codec
	ExtLen      uint16
	PayloadLen  uint32
	PreviewMode bool
	Timestamp   uint32 // 100ns units, wraps every ~429s per the 4-byte wire field
}

// TotalLen returns 16 + E + P, the total on-wire length of the frame this
// header describes.
func (h Header) TotalLen() int {
	return HeaderSize + int(h.ExtLen) + int(h.PayloadLen)
}

// Frame is a fully parsed or fully populated frame: common header fields,
// the kind-specific extended header, and the payload. It is the unit the
// codec operations in this package read and write.
type Frame struct {
	Kind        Kind
	Codec       Codec
	PreviewMode bool
	Timestamp   uint32

	Video VideoExt // valid iff Kind == Video
	Audio AudioExt // valid iff Kind == Audio

	Payload []byte
}

// WireLen returns the total on-wire length this frame would occupy.
func (f *Frame) WireLen() int {
	return HeaderSize + int(ExtHeaderLen(f.Kind)) + len(f.Payload)
}

// WriteHeader writes the 16-byte common header plus the kind-specific
// extended header for f into buf at offset. It does not write the payload
// — call WritePayload separately. buf must have at least
// HeaderSize+ExtHeaderLen(f.Kind) bytes available from offset.
func WriteHeader(buf []byte, offset int, f *Frame) error {
	extLen := ExtHeaderLen(f.Kind)
	need := HeaderSize + int(extLen)
	if len(buf)-offset < need {
		return ErrShortBuffer
	}

	b := buf[offset:]
	b[0], b[1] = Magic[0], Magic[1]
	b[2] = byte(f.Kind)
	b[3] = byte(f.Codec)
	binary.LittleEndian.PutUint16(b[4:6], extLen)
	binary.LittleEndian.PutUint32(b[6:10], uint32(len(f.Payload)))
	if f.PreviewMode {
		b[10] = 1
	} else {
		b[10] = 0
	}
	b[11] = 0 // reserved
	binary.LittleEndian.PutUint32(b[12:16], f.Timestamp)

	switch f.Kind {
	case Video:
		writeVideoExt(b[HeaderSize:HeaderSize+videoExtLen], f.Video)
	case Audio:
		writeAudioExt(b[HeaderSize:HeaderSize+audioExtLen], f.Audio)
	case Metadata:
		// no extended header
	}
	return nil
}

// WritePayload copies f.Payload into buf starting at dstOffset. It returns
// the number of bytes written, or ErrShortBuffer if buf is too small.
func WritePayload(buf []byte, f *Frame, dstOffset int) (int, error) {
	if len(buf)-dstOffset < len(f.Payload) {
		return 0, ErrShortBuffer
	}
	return copy(buf[dstOffset:], f.Payload), nil
}

// ReadHeader parses the 16-byte common header at offset in buf. It does not
// touch the extended header or payload bytes.
func ReadHeader(buf []byte, offset int) (Header, error) {
	if len(buf)-offset < HeaderSize {
		return Header{}, ErrShortBuffer
	}
	b := buf[offset : offset+HeaderSize]

	if b[0] != Magic[0] || b[1] != Magic[1] {
		return Header{}, ErrMagicMismatch
	}

	kind := Kind(b[2])
	if !kind.Valid() {
		return Header{}, ErrUnknownKind
	}

	h := Header{
		Kind:        kind,
		Codec:       Codec(b[3]),
		ExtLen:      binary.LittleEndian.Uint16(b[4:6]),
		PayloadLen:  binary.LittleEndian.Uint32(b[6:10]),
		PreviewMode: b[10] != 0,
		Timestamp:   binary.LittleEndian.Uint32(b[12:16]),
	}

	if int(h.ExtLen)+int(h.PayloadLen) > CapForKind(kind) {
		return Header{}, ErrLengthOverflow
	}

	return h, nil
}

// ReadExtendedAndPayload parses the extended header and payload described
// by h, starting immediately after the 16-byte common header at offset, and
// returns a fully populated Frame. buf[offset:offset+h.TotalLen()] must be
// available.
func ReadExtendedAndPayload(buf []byte, offset int, h Header) (*Frame, error) {
	need := HeaderSize + int(h.ExtLen) + int(h.PayloadLen)
	if len(buf)-offset < need {
		return nil, ErrShortBuffer
	}

	f := &Frame{
		Kind:        h.Kind,
		Codec:       h.Codec,
		PreviewMode: h.PreviewMode,
		Timestamp:   h.Timestamp,
	}

	extStart := offset + HeaderSize
	extEnd := extStart + int(h.ExtLen)

	switch h.Kind {
	case Video:
		if h.ExtLen >= videoExtLen {
			f.Video = readVideoExt(buf[extStart : extStart+videoExtLen])
		}
	case Audio:
		if h.ExtLen >= audioExtLen {
			f.Audio = readAudioExt(buf[extStart : extStart+audioExtLen])
		}
	case Metadata:
		// no extended header
	}

	payloadStart := extEnd
	payloadEnd := payloadStart + int(h.PayloadLen)
	f.Payload = buf[payloadStart:payloadEnd]

	return f, nil
}

func writeVideoExt(b []byte, v VideoExt) {
	binary.LittleEndian.PutUint16(b[0:2], v.Width)
	binary.LittleEndian.PutUint16(b[2:4], v.Height)
	binary.LittleEndian.PutUint32(b[4:8], v.FrameRateNum)
	binary.LittleEndian.PutUint32(b[8:12], v.FrameRateDen)
	binary.LittleEndian.PutUint32(b[12:16], math.Float32bits(v.AspectRatio))
	b[16] = byte(v.Flags)
	b[17] = v.Colorspace
	b[18] = byte(v.Codec)
}

func readVideoExt(b []byte) VideoExt {
	return VideoExt{
		Width:        binary.LittleEndian.Uint16(b[0:2]),
		Height:       binary.LittleEndian.Uint16(b[2:4]),
		FrameRateNum: binary.LittleEndian.Uint32(b[4:8]),
		FrameRateDen: binary.LittleEndian.Uint32(b[8:12]),
		AspectRatio:  math.Float32frombits(binary.LittleEndian.Uint32(b[12:16])),
		Flags:        VideoFlags(b[16]),
		Colorspace:   b[17],
		Codec:        Codec(b[18]),
	}
}

func writeAudioExt(b []byte, a AudioExt) {
	binary.LittleEndian.PutUint32(b[0:4], a.SampleRate)
	b[4] = a.Channels
	binary.LittleEndian.PutUint32(b[5:9], a.SamplesPerChannel)
	binary.LittleEndian.PutUint32(b[9:13], a.ActiveChannelMask)
	b[13] = byte(a.Codec)
}

func readAudioExt(b []byte) AudioExt {
	return AudioExt{
		SampleRate:        binary.LittleEndian.Uint32(b[0:4]),
		Channels:          b[4],
		SamplesPerChannel: binary.LittleEndian.Uint32(b[5:9]),
		ActiveChannelMask: binary.LittleEndian.Uint32(b[9:13]),
		Codec:             Codec(b[13]),
	}
}
