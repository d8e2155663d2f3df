// Package codec declares the external encoder/decoder contracts the
// sender and receiver consume (spec §6). Implementations are provided by
// codec-specific packages elsewhere (VMX1, AV1, Opus, PCM) and treated
// here strictly as black boxes: this package only fixes the interface
// shape.
package codec

import "github.com/omtransport/omt/wire"

// ImageFormat identifies the pixel layout a video codec reads or writes.
type ImageFormat int

// Supported image formats.
const (
	ImageI420 ImageFormat = iota
	ImageNV12
	ImageRGBA
	ImageBGRA
)

// VideoEncoder compresses raw video into a wire-ready payload.
type VideoEncoder interface {
	// Encode compresses one frame of src (laid out per format, with the
	// given stride) into dst, returning the number of bytes written.
	Encode(format ImageFormat, src []byte, srcStride int, dst []byte, interlaced bool) (int, error)
	// SetQuality adjusts the encoder's target quality for subsequent
	// frames without reconstructing it.
	SetQuality(q wire.Codec, quality int) error
	// EncodedPreviewLength reports how many leading bytes of the last
	// Encode result constitute a preview-resolution subset, or 0 if the
	// codec does not support embedded previews.
	EncodedPreviewLength() int
	// Dispose releases any codec-owned resources.
	Dispose()
}

// VideoDecoder decompresses a wire payload into raw video.
type VideoDecoder interface {
	// Decode decompresses src into dst (laid out per format, with the
	// given stride), reporting whether decoding succeeded.
	Decode(format ImageFormat, src []byte, dst []byte, dstStride int) (bool, error)
	Dispose()
}

// NewVideoEncoder constructs a VideoEncoder for the given geometry and
// initial quality profile.
type NewVideoEncoder func(width, height int, fps float64, profile string, colorspace uint8) (VideoEncoder, error)

// NewVideoDecoder constructs a VideoDecoder for the given codec.
type NewVideoDecoder func(c wire.Codec) (VideoDecoder, error)

// AudioEncoder compresses planar float audio into a wire-ready payload.
type AudioEncoder interface {
	Encode(src [][]float32, dst []byte) (int, error)
	Dispose()
}

// AudioDecoder decompresses a wire payload into planar float audio.
type AudioDecoder interface {
	Decode(src []byte, dst [][]float32) (int, error)
	Dispose()
}

// NewAudioEncoder constructs an AudioEncoder for the given format.
type NewAudioEncoder func(sampleRate int, channels int) (AudioEncoder, error)

// NewAudioDecoder constructs an AudioDecoder for the given format.
type NewAudioDecoder func(sampleRate int, channels int) (AudioDecoder, error)

// BufferPool is the pinned-memory allocator a codec may use instead of
// Go-managed slices, for codecs that require page-locked buffers for DMA
// or hardware acceleration.
type BufferPool interface {
	Get(size int) []byte
	Put(buf []byte)
}
