package codec

import (
	"fmt"
	"sync"

	"github.com/omtransport/omt/wire"
)

// VideoKey identifies a decoder instance worth caching: the decoder is
// created lazily on first use and re-created when the codec, width,
// height, frame rate or colorspace changes. Decoders take no profile, so
// the key carries none.
type VideoKey struct {
	Codec      wire.Codec
	Width      uint16
	Height     uint16
	FPSNum     uint32
	FPSDen     uint32
	Colorspace uint8
}

func (k VideoKey) String() string {
	return fmt.Sprintf("codec=%d %dx%d@%d/%d cs=%d", k.Codec, k.Width, k.Height, k.FPSNum, k.FPSDen, k.Colorspace)
}

// VideoDecoderCache lazily constructs and reuses a VideoDecoder, disposing
// of the previous instance whenever the key changes.
type VideoDecoderCache struct {
	new NewVideoDecoder

	mu      sync.Mutex
	key     VideoKey
	have    bool
	current VideoDecoder
}

// NewVideoDecoderCache returns a cache that constructs decoders with
// newDecoder.
func NewVideoDecoderCache(newDecoder NewVideoDecoder) *VideoDecoderCache {
	return &VideoDecoderCache{new: newDecoder}
}

// Get returns the decoder instance for key, constructing (or
// reconstructing, disposing the stale instance) as needed.
func (c *VideoDecoderCache) Get(key VideoKey) (VideoDecoder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.have && c.key == key {
		return c.current, nil
	}
	if c.have {
		c.current.Dispose()
		c.have = false
	}
	dec, err := c.new(key.Codec)
	if err != nil {
		return nil, err
	}
	c.key = key
	c.current = dec
	c.have = true
	return dec, nil
}

// Dispose releases the cached decoder, if any.
func (c *VideoDecoderCache) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.have {
		c.current.Dispose()
		c.have = false
	}
}
