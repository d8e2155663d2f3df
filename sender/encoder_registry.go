package sender

import (
	"log/slog"
	"sync"

	"github.com/omtransport/omt/codec"
	"github.com/omtransport/omt/wire"
)

type videoEncKey struct {
	width, height  int
	fpsNum, fpsDen uint32
	profile        string
	colorspace     uint8
}

// encoderRegistry lazily constructs and reuses a video encoder, matching
// the decoder-side caching rule in spec §4.4 applied to the sender's
// outbound encode path: re-created only when the geometry, frame rate,
// profile or colorspace changes (spec §3's encoder lifecycle rule).
type encoderRegistry struct {
	newEncoder codec.NewVideoEncoder
	logger     *slog.Logger

	mu      sync.Mutex
	key     videoEncKey
	have    bool
	current codec.VideoEncoder
}

func newEncoderRegistry(newEncoder codec.NewVideoEncoder, logger *slog.Logger) *encoderRegistry {
	return &encoderRegistry{newEncoder: newEncoder, logger: logger}
}

func (r *encoderRegistry) available() bool { return r.newEncoder != nil }

func (r *encoderRegistry) get(width, height int, fpsNum, fpsDen uint32, profile string, colorspace uint8) (codec.VideoEncoder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := videoEncKey{width: width, height: height, fpsNum: fpsNum, fpsDen: fpsDen, profile: profile, colorspace: colorspace}
	if r.have && r.key == key {
		return r.current, nil
	}
	if r.have {
		r.current.Dispose()
		r.have = false
	}

	fps := 30.0
	if fpsDen != 0 {
		fps = float64(fpsNum) / float64(fpsDen)
	}
	enc, err := r.newEncoder(width, height, fps, profile, colorspace)
	if err != nil {
		return nil, err
	}
	r.key = key
	r.current = enc
	r.have = true
	return enc, nil
}

// setQuality applies a quality hint to the current encoder instance
// without reconstructing it. It is a no-op if no encoder has been built
// yet — the next get call will pick up the matching profile instead.
func (r *encoderRegistry) setQuality(c wire.Codec, quality int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.have {
		return
	}
	if err := r.current.SetQuality(c, quality); err != nil {
		r.logger.Warn("set encoder quality failed", "error", err)
	}
}

func (r *encoderRegistry) dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.have {
		r.current.Dispose()
		r.have = false
	}
}
