// Package sender implements the accept-and-broadcast half of the
// transport (spec §4.5): it listens for incoming connections, constructs
// a Channel per connection, and dispatches outbound frames to every
// channel whose subscription mask admits them.
package sender

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/quic-go/quic-go"
	"golang.org/x/sync/errgroup"

	"github.com/omtransport/omt/certs"
	"github.com/omtransport/omt/channel"
	"github.com/omtransport/omt/clock"
	"github.com/omtransport/omt/codec"
	"github.com/omtransport/omt/framepool"
	"github.com/omtransport/omt/media"
	"github.com/omtransport/omt/metadata"
	"github.com/omtransport/omt/transport"
	"github.com/omtransport/omt/wire"
)

// Config configures a Sender.
type Config struct {
	Host string // defaults to "0.0.0.0"
	Port int    // 0 scans the dynamic range

	Cert *certs.CertInfo

	// StatsAddr, if non-empty, starts a StatsServer on this address
	// alongside the main listener.
	StatsAddr string

	// PoolSize, InitialBufSize, and MaxBufSize configure the per-channel
	// frame pool (spec §4.2).
	PoolSize       int
	InitialBufSize int
	MaxBufSize     int

	NewVideoEncoder codec.NewVideoEncoder
	NewAudioEncoder codec.NewAudioEncoder

	Clock  clock.TimeSource
	Logger *slog.Logger
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.PoolSize == 0 {
		c.PoolSize = 32
	}
	if c.InitialBufSize == 0 {
		c.InitialBufSize = 64 << 10
	}
	if c.MaxBufSize == 0 {
		c.MaxBufSize = wire.CapVideo
	}
	if c.Clock == nil {
		c.Clock = clock.NewLocal()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Sender accepts connections, builds one Channel per connection, and fans
// out OutboundFrame sends to every channel whose mask admits the frame's
// kind.
type Sender struct {
	cfg    Config
	logger *slog.Logger

	ln *quic.Listener

	videoEncoders *encoderRegistry
	videoAdapter  *clock.Adapter
	audioAdapter  *clock.Adapter

	mu       sync.RWMutex
	channels map[*channel.Channel]struct{}
}

// New constructs a Sender but does not yet listen.
func New(cfg Config) *Sender {
	cfg.setDefaults()
	s := &Sender{
		cfg:          cfg,
		logger:       cfg.Logger.With("component", "sender"),
		videoAdapter: clock.NewAdapter(cfg.Clock),
		audioAdapter: clock.NewAdapter(cfg.Clock),
		channels:     make(map[*channel.Channel]struct{}),
	}
	s.videoEncoders = newEncoderRegistry(cfg.NewVideoEncoder, s.logger)
	return s
}

// Run opens the transport listener and accepts connections until ctx is
// canceled. If cfg.StatsAddr is set, it also starts a StatsServer sharing
// the same certificate.
func (s *Sender) Run(ctx context.Context) error {
	if s.cfg.Cert == nil {
		cert, err := certs.Generate(0, s.cfg.Host)
		if err != nil {
			return fmt.Errorf("sender: generating self-signed certificate: %w", err)
		}
		s.cfg.Cert = cert
	}

	ln, err := transport.Listen(ctx, s.cfg.Host, s.cfg.Port, s.cfg.Cert)
	if err != nil {
		return fmt.Errorf("sender: listen: %w", err)
	}
	s.ln = ln
	s.logger.Info("sender listening",
		"addr", ln.Addr().String(),
		"cert_hash", s.cfg.Cert.FingerprintBase64(),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.acceptLoop(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})
	if s.cfg.StatsAddr != "" {
		statsSrv := NewStatsServer(s.cfg.StatsAddr, s, s.cfg.Cert)
		g.Go(func() error { return statsSrv.Start(ctx) })
	}

	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Sender) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handleConnection(ctx, conn)
	}
}

func (s *Sender) handleConnection(ctx context.Context, conn quic.Connection) {
	defer conn.CloseWithError(transport.ConnectionCloseCode, "shutting down")
	for {
		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			return
		}
		pool := framepool.New(s.cfg.PoolSize, s.cfg.InitialBufSize, s.cfg.MaxBufSize, true)
		ch := channel.New(channel.Config{
			Stream:        stream,
			Pool:          pool,
			FrameReady:    make(chan struct{}, 1),
			MetadataReady: make(chan struct{}, 1),
			Logger:        s.logger,
		})

		s.mu.Lock()
		s.channels[ch] = struct{}{}
		s.mu.Unlock()

		go func() {
			ch.Run(ctx)
			s.mu.Lock()
			delete(s.channels, ch)
			s.mu.Unlock()
		}()
	}
}

// Send encodes and fans out f to every currently connected channel whose
// subscription mask admits its kind (spec §4.5).
func (s *Sender) Send(f media.OutboundFrame) error {
	switch f.Kind {
	case media.Video:
		return s.sendVideo(f)
	case media.Audio:
		return s.sendAudio(f)
	case media.Metadata:
		return s.sendMetadata(f)
	default:
		return fmt.Errorf("sender: unknown frame kind %v", f.Kind)
	}
}

func (s *Sender) sendVideo(f media.OutboundFrame) error {
	payload := f.Data
	wireCodec := wire.CodecUnspecified
	if name, ok := codecByName(f.CodecName); ok {
		wireCodec = name
	}

	if !f.Compressed && s.videoEncoders.available() {
		q := s.highestQuality()
		enc, err := s.videoEncoders.get(f.Width, f.Height, f.FrameRateNum, f.FrameRateDen, profileForQuality(q), uint8(f.Colorspace))
		if err != nil {
			return fmt.Errorf("sender: video encoder: %w", err)
		}
		s.videoEncoders.setQuality(wireCodec, qualityPercent(q))
		dst := make([]byte, len(f.Data)) // sized pessimistically; encoders report bytes_written
		n, err := enc.Encode(codec.ImageI420, f.Data, f.Width, dst, f.Flags&media.VideoFlagInterlaced != 0)
		if err != nil {
			return fmt.Errorf("sender: encode: %w", err)
		}
		payload = dst[:n]
	}
	payload = media.AppendFrameMetadata(payload, f.FrameMetadata)

	wf := &wire.Frame{
		Kind:  wire.Video,
		Codec: wireCodec,
		Video: wire.VideoExt{
			Width:        uint16(f.Width),
			Height:       uint16(f.Height),
			FrameRateNum: f.FrameRateNum,
			FrameRateDen: f.FrameRateDen,
			AspectRatio:  f.AspectRatio,
			Flags:        wire.VideoFlags(f.Flags),
			Colorspace:   uint8(f.Colorspace),
			Codec:        wireCodec,
		},
		Timestamp: s.timestampFor(f, s.videoAdapter),
		Payload:   payload,
	}
	s.broadcast(wf)
	return nil
}

func (s *Sender) sendAudio(f media.OutboundFrame) error {
	wireCodec := wire.CodecUnspecified
	if name, ok := codecByName(f.CodecName); ok {
		wireCodec = name
	}
	payload := media.AppendFrameMetadata(f.Data, f.FrameMetadata)

	wf := &wire.Frame{
		Kind:  wire.Audio,
		Codec: wireCodec,
		Audio: wire.AudioExt{
			SampleRate:        f.SampleRate,
			Channels:          f.Channels,
			SamplesPerChannel: f.SamplesPerChan,
			ActiveChannelMask: f.ActiveChannels,
			Codec:             wireCodec,
		},
		Timestamp: s.timestampFor(f, s.audioAdapter),
		Payload:   payload,
	}
	s.broadcast(wf)
	return nil
}

func (s *Sender) sendMetadata(f media.OutboundFrame) error {
	wf := &wire.Frame{Kind: wire.Metadata, Payload: f.Data}
	s.broadcast(wf)
	return nil
}

func (s *Sender) timestampFor(f media.OutboundFrame, adapter *clock.Adapter) uint32 {
	if f.TimestampOverride != 0 {
		return uint32(f.TimestampOverride)
	}
	return adapter.Next()
}

// highestQuality returns the highest suggested-quality hint currently
// reported by any connected channel, used to pick an encoder profile
// (spec §3: "the sender consults the highest hint received across all
// channels to pick an encoder profile").
func (s *Sender) highestQuality() metadata.Quality {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var max metadata.Quality
	for ch := range s.channels {
		if q := ch.Quality(); q > max {
			max = q
		}
	}
	return max
}

func profileForQuality(q metadata.Quality) string {
	switch q {
	case metadata.QualityLow:
		return "low"
	case metadata.QualityMedium:
		return "medium"
	case metadata.QualityHigh:
		return "high"
	default:
		return "default"
	}
}

func qualityPercent(q metadata.Quality) int {
	switch q {
	case metadata.QualityLow:
		return 25
	case metadata.QualityMedium:
		return 60
	case metadata.QualityHigh:
		return 100
	default:
		return 0
	}
}

func (s *Sender) broadcast(f *wire.Frame) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.channels {
		if _, err := ch.Send(f); err != nil {
			s.logger.Warn("broadcast send failed", "error", err)
		}
	}
}

func codecByName(name string) (wire.Codec, bool) {
	switch name {
	case "vmx1":
		return wire.CodecVMX1, true
	case "av1":
		return wire.CodecAV1, true
	case "opus":
		return wire.CodecOpus, true
	case "pcm":
		return wire.CodecPCMPlanarFloat, true
	default:
		return wire.CodecUnspecified, false
	}
}
