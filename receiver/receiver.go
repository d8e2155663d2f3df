// Package receiver implements the connect-subscribe-poll half of the
// transport (spec §4.6): it opens a video+metadata stream and a separate
// audio stream against a sender, subscribes each, and exposes a single
// receive(timeout) call that polls both channels' ready queues in
// priority order.
package receiver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/omtransport/omt/channel"
	"github.com/omtransport/omt/codec"
	"github.com/omtransport/omt/framepool"
	"github.com/omtransport/omt/media"
	"github.com/omtransport/omt/metadata"
	"github.com/omtransport/omt/transport"
	"github.com/omtransport/omt/wire"
)

// Config configures a Receiver.
type Config struct {
	Addr               string // sender address, "host:port"
	InsecureSkipVerify bool
	PreviewVideo       bool

	PoolSize       int
	InitialBufSize int
	MaxBufSize     int

	NewVideoDecoder codec.NewVideoDecoder

	Logger *slog.Logger
}

func (c *Config) setDefaults() {
	if c.PoolSize == 0 {
		c.PoolSize = 32
	}
	if c.InitialBufSize == 0 {
		c.InitialBufSize = 64 << 10
	}
	if c.MaxBufSize == 0 {
		c.MaxBufSize = wire.CapVideo
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Frame is the tagged union Receive returns: exactly one of Video, Audio,
// or Metadata is set, matching f.Kind.
type Frame struct {
	Kind     media.Kind
	Video    *media.VideoFrame
	Audio    *media.AudioFrame
	Metadata *media.MetadataFrame
}

// Receiver holds the two channels (video+metadata, audio) that make up
// one subscription to a sender.
type Receiver struct {
	cfg    Config
	logger *slog.Logger

	videoMeta *channel.Channel
	audio     *channel.Channel

	decoders *codec.VideoDecoderCache
}

// Connect dials addr, opens both streams, subscribes them, and starts
// each channel's inbound loop under ctx.
func Connect(ctx context.Context, cfg Config) (*Receiver, error) {
	cfg.setDefaults()
	logger := cfg.Logger.With("component", "receiver")

	conn, err := transport.Dial(ctx, cfg.Addr, cfg.InsecureSkipVerify)
	if err != nil {
		return nil, fmt.Errorf("receiver: dial: %w", err)
	}

	videoMetaStream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("receiver: open video+metadata stream: %w", err)
	}
	audioStream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("receiver: open audio stream: %w", err)
	}

	r := &Receiver{
		cfg:      cfg,
		logger:   logger,
		decoders: codec.NewVideoDecoderCache(cfg.NewVideoDecoder),
	}

	r.videoMeta = newChannel(cfg, videoMetaStream, logger)
	r.audio = newChannel(cfg, audioStream, logger)

	go r.videoMeta.Run(ctx)
	go r.audio.Run(ctx)

	if err := subscribe(r.videoMeta, metadata.DocSubscribeVideo); err != nil {
		return nil, err
	}
	if err := subscribe(r.videoMeta, metadata.DocSubscribeMetadata); err != nil {
		return nil, err
	}
	if cfg.PreviewVideo {
		if err := subscribe(r.videoMeta, metadata.DocPreviewVideoOn); err != nil {
			return nil, err
		}
	}
	if err := subscribe(r.audio, metadata.DocSubscribeAudio); err != nil {
		return nil, err
	}

	return r, nil
}

func newChannel(cfg Config, stream channel.Stream, logger *slog.Logger) *channel.Channel {
	pool := framepool.New(cfg.PoolSize, cfg.InitialBufSize, cfg.MaxBufSize, true)
	return channel.New(channel.Config{
		Stream:        stream,
		Pool:          pool,
		FrameReady:    make(chan struct{}, 1),
		MetadataReady: make(chan struct{}, 1),
		Logger:        logger,
	})
}

func subscribe(ch *channel.Channel, doc string) error {
	_, err := ch.Send(&wire.Frame{Kind: wire.Metadata, Payload: []byte(doc)})
	return err
}

// VideoChannel returns the combined video+metadata channel, for callers
// that need its event queue or statistics directly.
func (r *Receiver) VideoChannel() *channel.Channel { return r.videoMeta }

// AudioChannel returns the audio channel.
func (r *Receiver) AudioChannel() *channel.Channel { return r.audio }

// Receive polls the per-kind ready queues in priority order (video,
// audio, metadata), waiting up to timeout if nothing is immediately
// available (spec §4.6).
func (r *Receiver) Receive(timeout time.Duration) (*Frame, bool) {
	if f, ok := r.tryDequeue(); ok {
		return f, true
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-r.videoMeta.FrameReadySignal():
		case <-r.audio.FrameReadySignal():
		case <-r.videoMeta.MetadataReadySignal():
		case <-deadline.C:
			return nil, false
		}
		if f, ok := r.tryDequeue(); ok {
			return f, true
		}
	}
}

func (r *Receiver) tryDequeue() (*Frame, bool) {
	if wf, release, ok := r.videoMeta.PopFrame(); ok {
		defer release()
		return r.decodeVideo(wf), true
	}
	if wf, release, ok := r.audio.PopFrame(); ok {
		defer release()
		return decodeAudio(wf), true
	}
	if wf, release, ok := r.videoMeta.PopMetadata(); ok {
		defer release()
		return decodeMetadata(wf), true
	}
	if wf, release, ok := r.audio.PopMetadata(); ok {
		defer release()
		return decodeMetadata(wf), true
	}
	return nil, false
}

func (r *Receiver) decodeVideo(wf *wire.Frame) *Frame {
	data, frameMeta := media.SplitFrameMetadata(wf.Payload)
	out := &media.VideoFrame{
		Width:         int(wf.Video.Width),
		Height:        int(wf.Video.Height),
		FrameRateNum:  wf.Video.FrameRateNum,
		FrameRateDen:  wf.Video.FrameRateDen,
		Colorspace:    media.Colorspace(wf.Video.Colorspace),
		Flags:         media.VideoFlags(wf.Video.Flags),
		Timestamp:     int64(wf.Timestamp),
		Data:          data,
		FrameMetadata: frameMeta,
	}

	if r.decoders != nil && r.cfg.NewVideoDecoder != nil {
		key := codec.VideoKey{
			Codec: wf.Codec, Width: wf.Video.Width, Height: wf.Video.Height,
			FPSNum: wf.Video.FrameRateNum, FPSDen: wf.Video.FrameRateDen, Colorspace: wf.Video.Colorspace,
		}
		if dec, err := r.decoders.Get(key); err == nil {
			dst := make([]byte, int(wf.Video.Width)*int(wf.Video.Height)*4)
			if ok, err := dec.Decode(codec.ImageI420, data, dst, int(wf.Video.Width)); err == nil && ok {
				out.Data = dst
			}
		}
	}
	return &Frame{Kind: media.Video, Video: out}
}

func decodeAudio(wf *wire.Frame) *Frame {
	data, frameMeta := media.SplitFrameMetadata(wf.Payload)
	out := &media.AudioFrame{
		SampleRate:     wf.Audio.SampleRate,
		Channels:       wf.Audio.Channels,
		SamplesPerChan: wf.Audio.SamplesPerChannel,
		Timestamp:      int64(wf.Timestamp),
		Data:           data,
		FrameMetadata:  frameMeta,
	}
	return &Frame{Kind: media.Audio, Audio: out}
}

func decodeMetadata(wf *wire.Frame) *Frame {
	out := &media.MetadataFrame{Timestamp: int64(wf.Timestamp)}
	if metadata.IsItemStream(wf.Payload) {
		items, err := metadata.DecodeItems(wf.Payload)
		if err == nil {
			out.Items = items
		}
	} else {
		out.XML = string(wf.Payload)
	}
	return &Frame{Kind: media.Metadata, Metadata: out}
}
