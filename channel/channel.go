// Package channel implements the per-connection channel state machine
// (spec §4.4): outbound sends gated by a subscription mask, an inbound
// receive loop that parses wire frames and absorbs control documents, and
// the tally/quality/redirect/statistics state a sender or receiver
// exposes to its owner.
package channel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/quic-go/quic-go"

	"github.com/omtransport/omt/framepool"
	"github.com/omtransport/omt/metadata"
	"github.com/omtransport/omt/transport"
	"github.com/omtransport/omt/wire"
)

// metadataQueueCap bounds the metadata ready queue; beyond this the
// oldest pending item is dropped (spec §5: "Metadata queues cap at a
// small fixed bound (≈128) with oldest-drop").
const metadataQueueCap = 128

// Stream is the minimal transport surface a Channel needs: ordered,
// reliable byte read/write plus a way to tear the connection down. A QUIC
// stream satisfies this directly; tests can supply a net.Pipe() half or an
// in-memory implementation.
type Stream interface {
	io.Reader
	io.Writer
	Close() error
}

// Canceler is implemented by streams that support aborting with an
// application error code instead of a plain close; a quic.Stream
// satisfies this directly. Run uses it, when available, to reset the
// stream rather than close it gracefully on teardown.
type Canceler interface {
	CancelWrite(quic.StreamErrorCode)
	CancelRead(quic.StreamErrorCode)
}

// ready wraps a parsed frame together with the pooled buffer backing its
// payload, so the consumer can return the buffer once done.
type ready struct {
	frame *wire.Frame
	buf   *framepool.Buffer
}

// Channel is one logical bidirectional stream: a subscription-gated
// outbound path and a single-goroutine inbound receive loop.
type Channel struct {
	stream Stream
	pool   *framepool.Pool
	logger *slog.Logger

	frameReady    chan struct{}
	metadataReady chan struct{}
	events        *eventQueue

	sendMu sync.Mutex

	mu           sync.Mutex
	subscription wire.Mask
	tally        metadata.Tally
	preview      bool
	quality      metadata.Quality
	senderInfo   metadata.SenderInfo
	redirect     string

	frameQueueMu sync.Mutex
	frameQueue   []ready

	metadataQueueMu sync.Mutex
	metadataQueue   []ready

	Stats Stats

	disconnectOnce sync.Once
}

// Config supplies the resources a Channel needs from its owner: the
// transport stream, the frame pool backing inbound frames, and the two
// signal handles the owner waits on (spec §4.4: "two signal handles
// (frame-ready, metadata-ready) supplied by the owner").
type Config struct {
	Stream        Stream
	Pool          *framepool.Pool
	FrameReady    chan struct{}
	MetadataReady chan struct{}
	Logger        *slog.Logger
}

// New constructs a Channel with an empty subscription mask and no tally.
func New(cfg Config) *Channel {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{
		stream:        cfg.Stream,
		pool:          cfg.Pool,
		logger:        logger.With("component", "channel"),
		frameReady:    cfg.FrameReady,
		metadataReady: cfg.MetadataReady,
		events:        newEventQueue(),
	}
}

// Events returns the channel's event queue, for the owner to drain.
func (c *Channel) Events() *eventQueue { return c.events }

// FrameReadySignal returns the signal channel the owner waits on for
// non-metadata frame arrivals.
func (c *Channel) FrameReadySignal() <-chan struct{} { return c.frameReady }

// MetadataReadySignal returns the signal channel the owner waits on for
// metadata frame arrivals.
func (c *Channel) MetadataReadySignal() <-chan struct{} { return c.metadataReady }

// Subscription returns the current outbound subscription mask.
func (c *Channel) Subscription() wire.Mask {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscription
}

// Tally returns the current tally state.
func (c *Channel) Tally() metadata.Tally {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tally
}

// Preview returns the current preview flag.
func (c *Channel) Preview() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview
}

// Quality returns the current suggested-quality hint.
func (c *Channel) Quality() metadata.Quality {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quality
}

// SenderInfo returns the last received sender-info record.
func (c *Channel) SenderInfo() metadata.SenderInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.senderInfo
}

// Redirect returns the last recorded redirect address, or "" if none.
func (c *Channel) Redirect() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirect
}

// Send serializes f and writes it to the transport if the channel's
// subscription mask permits it. It returns the number of bytes written —
// zero if the frame was rejected by the mask or exceeded the kind's
// payload cap — and a non-nil error only for a transport-level write
// failure (spec §4.4).
func (c *Channel) Send(f *wire.Frame) (int, error) {
	if f.Kind != wire.Metadata && !c.Subscription().Has(f.Kind) {
		return 0, nil
	}

	c.mu.Lock()
	f.PreviewMode = c.preview
	c.mu.Unlock()

	if f.WireLen() > wire.CapForKind(f.Kind) {
		c.Stats.addDropped()
		return 0, nil
	}

	buf := make([]byte, f.WireLen())
	if _, err := wire.EncodeInto(buf, f); err != nil {
		return 0, err
	}

	c.sendMu.Lock()
	n, err := c.stream.Write(buf)
	c.sendMu.Unlock()
	if err != nil {
		return n, err
	}

	c.Stats.addSent(1, uint64(n))
	return n, nil
}

// Run drives the inbound receive loop until ctx is canceled or the stream
// reaches EOF. It always raises exactly one Disconnected event and closes
// the stream before returning (spec §4.4, spec §5's cancellation
// cascade: "each channel cancels its inbound task and closes the
// stream").
func (c *Channel) Run(ctx context.Context) {
	defer c.disconnect()
	defer c.closeStream()

	var header [wire.HeaderSize]byte
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := io.ReadFull(c.stream, header[:])
		if err != nil {
			if errors.Is(err, io.EOF) && n == 0 {
				return // clean shutdown
			}
			c.logger.Warn("inbound read failed", "error", err)
			return
		}

		h, err := wire.ReadHeader(header[:], 0)
		if err != nil {
			c.logger.Warn("header decode failed", "error", err)
			return
		}

		rest := int(h.ExtLen) + int(h.PayloadLen)

		buf := c.pool.Acquire()
		if buf == nil {
			if rest > 0 {
				if _, err := io.CopyN(io.Discard, c.stream, int64(rest)); err != nil {
					c.logger.Warn("failed to drain oversubscribed frame", "error", err)
					return
				}
			}
			c.Stats.addDropped()
			continue
		}

		total := wire.HeaderSize + rest
		if err := c.pool.Grow(buf, total); err != nil {
			c.pool.Release(buf)
			c.logger.Warn("frame exceeds pool cap", "error", err)
			return
		}
		copy(buf.Data[:wire.HeaderSize], header[:])
		if rest > 0 {
			if _, err := io.ReadFull(c.stream, buf.Data[wire.HeaderSize:total]); err != nil {
				c.pool.Release(buf)
				c.logger.Warn("inbound body read failed", "error", err)
				return
			}
		}

		frame, err := wire.ReadExtendedAndPayload(buf.Data, 0, h)
		if err != nil {
			c.pool.Release(buf)
			c.logger.Warn("frame decode failed", "error", err)
			return
		}

		absorbed, err := c.processControl(frame)
		if err != nil {
			c.pool.Release(buf)
			c.logger.Warn("metadata frame rejected", "error", err)
			return
		}
		if absorbed {
			c.pool.Release(buf)
			continue
		}

		c.Stats.addReceived(1, uint64(total))
		r := ready{frame: frame, buf: buf}
		if frame.Kind == wire.Metadata {
			c.enqueueMetadata(r)
			signal(c.metadataReady)
		} else {
			c.enqueueFrame(r)
			signal(c.frameReady)
		}
	}
}

func (c *Channel) enqueueFrame(r ready) {
	c.frameQueueMu.Lock()
	c.frameQueue = append(c.frameQueue, r)
	c.frameQueueMu.Unlock()
}

func (c *Channel) enqueueMetadata(r ready) {
	c.metadataQueueMu.Lock()
	if len(c.metadataQueue) >= metadataQueueCap {
		dropped := c.metadataQueue[0]
		c.pool.Release(dropped.buf)
		c.metadataQueue = c.metadataQueue[1:]
	}
	c.metadataQueue = append(c.metadataQueue, r)
	c.metadataQueueMu.Unlock()
}

// PopFrame dequeues the oldest completed non-metadata frame, returning the
// frame and a release function the consumer must call once done reading
// its payload.
func (c *Channel) PopFrame() (*wire.Frame, func(), bool) {
	c.frameQueueMu.Lock()
	defer c.frameQueueMu.Unlock()
	if len(c.frameQueue) == 0 {
		return nil, nil, false
	}
	r := c.frameQueue[0]
	c.frameQueue = c.frameQueue[1:]
	return r.frame, func() { c.pool.Release(r.buf) }, true
}

// PopMetadata dequeues the oldest completed metadata frame.
func (c *Channel) PopMetadata() (*wire.Frame, func(), bool) {
	c.metadataQueueMu.Lock()
	defer c.metadataQueueMu.Unlock()
	if len(c.metadataQueue) == 0 {
		return nil, nil, false
	}
	r := c.metadataQueue[0]
	c.metadataQueue = c.metadataQueue[1:]
	return r.frame, func() { c.pool.Release(r.buf) }, true
}

func (c *Channel) disconnect() {
	c.disconnectOnce.Do(func() {
		c.events.push(ChannelEvent{Kind: Disconnected})
	})
}

// closeStream tears down the transport stream. A stream that supports
// app-error-coded cancellation (a QUIC stream) is reset with
// transport.StreamAbortCode rather than closed gracefully, since Run only
// reaches here on EOF, a decode failure, or context cancellation.
func (c *Channel) closeStream() {
	if canceler, ok := c.stream.(Canceler); ok {
		canceler.CancelWrite(transport.StreamAbortCode)
		canceler.CancelRead(transport.StreamAbortCode)
		return
	}
	if err := c.stream.Close(); err != nil {
		c.logger.Debug("stream close failed", "error", err)
	}
}

func signal(ch chan struct{}) {
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}
