package channel

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/omtransport/omt/framepool"
	"github.com/omtransport/omt/wire"
)

func newTestChannel(t *testing.T) (*Channel, net.Conn) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() { serverConn.Close(); clientConn.Close() })

	pool := framepool.New(8, 256, wire.CapVideo, true)
	ch := New(Config{
		Stream:        serverConn,
		Pool:          pool,
		FrameReady:    make(chan struct{}, 1),
		MetadataReady: make(chan struct{}, 1),
	})
	return ch, clientConn
}

func TestSendRejectedByEmptyMask(t *testing.T) {
	t.Parallel()
	ch, _ := newTestChannel(t)

	f := &wire.Frame{Kind: wire.Video, Payload: []byte("frame")}
	n, err := ch.Send(f)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if n != 0 {
		t.Fatalf("n = %d, want 0 for unsubscribed kind", n)
	}
}

func TestSendSucceedsAfterSubscribe(t *testing.T) {
	t.Parallel()
	ch, clientConn := newTestChannel(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go ch.Run(ctx)

	subscribe := &wire.Frame{Kind: wire.Metadata, Payload: []byte("<SubscribeVideo/>")}
	buf, err := wire.Encode(subscribe)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := clientConn.Write(buf); err != nil {
		t.Fatalf("client write: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for ch.Subscription() == wire.MaskNone {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for subscription to apply")
		case <-time.After(time.Millisecond):
		}
	}

	// net.Pipe has no buffering: drain the peer so Send's write completes.
	go io.Copy(io.Discard, clientConn)

	f := &wire.Frame{Kind: wire.Video, Payload: []byte("frame-payload")}
	n, err := ch.Send(f)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if n != f.WireLen() {
		t.Fatalf("n = %d, want %d", n, f.WireLen())
	}
}

func TestProcessControlAbsorbsTally(t *testing.T) {
	t.Parallel()
	ch, clientConn := newTestChannel(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go ch.Run(ctx)

	doc := &wire.Frame{Kind: wire.Metadata, Payload: []byte("<TallyPreviewProgram/>")}
	buf, err := wire.Encode(doc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := clientConn.Write(buf); err != nil {
		t.Fatalf("client write: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		tally := ch.Tally()
		if tally.Preview && tally.Program {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for tally to apply")
		case <-time.After(time.Millisecond):
		}
	}

	select {
	case <-ch.Events().Wait():
		ev, ok := ch.Events().pop()
		if !ok || ev.Kind != TallyChanged {
			t.Fatalf("event = %+v, ok=%v, want TallyChanged", ev, ok)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for TallyChanged event")
	}
}

func TestUnrecognizedMetadataIsEnqueuedForConsumer(t *testing.T) {
	t.Parallel()
	ch, clientConn := newTestChannel(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go ch.Run(ctx)

	itemStream := []byte{0xFD, 0x06, 0x00, 0x02, 0x00, 0x01, 0x00} // tally item, not control XML
	doc := &wire.Frame{Kind: wire.Metadata, Payload: itemStream}
	buf, err := wire.Encode(doc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := clientConn.Write(buf); err != nil {
		t.Fatalf("client write: %v", err)
	}

	select {
	case <-ch.metadataReady:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for metadata-ready signal")
	}

	frame, release, ok := ch.PopMetadata()
	if !ok {
		t.Fatal("expected a queued metadata frame")
	}
	defer release()
	if len(frame.Payload) != len(itemStream) || frame.Payload[0] != 0xFD {
		t.Fatalf("payload = % X, want typed-metadata item stream", frame.Payload)
	}
}

func TestEmptyMetadataPayloadDisconnects(t *testing.T) {
	t.Parallel()
	ch, clientConn := newTestChannel(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan struct{})
	go func() { ch.Run(ctx); close(done) }()

	doc := &wire.Frame{Kind: wire.Metadata, Payload: nil}
	buf, err := wire.Encode(doc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := clientConn.Write(buf); err != nil {
		t.Fatalf("client write: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Run to return on empty metadata payload")
	}

	select {
	case <-ch.Events().Wait():
		ev, ok := ch.Events().pop()
		if !ok || ev.Kind != Disconnected {
			t.Fatalf("event = %+v, ok=%v, want Disconnected", ev, ok)
		}
	default:
		t.Fatal("expected a Disconnected event to be queued")
	}
}

func TestDisconnectedEventRaisedOnEOF(t *testing.T) {
	t.Parallel()
	ch, clientConn := newTestChannel(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan struct{})
	go func() { ch.Run(ctx); close(done) }()

	clientConn.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Run to return")
	}

	select {
	case <-ch.Events().Wait():
		ev, ok := ch.Events().pop()
		if !ok || ev.Kind != Disconnected {
			t.Fatalf("event = %+v, ok=%v, want Disconnected", ev, ok)
		}
	default:
		t.Fatal("expected a Disconnected event to be queued")
	}
}
