package receiver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/omtransport/omt/channel"
	"github.com/omtransport/omt/framepool"
	"github.com/omtransport/omt/media"
	"github.com/omtransport/omt/wire"
)

func newTestReceiver(t *testing.T) (*Receiver, net.Conn, net.Conn) {
	t.Helper()
	videoServer, videoClient := net.Pipe()
	audioServer, audioClient := net.Pipe()
	t.Cleanup(func() {
		videoServer.Close()
		videoClient.Close()
		audioServer.Close()
		audioClient.Close()
	})

	pool := func() *framepool.Pool { return framepool.New(8, 256, wire.CapVideo, true) }
	videoCh := channel.New(channel.Config{
		Stream: videoServer, Pool: pool(),
		FrameReady: make(chan struct{}, 1), MetadataReady: make(chan struct{}, 1),
	})
	audioCh := channel.New(channel.Config{
		Stream: audioServer, Pool: pool(),
		FrameReady: make(chan struct{}, 1), MetadataReady: make(chan struct{}, 1),
	})

	r := &Receiver{videoMeta: videoCh, audio: audioCh}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go videoCh.Run(ctx)
	go audioCh.Run(ctx)

	// No subscription is sent: the tests write frames directly on the
	// wire, and the mask only gates outbound ch.Send.
	return r, videoClient, audioClient
}

func writeFrame(t *testing.T, conn net.Conn, f *wire.Frame) {
	t.Helper()
	buf, err := wire.Encode(f)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := conn.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestReceivePrefersVideoOverAudioOverMetadata(t *testing.T) {
	t.Parallel()
	r, videoClient, audioClient := newTestReceiver(t)

	writeFrame(t, audioClient, &wire.Frame{Kind: wire.Audio, Payload: []byte("audio-1")})
	writeFrame(t, videoClient, &wire.Frame{
		Kind: wire.Metadata, Payload: []byte{0xFD, 0x06, 0x00, 0x02, 0x00, 0x01, 0x00},
	})
	writeFrame(t, videoClient, &wire.Frame{
		Kind: wire.Video, Video: wire.VideoExt{Width: 4, Height: 2}, Payload: []byte("video-1"),
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		if r.videoMeta.Subscription() == wire.MaskNone {
			// nothing to wait on; frames land in queues regardless of mask,
			// mask only gates outbound Send.
		}
		f1, ok := r.Receive(100 * time.Millisecond)
		if ok {
			if f1.Kind != media.Video {
				t.Fatalf("first frame kind = %v, want video", f1.Kind)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for first frame")
		}
	}

	f2, ok := r.Receive(2 * time.Second)
	if !ok || f2.Kind != media.Audio {
		t.Fatalf("second frame = %+v, ok=%v, want audio", f2, ok)
	}

	f3, ok := r.Receive(2 * time.Second)
	if !ok || f3.Kind != media.Metadata {
		t.Fatalf("third frame = %+v, ok=%v, want metadata", f3, ok)
	}
	if len(f3.Metadata.Items) != 1 || f3.Metadata.Items[0].Type != 0x0006 {
		t.Fatalf("metadata items = %+v, want one tally item", f3.Metadata.Items)
	}
}

func TestReceiveTimesOutWithNoFrames(t *testing.T) {
	t.Parallel()
	r, _, _ := newTestReceiver(t)

	_, ok := r.Receive(50 * time.Millisecond)
	if ok {
		t.Fatal("expected Receive to time out with no frames pending")
	}
}

func TestReceiveDecodesControlXMLMetadata(t *testing.T) {
	t.Parallel()
	r, videoClient, _ := newTestReceiver(t)

	writeFrame(t, videoClient, &wire.Frame{Kind: wire.Metadata, Payload: []byte("<Unrecognized/>")})

	f, ok := r.Receive(2 * time.Second)
	if !ok || f.Kind != media.Metadata {
		t.Fatalf("frame = %+v, ok=%v, want metadata", f, ok)
	}
	if f.Metadata.XML != "<Unrecognized/>" {
		t.Fatalf("XML = %q, want literal document", f.Metadata.XML)
	}
}
