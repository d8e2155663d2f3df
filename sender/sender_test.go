package sender

import (
	"net"
	"testing"
	"time"

	"github.com/omtransport/omt/channel"
	"github.com/omtransport/omt/framepool"
	"github.com/omtransport/omt/media"
	"github.com/omtransport/omt/wire"
)

func newConnectedChannel(t *testing.T) (*channel.Channel, net.Conn) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() { serverConn.Close(); clientConn.Close() })

	pool := framepool.New(8, 256, wire.CapVideo, true)
	ch := channel.New(channel.Config{
		Stream:        serverConn,
		Pool:          pool,
		FrameReady:    make(chan struct{}, 1),
		MetadataReady: make(chan struct{}, 1),
	})
	return ch, clientConn
}

func TestSendMetadataBroadcastsToAllChannels(t *testing.T) {
	t.Parallel()
	s := New(Config{})

	ch, clientConn := newConnectedChannel(t)
	s.mu.Lock()
	s.channels[ch] = struct{}{}
	s.mu.Unlock()

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, wire.HeaderSize+5)
		n, _ := clientConn.Read(buf)
		done <- buf[:n]
	}()

	if err := s.Send(media.OutboundFrame{Kind: media.Metadata, Data: []byte("<x/>")}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-done:
		if len(got) != wire.HeaderSize+4 {
			t.Fatalf("received %d bytes, want %d", len(got), wire.HeaderSize+4)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast frame")
	}
}

func TestSendWithNoChannelsIsANoop(t *testing.T) {
	t.Parallel()
	s := New(Config{})
	if err := s.Send(media.OutboundFrame{Kind: media.Video, Compressed: true, Data: []byte("x")}); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestCodecByName(t *testing.T) {
	t.Parallel()
	if c, ok := codecByName("vmx1"); !ok || c != wire.CodecVMX1 {
		t.Fatalf("codecByName(vmx1) = %v, %v", c, ok)
	}
	if _, ok := codecByName("unknown-codec"); ok {
		t.Fatal("expected unknown codec name to report ok=false")
	}
}
