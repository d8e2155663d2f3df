// Command omt-sender runs a standalone sender: it listens for receiver
// connections and broadcasts synthetic frames at a fixed rate, for
// interoperability testing against real receivers.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/omtransport/omt/media"
	"github.com/omtransport/omt/sender"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	host := envOr("OMT_HOST", "0.0.0.0")
	port, _ := strconv.Atoi(envOr("OMT_PORT", "0"))
	statsAddr := envOr("OMT_STATS_ADDR", ":4490")

	s := sender.New(sender.Config{
		Host:      host,
		Port:      port,
		StatsAddr: statsAddr,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	go generateTestPattern(ctx, s)

	if err := <-errCh; err != nil {
		slog.Error("sender error", "error", err)
		os.Exit(1)
	}
}

// generateTestPattern sends a steady stream of solid-color video frames
// and silent audio frames, standing in for a real capture/encode pipeline
// until one is wired up by the operator.
func generateTestPattern(ctx context.Context, s *sender.Sender) {
	const width, height = 1280, 720
	frame := make([]byte, width*height*3/2) // I420

	videoTick := time.NewTicker(time.Second / 30)
	defer videoTick.Stop()
	audioTick := time.NewTicker(time.Second / 48)
	defer audioTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-videoTick.C:
			_ = s.Send(media.OutboundFrame{
				Kind: media.Video, Width: width, Height: height,
				FrameRateNum: 30, FrameRateDen: 1,
				Compressed: true, CodecName: "vmx1", Data: frame,
			})
		case <-audioTick.C:
			_ = s.Send(media.OutboundFrame{
				Kind: media.Audio, SampleRate: 48000, Channels: 2, SamplesPerChan: 1000,
				Compressed: true, CodecName: "pcm", Data: make([]byte, 1000*2*4),
			})
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
