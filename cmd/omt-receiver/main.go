// Command omt-receiver connects to a sender and logs every frame it
// receives, for interoperability testing against real senders.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/omtransport/omt/media"
	"github.com/omtransport/omt/receiver"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	addr := envOr("OMT_SENDER_ADDR", "127.0.0.1:6400")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	r, err := receiver.Connect(ctx, receiver.Config{
		Addr:               addr,
		InsecureSkipVerify: true,
		PreviewVideo:       os.Getenv("OMT_PREVIEW") != "",
	})
	if err != nil {
		slog.Error("connect failed", "error", err)
		os.Exit(1)
	}

	slog.Info("connected", "addr", addr)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		f, ok := r.Receive(2 * time.Second)
		if !ok {
			continue
		}
		switch f.Kind {
		case media.Video:
			slog.Info("video frame", "width", f.Video.Width, "height", f.Video.Height, "bytes", len(f.Video.Data))
		case media.Audio:
			slog.Info("audio frame", "sample_rate", f.Audio.SampleRate, "channels", f.Audio.Channels)
		case media.Metadata:
			slog.Info("metadata frame", "items", len(f.Metadata.Items), "xml", f.Metadata.XML)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
