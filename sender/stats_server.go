package sender

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	"github.com/omtransport/omt/certs"
)

// StatsServer exposes a small HTTP/3 JSON API for operator tooling: per-
// channel statistics and the sender's certificate fingerprint, mirroring
// the debug surface a deployed sender needs even though the wire protocol
// itself (spec.md) says nothing about it.
type StatsServer struct {
	sender *Sender
	cert   *certs.CertInfo
	addr   string

	srv *http3.Server
}

// NewStatsServer constructs a StatsServer bound to addr (e.g. ":4490"),
// reporting on s and serving cert's fingerprint at /cert-hash.
func NewStatsServer(addr string, s *Sender, cert *certs.CertInfo) *StatsServer {
	return &StatsServer{sender: s, cert: cert, addr: addr}
}

// Start runs the HTTP/3 server until ctx is canceled.
func (ss *StatsServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", ss.handleStats)
	mux.HandleFunc("/cert-hash", ss.handleCertHash)

	ss.srv = &http3.Server{
		Addr:    ss.addr,
		Handler: mux,
		TLSConfig: &tls.Config{
			Certificates: []tls.Certificate{ss.cert.TLSCert},
		},
		QUICConfig: &quic.Config{
			MaxIdleTimeout: 30 * time.Second,
		},
	}

	stop := context.AfterFunc(ctx, func() { ss.srv.Close() })
	defer stop()

	err := ss.srv.ListenAndServe()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

type channelStatsResponse struct {
	FramesSent        uint64 `json:"framesSent"`
	BytesSent         uint64 `json:"bytesSent"`
	FramesReceived    uint64 `json:"framesReceived"`
	BytesReceived     uint64 `json:"bytesReceived"`
	FramesDropped     uint64 `json:"framesDropped"`
	DeltaFramesSent   uint64 `json:"deltaFramesSent"`
	DeltaBytesSent    uint64 `json:"deltaBytesSent"`
	DeltaFramesRecv   uint64 `json:"deltaFramesReceived"`
	DeltaBytesRecv    uint64 `json:"deltaBytesReceived"`
	DeltaFramesDropped uint64 `json:"deltaFramesDropped"`
}

func (ss *StatsServer) handleStats(w http.ResponseWriter, r *http.Request) {
	ss.sender.mu.RLock()
	out := make([]channelStatsResponse, 0, len(ss.sender.channels))
	for ch := range ss.sender.channels {
		snap := ch.Stats.Snapshot()
		out = append(out, channelStatsResponse{
			FramesSent:         snap.FramesSent,
			BytesSent:          snap.BytesSent,
			FramesReceived:     snap.FramesReceived,
			BytesReceived:      snap.BytesReceived,
			FramesDropped:      snap.FramesDropped,
			DeltaFramesSent:    snap.DeltaFramesSent,
			DeltaBytesSent:     snap.DeltaBytesSent,
			DeltaFramesRecv:    snap.DeltaFramesReceived,
			DeltaBytesRecv:     snap.DeltaBytesReceived,
			DeltaFramesDropped: snap.DeltaFramesDropped,
		})
	}
	ss.sender.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (ss *StatsServer) handleCertHash(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"hash": ss.cert.FingerprintBase64(),
		"addr": ss.addr,
	})
}
