// Package transport wraps quic-go with the QUIC binding this protocol
// fixes as normative (spec §6): ALPN "omt", a default UDP port with a
// dynamic fallback range, and the application error codes used for stream
// aborts and connection close.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/omtransport/omt/certs"
)

// ALPN is the application-layer protocol negotiation literal this
// transport identifies itself with.
const ALPN = "omt"

// DefaultPort and the dynamic range a Listen call scans through when the
// default is unavailable (spec §6).
const (
	DefaultPort  = 6400
	DynamicPortLo = 6400
	DynamicPortHi = 6600
)

// Error codes applied to stream aborts and connection closes. "OMT" ASCII
// forms the low 24 bits of the stream-abort code; the connection-close
// code appends a zero byte.
const (
	StreamAbortCode      quic.StreamErrorCode     = 0x4F4D54
	ConnectionCloseCode  quic.ApplicationErrorCode = 0x4F4D5400
)

// quicConfig is shared by Listen and Dial; a 30s idle timeout matches the
// teacher's WebTransport server configuration.
func quicConfig() *quic.Config {
	return &quic.Config{MaxIdleTimeout: 30 * time.Second}
}

func tlsConfig(cert *certs.CertInfo) *tls.Config {
	cfg := &tls.Config{NextProtos: []string{ALPN}}
	if cert != nil {
		cfg.Certificates = []tls.Certificate{cert.TLSCert}
	}
	return cfg
}

// Listen opens a QUIC listener on addr ("host:port"). If port is 0, it
// scans the dynamic range [DynamicPortLo, DynamicPortHi] for a free port,
// returning a Configuration error if the whole range is exhausted (spec
// §7: "Configuration (port range exhausted...) | Fatal to sender
// construction; surface to caller").
func Listen(ctx context.Context, host string, port int, cert *certs.CertInfo) (*quic.Listener, error) {
	if cert == nil {
		var err error
		cert, err = certs.Generate(0, host)
		if err != nil {
			return nil, fmt.Errorf("transport: generating self-signed certificate: %w", err)
		}
	}

	if port != 0 {
		return listenOn(fmt.Sprintf("%s:%d", host, port), cert)
	}

	for p := DynamicPortLo; p <= DynamicPortHi; p++ {
		ln, err := listenOn(fmt.Sprintf("%s:%d", host, p), cert)
		if err == nil {
			return ln, nil
		}
	}
	return nil, fmt.Errorf("transport: no free port in range %d-%d", DynamicPortLo, DynamicPortHi)
}

func listenOn(addr string, cert *certs.CertInfo) (*quic.Listener, error) {
	return quic.ListenAddr(addr, tlsConfig(cert), quicConfig())
}

// Dial connects to a sender at addr.
func Dial(ctx context.Context, addr string, insecureSkipVerify bool) (quic.Connection, error) {
	cfg := &tls.Config{NextProtos: []string{ALPN}, InsecureSkipVerify: insecureSkipVerify}
	return quic.DialAddr(ctx, addr, cfg, quicConfig())
}
