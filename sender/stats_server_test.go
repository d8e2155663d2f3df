package sender

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/omtransport/omt/certs"
)

func TestHandleStatsReportsConnectedChannels(t *testing.T) {
	t.Parallel()
	s := New(Config{})
	ch, _ := newConnectedChannel(t)
	s.mu.Lock()
	s.channels[ch] = struct{}{}
	s.mu.Unlock()

	cert, err := certs.Generate(0, "127.0.0.1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	ss := NewStatsServer(":0", s, cert)

	req := httptest.NewRequest("GET", "/stats", nil)
	rec := httptest.NewRecorder()
	ss.handleStats(rec, req)

	var got []channelStatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
}

func TestHandleCertHashReportsFingerprint(t *testing.T) {
	t.Parallel()
	cert, err := certs.Generate(0, "127.0.0.1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	ss := NewStatsServer(":4490", New(Config{}), cert)

	req := httptest.NewRequest("GET", "/cert-hash", nil)
	rec := httptest.NewRecorder()
	ss.handleCertHash(rec, req)

	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["hash"] != cert.FingerprintBase64() {
		t.Fatalf("hash = %q, want %q", got["hash"], cert.FingerprintBase64())
	}
	if got["addr"] != ":4490" {
		t.Fatalf("addr = %q, want :4490", got["addr"])
	}
}
