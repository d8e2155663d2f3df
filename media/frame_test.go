package media

import "testing"

func TestFrameMetadataRoundTrip(t *testing.T) {
	t.Parallel()
	data := []byte("encoded-frame-bytes")
	meta := []byte("frame-metadata")

	wire := AppendFrameMetadata(data, meta)
	gotData, gotMeta := SplitFrameMetadata(wire)

	if string(gotData) != string(data) {
		t.Fatalf("data = %q, want %q", gotData, data)
	}
	if string(gotMeta) != string(meta) {
		t.Fatalf("meta = %q, want %q", gotMeta, meta)
	}
}

func TestFrameMetadataRoundTripEmpty(t *testing.T) {
	t.Parallel()
	data := []byte("encoded-frame-bytes")

	wire := AppendFrameMetadata(data, nil)
	gotData, gotMeta := SplitFrameMetadata(wire)

	if string(gotData) != string(data) {
		t.Fatalf("data = %q, want %q", gotData, data)
	}
	if len(gotMeta) != 0 {
		t.Fatalf("meta = %q, want empty", gotMeta)
	}
}

func TestSplitFrameMetadataTooShortIsUnmodified(t *testing.T) {
	t.Parallel()
	payload := []byte{0x01, 0x02}

	data, meta := SplitFrameMetadata(payload)
	if string(data) != string(payload) {
		t.Fatalf("data = %v, want unmodified payload", data)
	}
	if meta != nil {
		t.Fatalf("meta = %v, want nil", meta)
	}
}
