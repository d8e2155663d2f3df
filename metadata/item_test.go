package metadata

import (
	"bytes"
	"testing"
)

func TestTimecodeWireBytes(t *testing.T) {
	t.Parallel()
	tc := Timecode{Hour: 10, Minute: 20, Second: 30, Frame: 15, DropFrame: true, Rate: FrameRate30}

	buf, err := EncodeItems([]Item{tc.Item()})
	if err != nil {
		t.Fatalf("EncodeItems: %v", err)
	}
	want := []byte{0xFD, 0x01, 0x00, 0x05, 0x00, 0x0A, 0x14, 0x1E, 0x0F, 0x11}
	if !bytes.Equal(buf, want) {
		t.Fatalf("wire bytes = % X, want % X", buf, want)
	}

	items, err := DecodeItems(buf)
	if err != nil {
		t.Fatalf("DecodeItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	got, err := DecodeTimecode(items[0].Payload)
	if err != nil {
		t.Fatalf("DecodeTimecode: %v", err)
	}
	if got != tc {
		t.Fatalf("decoded = %+v, want %+v", got, tc)
	}
}

func TestTallyWireBytes(t *testing.T) {
	t.Parallel()
	tally := Tally{Preview: true, Program: false}

	buf, err := EncodeItems([]Item{tally.Item()})
	if err != nil {
		t.Fatalf("EncodeItems: %v", err)
	}
	want := []byte{0xFD, 0x06, 0x00, 0x02, 0x00, 0x01, 0x00}
	if !bytes.Equal(buf, want) {
		t.Fatalf("wire bytes = % X, want % X", buf, want)
	}
}

func TestSCTE104Payload(t *testing.T) {
	t.Parallel()
	s := SCTE104{Op: 0, SpliceEventID: 0xDEADBEEF, PTSOffset: 0x00010000, AutoReturn: 1}
	payload := s.Encode()
	want := []byte{0x00, 0xEF, 0xBE, 0xAD, 0xDE, 0x00, 0x00, 0x01, 0x00, 0x01}
	if !bytes.Equal(payload, want) {
		t.Fatalf("payload = % X, want % X", payload, want)
	}

	got, err := DecodeSCTE104(payload)
	if err != nil {
		t.Fatalf("DecodeSCTE104: %v", err)
	}
	if got != s {
		t.Fatalf("decoded = %+v, want %+v", got, s)
	}
}

func TestAFDBarRoundTrip(t *testing.T) {
	t.Parallel()
	a := AFDBar{AFD: 8, Aspect: 1, BarTop: 140, BarBottom: 940}
	got, err := DecodeAFDBar(a.Encode())
	if err != nil {
		t.Fatalf("DecodeAFDBar: %v", err)
	}
	if got != a {
		t.Fatalf("decoded = %+v, want %+v", got, a)
	}
}

func TestAppendItemRequiresExistingMagic(t *testing.T) {
	t.Parallel()
	if _, err := AppendItem([]byte("not a stream"), Tally{}.Item()); err != ErrNotItemStream {
		t.Fatalf("err = %v, want ErrNotItemStream", err)
	}
}

func TestAppendItemGrowsExistingStream(t *testing.T) {
	t.Parallel()
	buf, err := EncodeItems([]Item{Tally{Preview: true}.Item()})
	if err != nil {
		t.Fatalf("EncodeItems: %v", err)
	}
	buf, err = AppendItem(buf, Timecode{Hour: 1, Rate: FrameRate25}.Item())
	if err != nil {
		t.Fatalf("AppendItem: %v", err)
	}
	items, err := DecodeItems(buf)
	if err != nil {
		t.Fatalf("DecodeItems: %v", err)
	}
	if len(items) != 2 || items[0].Type != TypeTally || items[1].Type != TypeTimecode {
		t.Fatalf("items = %+v, want [Tally, Timecode]", items)
	}
}

func TestFirstReturnsWireOrderMatch(t *testing.T) {
	t.Parallel()
	items := []Item{Tally{Preview: true}.Item(), Tally{Program: true}.Item()}
	got, ok := First(items, TypeTally)
	if !ok {
		t.Fatal("expected a match")
	}
	tally, err := DecodeTally(got.Payload)
	if err != nil {
		t.Fatalf("DecodeTally: %v", err)
	}
	if !tally.Preview || tally.Program {
		t.Fatalf("expected first (preview-only) tally, got %+v", tally)
	}
}

func TestEncodeItemsRejectsEmptyPayload(t *testing.T) {
	t.Parallel()
	if _, err := EncodeItems([]Item{{Type: TypeTally, Payload: nil}}); err != ErrEmptyPayload {
		t.Fatalf("err = %v, want ErrEmptyPayload", err)
	}
}

func TestIsItemStreamVsControlXML(t *testing.T) {
	t.Parallel()
	buf, _ := EncodeItems([]Item{Tally{}.Item()})
	if !IsItemStream(buf) {
		t.Fatal("expected item stream to be detected")
	}
	if IsItemStream([]byte(DocSubscribeVideo)) {
		t.Fatal("control XML should not be detected as an item stream")
	}
	if !IsControlXML([]byte(DocSubscribeVideo)) {
		t.Fatal("expected control XML to be detected")
	}
}
