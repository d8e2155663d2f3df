package wire

// EncodeInto serializes f as header+extended-header+payload into buf
// starting at offset 0, returning the number of bytes written. buf must be
// at least f.WireLen() bytes.
func EncodeInto(buf []byte, f *Frame) (int, error) {
	if err := WriteHeader(buf, 0, f); err != nil {
		return 0, err
	}
	payloadOffset := HeaderSize + int(ExtHeaderLen(f.Kind))
	if _, err := WritePayload(buf, f, payloadOffset); err != nil {
		return 0, err
	}
	return f.WireLen(), nil
}

// Encode allocates a new buffer and serializes f into it in one call. It is
// the convenience counterpart to EncodeInto for callers that don't hold a
// pooled buffer already sized for this frame.
func Encode(f *Frame) ([]byte, error) {
	buf := make([]byte, f.WireLen())
	if _, err := EncodeInto(buf, f); err != nil {
		return nil, err
	}
	return buf, nil
}
