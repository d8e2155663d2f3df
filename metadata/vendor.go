package metadata

import (
	"bytes"
	"errors"

	"github.com/quic-go/quic-go/quicvarint"
)

// IsVendorType reports whether t falls in the vendor-assignable range
// (spec §4.3: 0x8000-0xFFFE is reserved for vendor extensions, as opposed
// to the fixed-width reserved types and 0xFFFF custom XML).
func IsVendorType(t Type) bool {
	return t >= 0x8000 && t < 0xFFFF
}

// ErrVendorFieldTruncated is returned by DecodeVendorFields when a field's
// declared length runs past the end of the buffer.
var ErrVendorFieldTruncated = errors.New("metadata: vendor field truncated")

// VendorField is one tag/value pair within a vendor item's payload. Unlike
// the outer item stream (whose u16-length-prefixed framing is fixed by the
// wire format), a vendor item's internal structure is the vendor's own
// choice; this package offers a varint-framed tag/length/value encoding —
// the same variable-length integer quic-go uses on the wire — as a
// convenient default for vendors that want sub-structure without
// hand-rolling one.
type VendorField struct {
	Tag   uint64
	Value []byte
}

// EncodeVendorFields packs fields into a vendor item's Payload using
// QUIC-style variable-length integers for the tag and length of each
// field.
func EncodeVendorFields(fields []VendorField) []byte {
	size := 0
	for _, f := range fields {
		size += quicvarint.Len(f.Tag) + quicvarint.Len(uint64(len(f.Value))) + len(f.Value)
	}
	buf := make([]byte, 0, size)
	for _, f := range fields {
		buf = quicvarint.Append(buf, f.Tag)
		buf = quicvarint.Append(buf, uint64(len(f.Value)))
		buf = append(buf, f.Value...)
	}
	return buf
}

// DecodeVendorFields unpacks a buffer built by EncodeVendorFields.
func DecodeVendorFields(buf []byte) ([]VendorField, error) {
	r := bytes.NewReader(buf)
	var fields []VendorField
	for r.Len() > 0 {
		tag, err := quicvarint.Read(r)
		if err != nil {
			return nil, ErrVendorFieldTruncated
		}
		length, err := quicvarint.Read(r)
		if err != nil {
			return nil, ErrVendorFieldTruncated
		}
		if uint64(r.Len()) < length {
			return nil, ErrVendorFieldTruncated
		}
		value := make([]byte, length)
		if _, err := r.Read(value); err != nil {
			return nil, ErrVendorFieldTruncated
		}
		fields = append(fields, VendorField{Tag: tag, Value: value})
	}
	return fields, nil
}
