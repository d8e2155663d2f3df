// Package metadata implements the typed-metadata item stream and the
// control-XML document set embedded in Metadata-kind frames (spec §4.3,
// §4.4). An item stream is distinguished from a plain UTF-8 control
// document by its leading 0xFD magic byte — XML documents always start
// with '<'.
package metadata

import (
	"encoding/binary"
	"errors"
)

// ItemMagic is the leading byte of a typed-metadata item stream.
const ItemMagic = 0xFD

// Reserved item type IDs (spec §4.3).
const (
	TypeTimecode Type = 0x0001
	TypeCEA608   Type = 0x0002
	TypeCEA708   Type = 0x0003
	TypeSCTE104  Type = 0x0004
	TypeAFDBar   Type = 0x0005
	TypeTally    Type = 0x0006
	TypeCustomXML Type = 0xFFFF
)

// Type identifies a typed-metadata item's payload format.
type Type uint16

// Errors returned by the item codec.
var (
	ErrNotItemStream = errors.New("metadata: buffer is not a typed-metadata item stream")
	ErrTruncated     = errors.New("metadata: item stream truncated")
	ErrEmptyPayload  = errors.New("metadata: item payload must not be empty")
)

// Item is one entry in a typed-metadata item stream: a type ID, and its
// opaque payload bytes.
type Item struct {
	Type    Type
	Payload []byte
}

// EncodeItems serializes items as a magic-prefixed item stream.
func EncodeItems(items []Item) ([]byte, error) {
	size := 1
	for _, it := range items {
		if len(it.Payload) == 0 {
			return nil, ErrEmptyPayload
		}
		size += 4 + len(it.Payload)
	}
	buf := make([]byte, size)
	buf[0] = ItemMagic
	off := 1
	for _, it := range items {
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(it.Type))
		binary.LittleEndian.PutUint16(buf[off+2:off+4], uint16(len(it.Payload)))
		off += 4
		off += copy(buf[off:], it.Payload)
	}
	return buf, nil
}

// AppendItem appends an item to an existing item-stream buffer known to
// already begin with the magic byte, per the writer contract in spec §4.3
// ("append an item without magic when an existing buffer is known to begin
// with one").
func AppendItem(buf []byte, it Item) ([]byte, error) {
	if len(it.Payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(buf) == 0 || buf[0] != ItemMagic {
		return nil, ErrNotItemStream
	}
	head := make([]byte, 4)
	binary.LittleEndian.PutUint16(head[0:2], uint16(it.Type))
	binary.LittleEndian.PutUint16(head[2:4], uint16(len(it.Payload)))
	buf = append(buf, head...)
	buf = append(buf, it.Payload...)
	return buf, nil
}

// DecodeItems parses a magic-prefixed item stream into its constituent
// items.
func DecodeItems(buf []byte) ([]Item, error) {
	if len(buf) == 0 || buf[0] != ItemMagic {
		return nil, ErrNotItemStream
	}
	var items []Item
	off := 1
	for off < len(buf) {
		if len(buf)-off < 4 {
			return nil, ErrTruncated
		}
		typ := Type(binary.LittleEndian.Uint16(buf[off : off+2]))
		plen := int(binary.LittleEndian.Uint16(buf[off+2 : off+4]))
		off += 4
		if len(buf)-off < plen {
			return nil, ErrTruncated
		}
		if plen == 0 {
			return nil, ErrEmptyPayload
		}
		items = append(items, Item{Type: typ, Payload: buf[off : off+plen]})
		off += plen
	}
	return items, nil
}

// First returns the first item of the requested type encountered in wire
// order, matching the reader contract in spec §4.3.
func First(items []Item, t Type) (Item, bool) {
	for _, it := range items {
		if it.Type == t {
			return it, true
		}
	}
	return Item{}, false
}

// IsItemStream reports whether buf looks like a typed-metadata item
// stream rather than a UTF-8 control document.
func IsItemStream(buf []byte) bool {
	return len(buf) > 0 && buf[0] == ItemMagic
}
