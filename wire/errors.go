package wire

import "errors"

// Decode errors per spec §4.1 and §7. These are fatal to the channel that
// produced them — the caller is expected to disconnect, not retry.
var (
	ErrMagicMismatch  = errors.New("wire: magic mismatch")
	ErrUnknownKind    = errors.New("wire: unknown frame kind")
	ErrLengthOverflow = errors.New("wire: declared length exceeds payload cap for kind")
	ErrShortBuffer    = errors.New("wire: buffer too short for operation")
)
