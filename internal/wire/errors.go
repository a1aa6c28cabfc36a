package wire

import "errors"

// Sentinel errors describing malformed untagged wire data. Callers in
// package krpc wrap these as ErrKindEncoding.
var (
	errTruncated   = errors.New("wire: truncated buffer")
	errInvalidUTF8 = errors.New("wire: invalid UTF-8")
)

// IsTruncated reports whether err indicates a short/truncated buffer.
func IsTruncated(err error) bool {
	return errors.Is(err, errTruncated)
}

// IsInvalidUTF8 reports whether err indicates an invalid UTF-8 string.
func IsInvalidUTF8(err error) bool {
	return errors.Is(err, errInvalidUTF8)
}
