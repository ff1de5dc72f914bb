package wire

import "github.com/AdguardTeam/golibs/errors"

// Decode error kinds, see spec.md §4.1 and §7.  Callers should compare
// against these with [errors.Is]; [DecodeError] wraps the sentinel with
// positional context via [errors.Annotate].
const (
	// ErrTooShort means the packet or a header within it was shorter than
	// its fixed-size fields require.
	ErrTooShort errors.Error = "too short"

	// ErrTruncatedOption means an option's declared length ran past the end
	// of the body.
	ErrTruncatedOption errors.Error = "truncated option"

	// ErrBadLength means an option's value length did not match what its
	// type requires (not a multiple of the element size, or an enumerated
	// value out of range).
	ErrBadLength errors.Error = "bad option length"

	// ErrUnknownMandatory means an option marked mandatory by a preceding
	// MANDATORY pseudo-option was not recognised.
	ErrUnknownMandatory errors.Error = "unknown mandatory option"

	// ErrExpired means a reply header's freshness triple indicated the data
	// is no longer valid.
	ErrExpired errors.Error = "expired"

	// ErrInconsistentTimes means origin > expires in a reply header.
	ErrInconsistentTimes errors.Error = "inconsistent times"

	// ErrBadMagic means the packet's magic/version bytes did not match.
	ErrBadMagic errors.Error = "bad magic or version"
)

// ErrBufferFull is returned by [Writer] methods and the encoder when the
// destination buffer does not have room for the next appended value.
const ErrBufferFull errors.Error = "buffer full"

// DecodeError wraps a decode error sentinel with the byte offset at which
// it was detected.
type DecodeError struct {
	// Err is one of the Err* sentinels in this package.
	Err error

	// Offset is the byte offset into the body at which decoding failed.
	Offset int
}

// Error implements the error interface for *DecodeError.
func (e *DecodeError) Error() (s string) {
	return errors.Annotate(e.Err, "decoding wire format at offset %d: %w", e.Offset).Error()
}

// Unwrap returns the wrapped sentinel so that [errors.Is] works.
func (e *DecodeError) Unwrap() (err error) {
	return e.Err
}

// newDecodeError returns a *DecodeError for sentinel err at offset off.
func newDecodeError(err error, off int) (de *DecodeError) {
	return &DecodeError{Err: err, Offset: off}
}
