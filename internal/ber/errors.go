package ber

import (
	"errors"
	"fmt"
)

// Decoder errors
var (
	// ErrUnexpectedEOF is returned when the input ends inside an element.
	ErrUnexpectedEOF = errors.New("ber: unexpected end of data")

	// ErrTruncatedType is returned when no identifier octet can be read.
	ErrTruncatedType = errors.New("ber: truncated type octet")

	// ErrTruncatedLength is returned when the length octets are cut short.
	ErrTruncatedLength = errors.New("ber: truncated length octets")

	// ErrInvalidLength is returned when a length value is malformed.
	ErrInvalidLength = errors.New("ber: invalid length encoding")

	// ErrIndefiniteLength is returned for the 0x80 indefinite length form.
	ErrIndefiniteLength = errors.New("ber: indefinite length not supported")

	// ErrElementTooLarge is returned when a declared length exceeds the
	// configured maximum element size.
	ErrElementTooLarge = errors.New("ber: element exceeds maximum size")

	// ErrValueLength is returned when fewer value octets are available than
	// the length declares.
	ErrValueLength = errors.New("ber: value shorter than declared length")

	// ErrContainerOverrun is returned when an element extends past the end of
	// the enclosing sequence or set.
	ErrContainerOverrun = errors.New("ber: element crosses container boundary")

	// ErrNoContainer is returned by an end call with no open container.
	ErrNoContainer = errors.New("ber: no open sequence or set")

	// ErrTrailingData is returned when bytes follow a complete element.
	ErrTrailingData = errors.New("ber: trailing data after element")

	// ErrInvalidBoolean is returned when a boolean value has invalid length.
	ErrInvalidBoolean = errors.New("ber: invalid boolean encoding")

	// ErrInvalidInteger is returned when an integer value is malformed.
	ErrInvalidInteger = errors.New("ber: invalid integer encoding")

	// ErrInvalidNull is returned when a null value has non-zero length.
	ErrInvalidNull = errors.New("ber: invalid null encoding")

	// ErrTagMismatch is returned when the expected tag does not match.
	ErrTagMismatch = errors.New("ber: tag mismatch")
)

// DecodeError provides detailed information about a decoding failure.
type DecodeError struct {
	Offset  int    // Byte offset where the error occurred
	Message string // Human-readable error description
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ber: decode error at offset %d: %s: %v", e.Offset, e.Message, e.Err)
	}
	return fmt.Sprintf("ber: decode error at offset %d: %s", e.Offset, e.Message)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError creates a new DecodeError.
func NewDecodeError(offset int, message string, err error) *DecodeError {
	return &DecodeError{Offset: offset, Message: message, Err: err}
}

// TagMismatchError reports an identifier that differs from the expected one.
type TagMismatchError struct {
	Offset         int
	ExpectedClass  int
	ExpectedNumber int
	ActualClass    int
	ActualNumber   int
	Constructed    bool
}

// Error implements the error interface.
func (e *TagMismatchError) Error() string {
	return fmt.Sprintf("ber: tag mismatch at offset %d: expected class=%#x number=%d, got class=%#x number=%d constructed=%t",
		e.Offset, e.ExpectedClass, e.ExpectedNumber, e.ActualClass, e.ActualNumber, e.Constructed)
}

// Is allows TagMismatchError to match ErrTagMismatch with errors.Is.
func (e *TagMismatchError) Is(target error) bool {
	return target == ErrTagMismatch
}

// Encoder errors
var (
	ErrInvalidTagClass  = errors.New("ber: invalid tag class")
	ErrInvalidTagNumber = errors.New("ber: invalid tag number")
	ErrLengthOverflow   = errors.New("ber: length does not fit in four octets")
	ErrNegativeLength   = errors.New("ber: negative length")
	ErrOpenContainer    = errors.New("ber: sequence or set still open")
)
