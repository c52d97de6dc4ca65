// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package errors

import (
	"fmt"
	"reflect"
	"strings"

	"go.e43.eu/m3da/pdu"
)

type xerror string

func (e xerror) Error() string {
	return string(e)
}

const (
	// Opcode byte not claimed by any kind in the active context, or not
	// claimed by the kind expected at this position
	ErrInvalidOpcode = xerror("bysant: Invalid opcode for context")

	// Typed list or map named a context id without an opcode table, or a
	// caller asked to encode into one
	ErrUnsupportedContext = xerror("bysant: Unsupported context")

	// Go value has no encoding in the requested context (e.g. a float in
	// UINTS_AND_STRS)
	ErrUnsupportedValue = xerror("bysant: Value unsupported in context")

	// Value has an encoding in the context, but not for this magnitude
	// (e.g. a negative unsigned int)
	ErrValueOutOfRange = xerror("bysant: Value out of range")

	// List or map larger than its largest tier
	ErrLengthExceedsMax = xerror("bysant: Length exceeds largest tier")

	// Bytes still held by the accumulator when no more are expected
	ErrTrailingBytes = xerror("bysant: Trailing bytes in accumulator: incomplete transmission?")

	// A top level value other than an Envelope was found in an envelope stream
	ErrNotEnvelope = xerror("bysant: Expected envelope")

	// Envelope decoder called again before its last envelope was consumed
	ErrAlreadyUsed = xerror("bysant: Envelope decoder already used, create a new one for the session")

	// Text field is not valid UTF-8
	ErrInvalidUTF8 = xerror("bysant: Invalid UTF-8 in text field")

	// Decoded value of the right kind but unusable for its field (e.g. a
	// non-numeric vector element, a fractional status)
	ErrInvalidValue = xerror("bysant: Invalid value for field")

	// Input ended inside a value. Only used between the decoder and its
	// accumulator; callers never see it.
	ErrShortBuffer = xerror("bysant: Buffer underrun")

	// Cipher or HMAC name which is not part of the protocol
	ErrUnknownAlgorithm = xerror("m3da: Unknown algorithm")

	// Size and write passes disagreed. Never expected; indicates a bug.
	ErrSizeMismatch = xerror("bysant: Encoded size does not match computed size")
)

// OpcodeError reports an opcode which is not valid where it was read
type OpcodeError struct {
	Opcode  byte
	Context pdu.Context

	// Kind is the kind expected at this position, or empty when any value
	// was acceptable
	Kind string
}

func (e OpcodeError) Is(target error) bool {
	return target == ErrInvalidOpcode
}

func (e OpcodeError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%s (0x%02x in %s)", ErrInvalidOpcode, e.Opcode, e.Context)
	}
	return fmt.Sprintf("%s (0x%02x is not a %s opcode in %s)", ErrInvalidOpcode, e.Opcode, e.Kind, e.Context)
}

// ContextError reports a context id without an opcode table
type ContextError struct {
	ID byte
}

func (e ContextError) Is(target error) bool {
	return target == ErrUnsupportedContext
}

func (e ContextError) Error() string {
	return fmt.Sprintf("%s (%s)", ErrUnsupportedContext, pdu.Context(e.ID))
}

type InvalidTypeError struct {
	T       reflect.Type
	Context pdu.Context
}

func (e InvalidTypeError) Is(target error) bool {
	return target == ErrUnsupportedValue
}

func (e InvalidTypeError) Error() string {
	return fmt.Sprintf("bysant: Type '%s' unsupported in %s", e.T, e.Context)
}

type RangeError struct {
	Value   interface{}
	Context pdu.Context
}

func (e RangeError) Is(target error) bool {
	return target == ErrValueOutOfRange
}

func (e RangeError) Error() string {
	return fmt.Sprintf("%s (%v in %s)", ErrValueOutOfRange, e.Value, e.Context)
}

// AlgorithmError reports an unknown cipher or HMAC name
type AlgorithmError struct {
	Kind string
	Name string
}

func (e AlgorithmError) Is(target error) bool {
	return target == ErrUnknownAlgorithm
}

func (e AlgorithmError) Error() string {
	return fmt.Sprintf("%s (%s %q)", ErrUnknownAlgorithm, e.Kind, e.Name)
}

type LengthError struct {
	Actual, Max uint64
}

func (err LengthError) Is(target error) bool {
	return target == ErrLengthExceedsMax && err.Actual > err.Max
}

func (err LengthError) Error() string {
	return fmt.Sprintf("%s (%d > %d)", ErrLengthExceedsMax, err.Actual, err.Max)
}

// UnexpectedValueError reports a decoded value which was not expected where
// it was found
type UnexpectedValueError struct {
	Expected error
	Value    interface{}
}

func (e UnexpectedValueError) Unwrap() error {
	return e.Expected
}

func (e UnexpectedValueError) Error() string {
	return fmt.Sprintf("%s (found %T)", e.Expected, e.Value)
}

type FieldError struct {
	Underlying error
	Path       string
}

func (err FieldError) Unwrap() error {
	return err.Underlying
}

func (err FieldError) Error() string {
	uerr := strings.TrimPrefix(err.Underlying.Error(), "bysant: ")
	return fmt.Sprintf("bysant: %s (at %s)", uerr, err.Path)
}

// WithFieldError annotates err with the position it occurred at. Parts are
// joined with dots; nested calls prepend the outer position.
func WithFieldError(err error, parts ...string) error {
	if err == nil {
		return nil
	}

	switch {
	case len(parts) == 0:
		parts = []string{"<anonymous>"}
	case parts[0] == "":
		parts[0] = "<anonymous>"
	}
	combined := strings.Join(parts, ".")

	switch err := err.(type) {
	case FieldError:
		err.Path = fmt.Sprintf("%s %s", combined, err.Path)
		return err
	default:
		return FieldError{err, combined}
	}
}
