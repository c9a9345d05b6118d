// Copyright (c) 2025 Robert Clausecker <fuz@fuz.su>

package popcount

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/pkg/errors"
)

// Errors returned by the array entry points.  Returned errors carry
// additional context; use errors.Is to test for them.
var (
	// element type of the array does not match the entry point
	ErrTypeMismatch = errors.New("unsupported array element type")

	// array is not one-dimensional
	ErrInvalidShape = errors.New("xs must be a 1-D array")

	// array is not densely packed
	ErrUnexpectedLayout = errors.New("unexpected array layout")

	// arrow array has null entries that cannot be represented
	ErrNullValues = errors.New("array contains null values")

	// shape and strides reach past the end of the buffer
	ErrOutOfBounds = errors.New("array extends past its buffer")

	// requested kernel does not exist or does not run on this machine
	ErrUnknownKernel = errors.New("unknown or unavailable kernel")
)

func typeMismatch(op string, got arrow.DataType, want string) error {
	if got == nil {
		return errors.WithMessagef(ErrTypeMismatch, "%s: got nil array, want %s", op, want)
	}

	return errors.WithMessagef(ErrTypeMismatch, "%s: got %s, want %s", op, got.Name(), want)
}

func invalidShape(op string, ndim int) error {
	if ndim == 0 {
		return errors.WithMessagef(ErrInvalidShape, "%s: a scalar variable passed?", op)
	}

	return errors.WithMessagef(ErrInvalidShape, "%s: got %d dimensions", op, ndim)
}

func unexpectedLayout(op, which string, stride, size int) error {
	return errors.WithMessagef(ErrUnexpectedLayout, "%s: %s stride %d, element size %d", op, which, stride, size)
}

func shortOutput(op string, have, want int) error {
	return errors.WithMessagef(ErrUnexpectedLayout, "%s: output buffer holds %d bytes, want %d", op, have, want)
}

// short label for err, used in metrics
func reason(err error) string {
	switch {
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, ErrInvalidShape):
		return "invalid_shape"
	case errors.Is(err, ErrUnexpectedLayout):
		return "unexpected_layout"
	default:
		return "other"
	}
}
