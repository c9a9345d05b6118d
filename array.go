// Copyright (c) 2025 Robert Clausecker <fuz@fuz.su>

package popcount

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"
)

// Array is an n-dimensional view of fixed-width values held in an
// arrow memory buffer.  The element type is given by an arrow data
// type, the layout by a shape and by strides counted in bytes.
//
// Arrays returned by this package are one-dimensional, densely packed,
// and own their buffer.  Call Release when done with them.
type Array struct {
	dtype   arrow.FixedWidthDataType
	shape   []int
	strides []int
	offset  int // byte offset of the first element
	buf     *memory.Buffer
}

// NewArray returns an array of the given element type viewing buf.
// A nil strides slice lays the array out densely in row-major order.
// Strides are in bytes and may be negative; the lowest address the
// array touches is then the start of buf.  An error is
// returned if shape and strides disagree or reach past buf.  The array
// takes a reference on buf which Release drops.
func NewArray(dtype arrow.FixedWidthDataType, buf *memory.Buffer, shape, strides []int) (*Array, error) {
	if dtype == nil || dtype.BitWidth() == 0 || dtype.BitWidth()%8 != 0 {
		return nil, typeMismatch("new", dtype, "a byte-sized fixed-width type")
	}

	size := dtype.BitWidth() / 8

	// the element count in bytes must fit an int, so Len and dense
	// strides cannot overflow
	count := size
	for _, n := range shape {
		if n < 0 {
			return nil, errors.WithMessagef(ErrInvalidShape, "new: negative extent %d", n)
		}

		if n > 1 && count > math.MaxInt/n {
			return nil, errors.WithMessagef(ErrOutOfBounds, "new: shape %v too large", shape)
		}

		if n > 1 {
			count *= n
		}
	}

	if strides == nil {
		strides = denseStrides(shape, size)
	}

	if len(strides) != len(shape) {
		return nil, errors.WithMessagef(ErrInvalidShape, "new: %d strides for %d dimensions", len(strides), len(shape))
	}

	// find the lowest byte offset and the span of bytes touched; span
	// stays at most math.MaxInt - size
	lo, span, empty := 0, 0, false
	for i, n := range shape {
		if n == 0 {
			empty = true
			continue
		}

		stride := strides[i]
		if stride == math.MinInt {
			return nil, errors.WithMessagef(ErrOutOfBounds, "new: stride %d", stride)
		}

		step := stride
		if step < 0 {
			step = -step
		}

		if step != 0 && n-1 > (math.MaxInt-size-span)/step {
			return nil, errors.WithMessagef(ErrOutOfBounds, "new: extent %d with stride %d too large", n, stride)
		}

		span += (n - 1) * step
		if stride < 0 {
			lo += (n - 1) * stride
		}
	}

	length := 0
	if buf != nil {
		length = buf.Len()
	}

	offset := -lo
	if !empty && span+size > length {
		return nil, errors.WithMessagef(ErrOutOfBounds, "new: need %d bytes, have %d", span+size, length)
	}

	if buf == nil {
		buf = memory.NewBufferBytes(nil)
	}
	buf.Retain()

	return &Array{
		dtype:   dtype,
		shape:   append([]int(nil), shape...),
		strides: append([]int(nil), strides...),
		offset:  offset,
		buf:     buf,
	}, nil
}

func denseStrides(shape []int, size int) []int {
	strides := make([]int, len(shape))
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = size
		size *= shape[i]
	}

	return strides
}

// a dense 1-D array viewing b
func wrapBytes(dtype arrow.FixedWidthDataType, b []byte, n int) *Array {
	return &Array{
		dtype:   dtype,
		shape:   []int{n},
		strides: []int{dtype.BitWidth() / 8},
		buf:     memory.NewBufferBytes(b),
	}
}

// The From functions return a dense 1-D array viewing xs without
// copying.  The package never writes to such an array.

func FromUint8s(xs []uint8) *Array {
	return wrapBytes(uint8Type, arrow.Uint8Traits.CastToBytes(xs), len(xs))
}

func FromUint16s(xs []uint16) *Array {
	return wrapBytes(uint16Type, arrow.Uint16Traits.CastToBytes(xs), len(xs))
}

func FromUint32s(xs []uint32) *Array {
	return wrapBytes(uint32Type, arrow.Uint32Traits.CastToBytes(xs), len(xs))
}

func FromUint64s(xs []uint64) *Array {
	return wrapBytes(uint64Type, arrow.Uint64Traits.CastToBytes(xs), len(xs))
}

func FromInt8s(xs []int8) *Array {
	return wrapBytes(int8Type, arrow.Int8Traits.CastToBytes(xs), len(xs))
}

func FromInt16s(xs []int16) *Array {
	return wrapBytes(int16Type, arrow.Int16Traits.CastToBytes(xs), len(xs))
}

func FromInt32s(xs []int32) *Array {
	return wrapBytes(int32Type, arrow.Int32Traits.CastToBytes(xs), len(xs))
}

func FromInt64s(xs []int64) *Array {
	return wrapBytes(int64Type, arrow.Int64Traits.CastToBytes(xs), len(xs))
}

// element types as fixed-width types
var (
	uint8Type  = arrow.PrimitiveTypes.Uint8.(arrow.FixedWidthDataType)
	uint16Type = arrow.PrimitiveTypes.Uint16.(arrow.FixedWidthDataType)
	uint32Type = arrow.PrimitiveTypes.Uint32.(arrow.FixedWidthDataType)
	uint64Type = arrow.PrimitiveTypes.Uint64.(arrow.FixedWidthDataType)
	int8Type   = arrow.PrimitiveTypes.Int8.(arrow.FixedWidthDataType)
	int16Type  = arrow.PrimitiveTypes.Int16.(arrow.FixedWidthDataType)
	int32Type  = arrow.PrimitiveTypes.Int32.(arrow.FixedWidthDataType)
	int64Type  = arrow.PrimitiveTypes.Int64.(arrow.FixedWidthDataType)
)

// allocate a dense 1-D array of n elements from mem
func allocate(mem memory.Allocator, dtype arrow.FixedWidthDataType, n int) *Array {
	size := dtype.BitWidth() / 8
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(n * size)

	return &Array{
		dtype:   dtype,
		shape:   []int{n},
		strides: []int{size},
		buf:     buf,
	}
}

// DataType returns the element type.
func (a *Array) DataType() arrow.DataType { return a.dtype }

// NDim returns the number of dimensions.  Scalars have none.
func (a *Array) NDim() int { return len(a.shape) }

// Shape returns the extent of each dimension.
func (a *Array) Shape() []int { return append([]int(nil), a.shape...) }

// Strides returns the distance in bytes between consecutive elements
// along each dimension.
func (a *Array) Strides() []int { return append([]int(nil), a.strides...) }

// Len returns the number of elements.  NewArray rejects shapes whose
// byte size overflows an int, so the product does not wrap.
func (a *Array) Len() int {
	n := 1
	for _, d := range a.shape {
		n *= d
	}

	return n
}

func (a *Array) elemSize() int { return a.dtype.BitWidth() / 8 }

// dense reports whether a is one-dimensional and densely packed.
func (a *Array) dense() bool {
	return len(a.shape) == 1 && a.strides[0] == a.elemSize()
}

// Bytes returns the memory of a dense 1-D array.  It panics for other
// arrays and for arrays that have been released.
func (a *Array) Bytes() []byte {
	if !a.dense() {
		panic("popcount: Bytes called on an array that is not dense and 1-D")
	}

	return a.buf.Bytes()[a.offset : a.offset+a.shape[0]*a.elemSize()]
}

func (a *Array) mustBe(id arrow.Type) {
	if a.dtype.ID() != id {
		panic("popcount: array of " + a.dtype.Name() + " accessed as " + id.String())
	}
}

// Uint8s returns the values of a dense 1-D uint8 array.
func (a *Array) Uint8s() []uint8 {
	a.mustBe(arrow.UINT8)
	return arrow.Uint8Traits.CastFromBytes(a.Bytes())
}

// Uint64s returns the values of a dense 1-D uint64 array.
func (a *Array) Uint64s() []uint64 {
	a.mustBe(arrow.UINT64)
	return arrow.Uint64Traits.CastFromBytes(a.Bytes())
}

// Int32s returns the values of a dense 1-D int32 array.
func (a *Array) Int32s() []int32 {
	a.mustBe(arrow.INT32)
	return arrow.Int32Traits.CastFromBytes(a.Bytes())
}

// Release drops the reference a holds on its buffer.  Arrays viewing
// Go slices hold none and need not be released.  The values of a
// released array must not be accessed again.
func (a *Array) Release() {
	if a.buf != nil {
		a.buf.Release()
		a.buf = nil
	}
}
