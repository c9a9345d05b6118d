// Copyright (c) 2025 Robert Clausecker <fuz@fuz.su>

package popcount

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"
)

// FromArrow returns a 1-D array viewing the values of the integer
// arrow array arr.  The result holds a reference on the value buffer
// of arr; release it when done.
//
// Arrow arrays with nulls cannot be viewed.  For int32 arrays the
// values are copied instead and each null becomes NAInt32.  Nulls in
// arrays of other types are an error.
func FromArrow(arr arrow.Array) (*Array, error) {
	if arr == nil {
		return nil, typeMismatch("from_arrow", nil, wantInteger)
	}

	dtype, ok := arr.DataType().(arrow.FixedWidthDataType)
	if !ok || !isInteger(arr.DataType().ID()) {
		return nil, typeMismatch("from_arrow", arr.DataType(), wantInteger)
	}

	if arr.NullN() > 0 {
		ints, ok := arr.(*array.Int32)
		if !ok {
			return nil, errors.WithMessagef(ErrNullValues, "from_arrow: %d nulls in %s array", arr.NullN(), dtype.Name())
		}

		values := make([]int32, ints.Len())
		for i := range values {
			if ints.IsNull(i) {
				values[i] = NAInt32
			} else {
				values[i] = ints.Value(i)
			}
		}

		return FromInt32s(values), nil
	}

	size := dtype.BitWidth() / 8
	data := arr.Data()
	buf := data.Buffers()[1]
	if buf == nil {
		buf = memory.NewBufferBytes(nil)
	}
	buf.Retain()

	return &Array{
		dtype:   dtype,
		shape:   []int{arr.Len()},
		strides: []int{size},
		offset:  data.Offset() * size,
		buf:     buf,
	}, nil
}

// ToArrow returns an arrow array holding the values of the dense 1-D
// array a.  The arrow array shares memory with a.  In int32 arrays,
// NAInt32 elements become nulls.  It panics if a has been released.
func (a *Array) ToArrow() (arrow.Array, error) {
	if err := checkLayout(entryToArrow, a); err != nil {
		return nil, err
	}

	n := a.Len()
	nulls := 0
	var validity *memory.Buffer
	if a.dtype.ID() == arrow.INT32 {
		var bitmap []byte
		for i, v := range a.Int32s() {
			if v != NAInt32 {
				continue
			}

			if bitmap == nil {
				bitmap = make([]byte, bitutil.BytesForBits(int64(n)))
				bitutil.SetBitsTo(bitmap, 0, int64(n), true)
			}

			bitutil.ClearBit(bitmap, i)
			nulls++
		}

		if bitmap != nil {
			validity = memory.NewBufferBytes(bitmap)
		}
	}

	values := memory.SliceBuffer(a.buf, a.offset, n*a.elemSize())
	defer values.Release()

	data := array.NewData(a.dtype, n, []*memory.Buffer{validity, values}, nil, nulls, 0)
	defer data.Release()

	return array.MakeFromData(data), nil
}
