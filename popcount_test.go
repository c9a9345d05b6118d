// Copyright (c) 2025 Robert Clausecker <fuz@fuz.su>

package popcount

import (
	"math/rand"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a Counter whose allocations are checked for leaks when the test ends
func checkedCounter(t *testing.T, opts ...Option) *Counter {
	t.Helper()

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	t.Cleanup(func() { mem.AssertSize(t, 0) })

	c, err := New(append([]Option{WithAllocator(mem)}, opts...)...)
	require.NoError(t, err)

	return c
}

func TestUint8KnownValues(t *testing.T) {
	c := checkedCounter(t)

	tests := []struct {
		name string
		in   []uint8
		want []uint8
	}{
		{"empty", []uint8{}, []uint8{}},
		{"zero", []uint8{0}, []uint8{0}},
		{"full", []uint8{255}, []uint8{8}},
		{"vector", []uint8{0, 1, 2, 3, 6, 7, 254, 255}, []uint8{0, 1, 1, 2, 2, 3, 7, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := c.Uint8(FromUint8s(tt.in))
			require.NoError(t, err)
			defer out.Release()

			assert.Equal(t, arrow.UINT8, out.DataType().ID())
			assert.Equal(t, []int{len(tt.in)}, out.Shape())
			assert.Equal(t, []int{1}, out.Strides())
			assert.Equal(t, tt.want, append([]uint8{}, out.Uint8s()...))
		})
	}
}

func TestUint8AllValues(t *testing.T) {
	c := checkedCounter(t)

	const repeat = 1024
	in := make([]uint8, 256*repeat)
	for i := range in {
		in[i] = uint8(i / repeat)
	}

	out, err := c.Uint8(FromUint8s(in))
	require.NoError(t, err)
	defer out.Release()

	want := make([]uint8, len(in))
	refCount8(want, in)
	require.Equal(t, want, out.Uint8s())
}

func TestUint64KnownValues(t *testing.T) {
	c := checkedCounter(t)

	in := []uint64{
		0, 1, 0xfe, 0xff, 0x100, 0x101, 0xfffe, 0xffff,
		0x10000, 0x10001, 0xfffffffe, 0xffffffff,
		0x100000000, 0x100000001,
		0x3c3c3c3c3c3c3c3c, 0xc3c3c3c3c3c3c3c3,
		0xffffffffffffffff,
	}
	want := []uint8{0, 1, 7, 8, 1, 2, 15, 16, 1, 2, 31, 32, 1, 2, 32, 32, 64}

	out, err := c.Uint64(FromUint64s(in))
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, arrow.UINT8, out.DataType().ID())
	assert.Equal(t, want, out.Uint8s())
}

func TestUint64Monotonic(t *testing.T) {
	c := checkedCounter(t)

	var value uint64
	for count := 0; count <= 64; count++ {
		out, err := c.Uint64(FromUint64s([]uint64{value}))
		require.NoError(t, err)
		assert.Equal(t, []uint8{uint8(count)}, out.Uint8s(), "value %#x", value)
		out.Release()

		value = value<<1 | 1
	}
}

func TestUint64Empty(t *testing.T) {
	c := checkedCounter(t)

	out, err := c.Uint64(FromUint64s(nil))
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, 0, out.Len())
	assert.Equal(t, 1, out.NDim())
}

func TestInputUnchanged(t *testing.T) {
	c := checkedCounter(t)

	in := []uint64{1, 2, 3, ^uint64(0)}
	orig := append([]uint64(nil), in...)

	out, err := c.Uint64(FromUint64s(in))
	require.NoError(t, err)
	out.Release()

	assert.Equal(t, orig, in)
}

func TestInt32WithNA(t *testing.T) {
	c := checkedCounter(t)

	in := []int32{0, 1, 7, NAInt32, -1, -2, 0x7fffffff, NAInt32}
	want := []int32{0, 1, 3, NAInt32, 32, 31, 31, NAInt32}

	out, err := c.Int32WithNA(FromInt32s(in))
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, arrow.INT32, out.DataType().ID())
	assert.Equal(t, want, out.Int32s())
}

// the sentinel only has a meaning for int32
func TestNAOnlyForInt32(t *testing.T) {
	c := checkedCounter(t)

	_, err := c.Int32WithNA(FromUint8s([]uint8{1}))
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = c.Uint8(FromInt32s([]int32{NAInt32}))
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestTypeMismatch(t *testing.T) {
	c := checkedCounter(t)
	u16 := FromUint16s([]uint16{1, 2, 3})

	entries := map[string]func(*Array) (*Array, error){
		"uint8":    c.Uint8,
		"uint64":   c.Uint64,
		"int32_na": c.Int32WithNA,
		"count":    c.Count,
	}

	for name, entry := range entries {
		t.Run(name, func(t *testing.T) {
			out, err := entry(u16)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, ErrTypeMismatch), "got %v", err)

			_, err = entry(nil)
			assert.True(t, errors.Is(err, ErrTypeMismatch), "got %v", err)
		})
	}

	// no silent widening between the typed entry points
	_, err := c.Uint64(FromUint8s([]uint8{1}))
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	_, err = c.Uint8(FromUint64s([]uint64{1}))
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestInvalidShape(t *testing.T) {
	c := checkedCounter(t)

	buf := memory.NewBufferBytes(make([]byte, 6*8))

	matrix, err := NewArray(uint64Type, buf, []int{2, 3}, nil)
	require.NoError(t, err)
	_, err = c.Uint64(matrix)
	assert.True(t, errors.Is(err, ErrInvalidShape), "got %v", err)

	scalar, err := NewArray(uint64Type, buf, []int{}, nil)
	require.NoError(t, err)
	_, err = c.Uint64(scalar)
	assert.True(t, errors.Is(err, ErrInvalidShape), "got %v", err)
	assert.Contains(t, err.Error(), "scalar")

	// type is checked before shape
	_, err = c.Uint8(matrix)
	assert.True(t, errors.Is(err, ErrTypeMismatch), "got %v", err)
}

func TestUnexpectedLayout(t *testing.T) {
	c := checkedCounter(t)

	// every other element of a uint64 buffer
	buf := memory.NewBufferBytes(arrow.Uint64Traits.CastToBytes([]uint64{1, 0, 3, 0, 7, 0}))
	view, err := NewArray(uint64Type, buf, []int{3}, []int{16})
	require.NoError(t, err)

	_, err = c.Uint64(view)
	assert.True(t, errors.Is(err, ErrUnexpectedLayout), "got %v", err)

	// shape is checked before layout
	matrix, err := NewArray(uint64Type, buf, []int{1, 3}, []int{48, 16})
	require.NoError(t, err)
	_, err = c.Uint64(matrix)
	assert.True(t, errors.Is(err, ErrInvalidShape), "got %v", err)

	reversed, err := NewArray(uint64Type, buf, []int{6}, []int{-8})
	require.NoError(t, err)
	_, err = c.Uint64(reversed)
	assert.True(t, errors.Is(err, ErrUnexpectedLayout), "got %v", err)
}

// a 1-D view with a leading dimension of one is still rejected
func TestUnitDimension(t *testing.T) {
	c := checkedCounter(t)

	buf := memory.NewBufferBytes(make([]byte, 4))
	xs, err := NewArray(uint8Type, buf, []int{1, 4}, nil)
	require.NoError(t, err)

	_, err = c.Uint8(xs)
	assert.True(t, errors.Is(err, ErrInvalidShape))
}

func TestCount(t *testing.T) {
	c := checkedCounter(t)

	out, err := c.Count(FromUint8s([]uint8{2}))
	require.NoError(t, err)
	assert.Equal(t, []uint8{1}, out.Uint8s())
	out.Release()

	out, err = c.Count(FromUint64s([]uint64{0xffffffffffffffff}))
	require.NoError(t, err)
	assert.Equal(t, []uint8{64}, out.Uint8s())
	out.Release()

	_, err = c.Count(FromInt32s([]int32{1}))
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	buf := memory.NewBufferBytes(make([]byte, 4))
	matrix, err := NewArray(uint8Type, buf, []int{2, 2}, nil)
	require.NoError(t, err)
	_, err = c.Count(matrix)
	assert.True(t, errors.Is(err, ErrInvalidShape))

	// every other element of a uint64 buffer
	wide := memory.NewBufferBytes(arrow.Uint64Traits.CastToBytes([]uint64{1, 0, 3, 0}))
	view, err := NewArray(uint64Type, wide, []int{2}, []int{16})
	require.NoError(t, err)
	_, err = c.Count(view)
	assert.True(t, errors.Is(err, ErrUnexpectedLayout), "got %v", err)
}

func TestCountWidened(t *testing.T) {
	c := checkedCounter(t)

	tests := []struct {
		name string
		in   *Array
		want []uint8
	}{
		{"uint16", FromUint16s([]uint16{0x7fff, 0x8000, 0xffff}), []uint8{15, 1, 16}},
		{"uint32", FromUint32s([]uint32{0x7fffffff, 0x80000000, 0xffffffff}), []uint8{31, 1, 32}},
		{"uint64", FromUint64s([]uint64{^uint64(0)}), []uint8{64}},
		{"uint8", FromUint8s([]uint8{0xfc, 0x03, 0xfe}), []uint8{6, 2, 7}},
		{"int8", FromInt8s([]int8{-1, -2}), []uint8{64, 63}},
		{"int16", FromInt16s([]int16{-4, -8}), []uint8{62, 61}},
		{"int32", FromInt32s([]int32{-16, -32}), []uint8{60, 59}},
		{"int64", FromInt64s([]int64{-1, 1}), []uint8{64, 1}},
		{"empty", FromInt16s(nil), []uint8{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := c.CountWidened(tt.in)
			require.NoError(t, err)
			defer out.Release()

			assert.Equal(t, tt.want, append([]uint8{}, out.Uint8s()...))
		})
	}

	_, err := c.CountWidened(nil)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	buf := memory.NewBufferBytes(make([]byte, 8))
	matrix, err := NewArray(int16Type, buf, []int{2, 2}, nil)
	require.NoError(t, err)
	_, err = c.CountWidened(matrix)
	assert.True(t, errors.Is(err, ErrInvalidShape))

	// every other element of an int16 buffer
	view, err := NewArray(int16Type, buf, []int{2}, []int{4})
	require.NoError(t, err)
	_, err = c.CountWidened(view)
	assert.True(t, errors.Is(err, ErrUnexpectedLayout), "got %v", err)
}

// an allocator handing out half the memory asked for
type shortAllocator struct {
	memory.Allocator
}

func (a shortAllocator) Allocate(size int) []byte {
	return a.Allocator.Allocate(size)[:size/2]
}

// results that do not fit the allocated memory are rejected
func TestShortOutput(t *testing.T) {
	c, err := New(WithAllocator(shortAllocator{memory.NewGoAllocator()}))
	require.NoError(t, err)

	_, err = c.Uint8(FromUint8s(make([]uint8, 100)))
	assert.True(t, errors.Is(err, ErrUnexpectedLayout), "got %v", err)

	_, err = c.Uint64(FromUint64s(make([]uint64, 100)))
	assert.True(t, errors.Is(err, ErrUnexpectedLayout), "got %v", err)

	_, err = c.Int32WithNA(FromInt32s(make([]int32, 100)))
	assert.True(t, errors.Is(err, ErrUnexpectedLayout), "got %v", err)

	// the uint64 temporary is too short as well
	_, err = c.CountWidened(FromInt16s(make([]int16, 100)))
	assert.True(t, errors.Is(err, ErrUnexpectedLayout), "got %v", err)

	// nothing to allocate
	out, err := c.Uint64(FromUint64s(nil))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	out.Release()
}

// the parallel loop must give the same answer as the sequential one
func TestParallel(t *testing.T) {
	seq := checkedCounter(t)
	par := checkedCounter(t, WithParallel(100, 7))

	for _, n := range []int{0, 1, 99, 100, 101, 1000, 4097, 100003} {
		in := make([]uint64, n)
		for i := range in {
			in[i] = rand.Uint64()
		}

		want, err := seq.Uint64(FromUint64s(in))
		require.NoError(t, err)

		got, err := par.Uint64(FromUint64s(in))
		require.NoError(t, err)

		assert.Equal(t, want.Uint8s(), got.Uint8s(), "length %d", n)
		want.Release()
		got.Release()
	}
}

func TestParallelRanges(t *testing.T) {
	c := &Counter{threshold: 10, workers: 3}

	for _, n := range []int{0, 9, 10, 64, 65, 192, 193, 1000} {
		seen := make([]int32, n)
		ranges := make(chan [2]int, n+1)
		c.run(n, func(lo, hi int) {
			ranges <- [2]int{lo, hi}
		})
		close(ranges)

		for r := range ranges {
			if n >= c.threshold {
				assert.Zero(t, r[0]%chunkAlign, "length %d: range %v not aligned", n, r)
			}
			for i := r[0]; i < r[1]; i++ {
				seen[i]++
			}
		}

		for i, s := range seen {
			require.Equal(t, int32(1), s, "length %d: index %d covered %d times", n, i, s)
		}
	}
}

func TestPackageLevel(t *testing.T) {
	out, err := Uint8(FromUint8s([]uint8{3}))
	require.NoError(t, err)
	assert.Equal(t, []uint8{2}, out.Uint8s())
	out.Release()

	out, err = Count(FromUint64s([]uint64{3}))
	require.NoError(t, err)
	assert.Equal(t, []uint8{2}, out.Uint8s())
	out.Release()

	out, err = CountWidened(FromInt8s([]int8{-1}))
	require.NoError(t, err)
	assert.Equal(t, []uint8{64}, out.Uint8s())
	out.Release()

	_, err = Uint64(FromUint16s([]uint16{1}))
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}
