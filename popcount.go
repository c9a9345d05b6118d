// Copyright (c) 2025 Robert Clausecker <fuz@fuz.su>

package popcount

import (
	"runtime"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
)

// entry point names, used in errors, logs, and metrics
const (
	entryUint8   = "uint8"
	entryUint64  = "uint64"
	entryInt32NA = "int32_na"
	entryCount   = "count"
	entryWidened = "widened"
	entryToArrow = "to_arrow"

	wantUint8    = "uint8"
	wantUint64   = "uint64"
	wantInt32    = "int32"
	wantUnsigned = "uint8 or uint64"
	wantInteger  = "an integer type"
)

// A Counter computes population counts of arrays.  It is safe for
// concurrent use.
type Counter struct {
	mem       memory.Allocator
	log       *zap.Logger
	metrics   *Metrics
	kernel    string
	threshold int
	workers   int
	k         kernels
}

// New returns a Counter configured by opts.  It fails if a kernel was
// requested that does not run on this machine.
func New(opts ...Option) (*Counter, error) {
	c := &Counter{
		mem: memory.DefaultAllocator,
		log: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.workers <= 0 {
		c.workers = runtime.GOMAXPROCS(0)
	}

	k, err := selectKernels(c.kernel)
	if err != nil {
		return nil, err
	}
	c.k = k

	names := k.names()
	c.log.Debug("selected popcount kernels",
		zap.String("count8", names.Count8),
		zap.String("count64", names.Count64),
		zap.String("count32na", names.Count32NA),
		zap.Int("parallel_threshold", c.threshold),
		zap.Int("workers", c.workers))

	return c, nil
}

// Kernels returns the names of the kernels c uses.
func (c *Counter) Kernels() KernelNames {
	return c.k.names()
}

// Check that xs is 1-D and densely packed.  The element type is
// checked by the caller.
func checkLayout(entry string, xs *Array) error {
	if xs.NDim() != 1 {
		return invalidShape(entry, xs.NDim())
	}

	if xs.strides[0] != xs.elemSize() {
		return unexpectedLayout(entry, "input", xs.strides[0], xs.elemSize())
	}

	return nil
}

// Validate xs for an entry point taking want.
func checkArray(entry string, xs *Array, want arrow.Type, wantName string) error {
	if xs == nil {
		return typeMismatch(entry, nil, wantName)
	}

	if xs.dtype.ID() != want {
		return typeMismatch(entry, xs.dtype, wantName)
	}

	return checkLayout(entry, xs)
}

// Allocate the result array and make sure the allocator handed out
// enough memory for it.
func (c *Counter) result(entry string, dtype arrow.FixedWidthDataType, n int) (*Array, error) {
	out := allocate(c.mem, dtype, n)
	if have, want := len(out.buf.Buf()), n*out.elemSize(); have < want {
		out.Release()
		return nil, shortOutput(entry, have, want)
	}

	return out, nil
}

func (c *Counter) rejected(entry string, err error) {
	c.log.Debug("array rejected", zap.String("entry", entry), zap.Error(err))
	c.metrics.reject(entry, err)
}

// Uint8 returns the number of set bits of each element of the uint8
// array xs as a new uint8 array.  xs must be one-dimensional and dense.
func (c *Counter) Uint8(xs *Array) (*Array, error) {
	c.metrics.call(entryUint8)
	if err := checkArray(entryUint8, xs, arrow.UINT8, wantUint8); err != nil {
		c.rejected(entryUint8, err)
		return nil, err
	}

	return c.countUint8(entryUint8, xs.Uint8s())
}

func (c *Counter) countUint8(entry string, src []uint8) (*Array, error) {
	out, err := c.result(entry, uint8Type, len(src))
	if err != nil {
		c.rejected(entry, err)
		return nil, err
	}

	dst := out.Uint8s()
	c.run(len(src), func(lo, hi int) {
		c.k.count8.count8(dst[lo:hi], src[lo:hi])
	})
	c.metrics.counted(entry, len(src))

	return out, nil
}

// Uint64 returns the number of set bits of each element of the uint64
// array xs as a new uint8 array.  xs must be one-dimensional and dense.
func (c *Counter) Uint64(xs *Array) (*Array, error) {
	c.metrics.call(entryUint64)
	if err := checkArray(entryUint64, xs, arrow.UINT64, wantUint64); err != nil {
		c.rejected(entryUint64, err)
		return nil, err
	}

	return c.countUint64(entryUint64, xs.Uint64s())
}

func (c *Counter) countUint64(entry string, src []uint64) (*Array, error) {
	out, err := c.result(entry, uint8Type, len(src))
	if err != nil {
		c.rejected(entry, err)
		return nil, err
	}

	dst := out.Uint8s()
	c.run(len(src), func(lo, hi int) {
		c.k.count64.count64(dst[lo:hi], src[lo:hi])
	})
	c.metrics.counted(entry, len(src))

	return out, nil
}

// Int32WithNA returns the number of set bits of each element of the
// int32 array xs as a new int32 array.  Negative values are counted in
// 32 bit two's complement.  Elements equal to NAInt32 mark missing
// values and are copied to the result instead of being counted.
func (c *Counter) Int32WithNA(xs *Array) (*Array, error) {
	c.metrics.call(entryInt32NA)
	if err := checkArray(entryInt32NA, xs, arrow.INT32, wantInt32); err != nil {
		c.rejected(entryInt32NA, err)
		return nil, err
	}

	src := xs.Int32s()
	out, err := c.result(entryInt32NA, int32Type, len(src))
	if err != nil {
		c.rejected(entryInt32NA, err)
		return nil, err
	}

	dst := out.Int32s()
	c.run(len(src), func(lo, hi int) {
		c.k.count32.count32(dst[lo:hi], src[lo:hi])
	})
	c.metrics.counted(entryInt32NA, len(src))

	return out, nil
}

// Count dispatches on the element type of xs: uint8 arrays go to
// Uint8, uint64 arrays to Uint64.  Other types are rejected.
func (c *Counter) Count(xs *Array) (*Array, error) {
	c.metrics.call(entryCount)
	if xs == nil {
		err := typeMismatch(entryCount, nil, wantUnsigned)
		c.rejected(entryCount, err)
		return nil, err
	}

	switch xs.dtype.ID() {
	case arrow.UINT8:
		if err := checkLayout(entryCount, xs); err != nil {
			c.rejected(entryCount, err)
			return nil, err
		}
		return c.countUint8(entryCount, xs.Uint8s())

	case arrow.UINT64:
		if err := checkLayout(entryCount, xs); err != nil {
			c.rejected(entryCount, err)
			return nil, err
		}
		return c.countUint64(entryCount, xs.Uint64s())

	default:
		err := typeMismatch(entryCount, xs.dtype, wantUnsigned)
		c.rejected(entryCount, err)
		return nil, err
	}
}

// CountWidened converts each element of the integer array xs to
// uint64 and returns the number of set bits of each as a new uint8
// array.  Signed elements are sign-extended, so -1 of any width counts
// as 64.  This is the only entry point that accepts arrays of any
// integer type; the others reject a type they are not made for.
func (c *Counter) CountWidened(xs *Array) (*Array, error) {
	c.metrics.call(entryWidened)
	if xs == nil || !isInteger(xs.dtype.ID()) {
		var got arrow.DataType
		if xs != nil {
			got = xs.dtype
		}

		err := typeMismatch(entryWidened, got, wantInteger)
		c.rejected(entryWidened, err)
		return nil, err
	}

	if err := checkLayout(entryWidened, xs); err != nil {
		c.rejected(entryWidened, err)
		return nil, err
	}

	if xs.dtype.ID() == arrow.UINT64 {
		return c.countUint64(entryWidened, xs.Uint64s())
	}

	tmp, err := c.result(entryWidened, uint64Type, xs.Len())
	if err != nil {
		c.rejected(entryWidened, err)
		return nil, err
	}
	defer tmp.Release()
	widen(tmp.Uint64s(), xs)

	return c.countUint64(entryWidened, tmp.Uint64s())
}

func isInteger(id arrow.Type) bool {
	switch id {
	case arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64:
		return true
	default:
		return false
	}
}

// Convert the dense integer array xs to uint64, sign-extending signed
// values.
func widen(dst []uint64, xs *Array) {
	b := xs.Bytes()

	switch xs.dtype.ID() {
	case arrow.UINT8:
		for i, v := range arrow.Uint8Traits.CastFromBytes(b) {
			dst[i] = uint64(v)
		}
	case arrow.UINT16:
		for i, v := range arrow.Uint16Traits.CastFromBytes(b) {
			dst[i] = uint64(v)
		}
	case arrow.UINT32:
		for i, v := range arrow.Uint32Traits.CastFromBytes(b) {
			dst[i] = uint64(v)
		}
	case arrow.UINT64:
		copy(dst, arrow.Uint64Traits.CastFromBytes(b))
	case arrow.INT8:
		for i, v := range arrow.Int8Traits.CastFromBytes(b) {
			dst[i] = uint64(v)
		}
	case arrow.INT16:
		for i, v := range arrow.Int16Traits.CastFromBytes(b) {
			dst[i] = uint64(v)
		}
	case arrow.INT32:
		for i, v := range arrow.Int32Traits.CastFromBytes(b) {
			dst[i] = uint64(v)
		}
	case arrow.INT64:
		for i, v := range arrow.Int64Traits.CastFromBytes(b) {
			dst[i] = uint64(v)
		}
	default:
		panic("popcount: cannot widen " + xs.dtype.Name())
	}
}

var defaultCounter = func() *Counter {
	c, err := New()
	if err != nil {
		panic(err)
	}

	return c
}()

// Uint8 calls Uint8 on a Counter with default settings.
func Uint8(xs *Array) (*Array, error) {
	return defaultCounter.Uint8(xs)
}

// Uint64 calls Uint64 on a Counter with default settings.
func Uint64(xs *Array) (*Array, error) {
	return defaultCounter.Uint64(xs)
}

// Int32WithNA calls Int32WithNA on a Counter with default settings.
func Int32WithNA(xs *Array) (*Array, error) {
	return defaultCounter.Int32WithNA(xs)
}

// Count calls Count on a Counter with default settings.
func Count(xs *Array) (*Array, error) {
	return defaultCounter.Count(xs)
}

// CountWidened calls CountWidened on a Counter with default settings.
func CountWidened(xs *Array) (*Array, error) {
	return defaultCounter.CountWidened(xs)
}
