// Copyright (c) 2020, 2025 Robert Clausecker <fuz@fuz.su>

// Elementwise population counts.
//
// This package counts the set bits of every element of a typed numeric
// array and returns the counts as a freshly allocated array of the same
// length.  Arrays of uint8 and uint64 are counted into uint8 counts;
// arrays of int32 are counted into int32 counts with NAInt32 passed
// through as a missing-value marker.  Input arrays are validated for
// element type, dimensionality and dense layout before any work is
// done.
//
// Counting is done by one of several kernels.  The kernels available
// for your CPU are determined from build tags and the feature flags
// reported by golang.org/x/sys/cpu, and the first available kernel for
// each element width is chosen automatically at startup.  A portable
// kernel exists on every architecture supported by the Go toolchain.
//
// The slice-level functions Count8, Count64, and Count32NA skip the
// validation and allocation and write the counts into a buffer you
// provide.
package popcount

import "github.com/pkg/errors"

// each platform must provide arrays count8funcs, count64funcs, and
// count32funcs of type count8impl, ... listing the available
// implementations.  The member available indicates that the function
// would run on this machine.  The dispatch code picks the
// lowest-numbered function in the array for which available is true.
// The safe implementation should be available under all circumstances
// so it can be run by the unit tests.  The name field should be the
// name of the implementation and should not repeat the "count#" prefix.

type count8impl struct {
	count8    func(dst, buf []uint8)
	name      string
	available bool
}

type count64impl struct {
	count64   func(dst []uint8, buf []uint64)
	name      string
	available bool
}

type count32impl struct {
	count32   func(dst, buf []int32)
	name      string
	available bool
}

// kernels is one kernel per element width.
type kernels struct {
	count8  count8impl
	count64 count64impl
	count32 count32impl
}

// KernelNames reports which kernel counts each element width.
type KernelNames struct {
	Count8    string
	Count64   string
	Count32NA string
}

func (k *kernels) names() KernelNames {
	return KernelNames{
		Count8:    k.count8.name,
		Count64:   k.count64.name,
		Count32NA: k.count32.name,
	}
}

// Pick the kernels to use.  An empty name picks the first available
// kernel for every width.  Otherwise the named kernel is used for every
// width that has it; widths without a kernel of that name keep their
// default.  It is an error if no width has an available kernel of the
// given name.
func selectKernels(name string) (kernels, error) {
	var k kernels
	found := false

	for _, f := range count8funcs {
		if f.available && (f.name == name || k.count8.count8 == nil) {
			found = found || f.name == name
			k.count8 = f
			if name == "" || f.name == name {
				break
			}
		}
	}

	for _, f := range count64funcs {
		if f.available && (f.name == name || k.count64.count64 == nil) {
			found = found || f.name == name
			k.count64 = f
			if name == "" || f.name == name {
				break
			}
		}
	}

	for _, f := range count32funcs {
		if f.available && (f.name == name || k.count32.count32 == nil) {
			found = found || f.name == name
			k.count32 = f
			if name == "" || f.name == name {
				break
			}
		}
	}

	if k.count8.count8 == nil || k.count64.count64 == nil || k.count32.count32 == nil {
		panic("no implementation of popcount available")
	}

	if name != "" && !found {
		return kernels{}, errors.WithMessagef(ErrUnknownKernel, "%q", name)
	}

	return k, nil
}

// optimal kernels selected at runtime
var defaultKernels = func() kernels {
	k, err := selectKernels("")
	if err != nil {
		panic(err)
	}

	return k
}()

// Kernels returns the names of the kernels chosen for this machine.
func Kernels() KernelNames {
	return defaultKernels.names()
}

// Count the set bits of each byte in buf and store the counts in the
// corresponding elements of dst.  dst must be at least as long as buf.
func Count8(dst, buf []uint8) {
	defaultKernels.count8.count8(dst[:len(buf)], buf)
}

// Count the set bits of each value in buf and store the counts in the
// corresponding elements of dst.  dst must be at least as long as buf.
func Count64(dst []uint8, buf []uint64) {
	defaultKernels.count64.count64(dst[:len(buf)], buf)
}

// Count the set bits of each value in buf as a 32 bit two's complement
// number and store the counts in the corresponding elements of dst.
// Elements equal to NAInt32 are copied to dst unchanged.  dst must be
// at least as long as buf.
func Count32NA(dst, buf []int32) {
	defaultKernels.count32.count32(dst[:len(buf)], buf)
}
