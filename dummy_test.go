// Copyright (c) 2025 Robert Clausecker <fuz@fuz.su>

package popcount

var sink8 uint8
var sink64 uint64

// dummy count8 implementation that only reads its input, as a
// baseline for the memory bandwidth available to the benchmarks
func dummyCount8(dst, buf []uint8) {
	var sum uint8

	for _, x := range buf {
		sum += x
	}

	sink8 = sum
}

// dummy count64 implementation that only reads its input
func dummyCount64(dst []uint8, buf []uint64) {
	var sum uint64

	for _, x := range buf {
		sum += x
	}

	sink64 = sum
}
