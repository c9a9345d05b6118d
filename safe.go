// Copyright (c) 2020, 2025 Robert Clausecker <fuz@fuz.su>

package popcount

// count8 reference implementation for tests.  Do not alter.
func count8safe(dst, buf []uint8) {
	for i := range buf {
		var n uint8
		for j := 0; j < 8; j++ {
			n += buf[i] >> j & 1
		}
		dst[i] = n
	}
}

// count64 reference implementation for tests.  Do not alter.
func count64safe(dst []uint8, buf []uint64) {
	for i := range buf {
		var n uint8
		for j := 0; j < 64; j++ {
			n += uint8(buf[i] >> j & 1)
		}
		dst[i] = n
	}
}

// count32na reference implementation for tests.  Do not alter.
func count32nasafe(dst, buf []int32) {
	for i := range buf {
		if buf[i] == NAInt32 {
			dst[i] = NAInt32
			continue
		}

		var n int32
		for j := 0; j < 32; j++ {
			n += int32(uint32(buf[i]) >> j & 1)
		}
		dst[i] = n
	}
}
