// Copyright (c) 2025 Robert Clausecker <fuz@fuz.su>

package popcount

import "encoding/binary"

const (
	m1  = 0x5555555555555555
	m2  = 0x3333333333333333
	m4  = 0x0f0f0f0f0f0f0f0f
	h01 = 0x0101010101010101
)

// per-byte population count of the eight bytes in x
func swarBytes(x uint64) uint64 {
	x -= x >> 1 & m1
	x = x&m2 + x>>2&m2
	return (x + x>>4) & m4
}

// population count of x
func swar64(x uint64) uint8 {
	return uint8(swarBytes(x) * h01 >> 56)
}

// count8 SWAR implementation, eight bytes per step
func count8swar(dst, buf []uint8) {
	dst = dst[:len(buf)]
	i := 0
	for ; i+8 <= len(buf); i += 8 {
		x := binary.LittleEndian.Uint64(buf[i:])
		binary.LittleEndian.PutUint64(dst[i:], swarBytes(x))
	}

	for ; i < len(buf); i++ {
		dst[i] = uint8(swarBytes(uint64(buf[i])))
	}
}

// count64 SWAR implementation
func count64swar(dst []uint8, buf []uint64) {
	dst = dst[:len(buf)]
	for i, v := range buf {
		dst[i] = swar64(v)
	}
}

// count32na SWAR implementation
func count32naswar(dst, buf []int32) {
	dst = dst[:len(buf)]
	for i, v := range buf {
		if v == NAInt32 {
			dst[i] = NAInt32
			continue
		}

		dst[i] = int32(swar64(uint64(uint32(v))))
	}
}
