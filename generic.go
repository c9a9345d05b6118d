package popcount

import "math/bits"

// NAInt32 marks a missing int32 value.  Count32NA and Int32WithNA pass
// it through instead of counting its bits.
const NAInt32 int32 = -1 << 31

// number of set bits for each byte value
var popcountTable = func() (t [256]uint8) {
	for i := 1; i < len(t); i++ {
		t[i] = t[i>>1] + uint8(i&1)
	}

	return
}()

// count8 using math/bits
func count8bits(dst, buf []uint8) {
	dst = dst[:len(buf)]
	for i, v := range buf {
		dst[i] = uint8(bits.OnesCount8(v))
	}
}

// count8 using a lookup table
func count8table(dst, buf []uint8) {
	dst = dst[:len(buf)]
	for i, v := range buf {
		dst[i] = popcountTable[v]
	}
}

// count64 using math/bits.  The compiler turns OnesCount64 into a
// POPCNT or VCNT instruction where the CPU has one.
func count64bits(dst []uint8, buf []uint64) {
	dst = dst[:len(buf)]
	for i, v := range buf {
		dst[i] = uint8(bits.OnesCount64(v))
	}
}

// count32na using math/bits
func count32nabits(dst, buf []int32) {
	dst = dst[:len(buf)]
	for i, v := range buf {
		if v == NAInt32 {
			dst[i] = NAInt32
			continue
		}

		dst[i] = int32(bits.OnesCount32(uint32(v)))
	}
}
