//go:build amd64

package simdscan

import (
	"encoding/binary"
	"math/bits"

	"golang.org/x/sys/cpu"
)

// swarEnabled is decided once at startup, gated on golang.org/x/sys/cpu the
// same way simd_amd64.go gates its AVX2/SSE4.2 fast paths. The word-at-a-
// time SWAR trick below needs no particular extension, but the module
// keeps the dispatch-on-CPU-features shape the teacher established so a
// future real vector implementation (AVX2 compare+movemask) can slot in
// behind the same boolean without touching call sites.
var swarEnabled = cpu.X86.HasSSE42

// computeMasksImpl is the amd64 entry point: an 8-byte-word SWAR fast path
// that tests eight bytes at a time via the haszero bit trick, falling back
// to the scalar path for any trailing partial word or when the CPU feature
// gate is off.
func computeMasksImpl(block []byte, sep, quote byte, m *blockMasks) {
	if !swarEnabled {
		computeMasksScalar(block, sep, quote, m)
		return
	}
	m.quote, m.sep, m.newline, m.cr = 0, 0, 0, 0
	n := len(block)
	words := n / 8
	for w := 0; w < words; w++ {
		word := binary.LittleEndian.Uint64(block[w*8:])
		base := uint(w * 8)
		orMaskBits(&m.quote, word, quote, base)
		orMaskBits(&m.sep, word, sep, base)
		orMaskBits(&m.newline, word, '\n', base)
		orMaskBits(&m.cr, word, '\r', base)
	}
	if rem := n - words*8; rem > 0 {
		var tail blockMasks
		computeMasksScalar(block[words*8:], sep, quote, &tail)
		shift := uint(words * 8)
		m.quote |= tail.quote << shift
		m.sep |= tail.sep << shift
		m.newline |= tail.newline << shift
		m.cr |= tail.cr << shift
	}
}

// orMaskBits sets, in *dst, one bit per lane of word (at position base+lane)
// for every byte lane equal to target, using the carry-free SWAR zero-byte
// test (no carry or borrow crosses lanes, so only lanes that really equal
// target are flagged) to locate all matching lanes in a single word in O(1)
// arithmetic ops plus a bounded bit-walk over only the lanes that matched.
func orMaskBits(dst *uint64, word uint64, target byte, base uint) {
	pattern := uint64(target) * 0x0101010101010101
	x := word ^ pattern
	y := (x & 0x7F7F7F7F7F7F7F7F) + 0x7F7F7F7F7F7F7F7F
	hay := ^(y | x | 0x7F7F7F7F7F7F7F7F)
	for hay != 0 {
		lane := uint(bits.TrailingZeros64(hay)) / 8
		hay &^= uint64(0x80) << (8 * lane)
		*dst |= 1 << (base + 8*lane)
	}
}
