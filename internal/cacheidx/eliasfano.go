// Package cacheidx implements the persistent index cache sidecar (C13):
// an Elias-Fano encoded sampled-offset sequence plus per-chunk quote-state
// analysis, validated on load by file size and mtime. Grounded on
// elias_fano.h and cache.h (tidyverse/vroom's own C++ implementations of
// these exact components).
package cacheidx

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// EliasFano is a succinct encoding of a monotone non-decreasing sequence of
// uint64 values, stored as a packed low-bits array and an unary-coded
// high-bits bitvector (Select scans the high bits word by word, so its cost
// grows with the position selected), following elias_fano.h's layout
// exactly: low_bits = floor(log2(universe/n)) (0 when n==0 or universe<n).
type EliasFano struct {
	n        int
	universe uint64
	lowBits  int
	low      []uint64 // packed, n*lowBits bits
	high     []uint64 // unary-coded bitvector
}

// EncodeEliasFano builds an EliasFano index over values, which must be
// sorted non-decreasing and bounded by universe (values[i] <= universe for
// all i).
func EncodeEliasFano(values []uint64, universe uint64) (*EliasFano, error) {
	n := len(values)
	ef := &EliasFano{n: n, universe: universe}
	if n == 0 {
		return ef, nil
	}
	if universe/uint64(n) >= 1 {
		ef.lowBits = 63 - bits.LeadingZeros64(universe/uint64(n))
	}
	lowWords := (n*ef.lowBits + 63) / 64
	ef.low = make([]uint64, lowWords)

	highUniverseBuckets := universe >> uint(ef.lowBits)
	highLen := n + int(highUniverseBuckets) + 1
	ef.high = make([]uint64, (highLen+63)/64)

	var prev uint64
	for i, v := range values {
		if v < prev {
			return nil, fmt.Errorf("cacheidx: values must be non-decreasing")
		}
		if v > universe {
			return nil, fmt.Errorf("cacheidx: value %d exceeds universe %d", v, universe)
		}
		prev = v
		low := v & ((uint64(1) << uint(ef.lowBits)) - 1)
		if ef.lowBits == 0 {
			low = 0
		}
		setBits(ef.low, i*ef.lowBits, ef.lowBits, low)

		high := v >> uint(ef.lowBits)
		pos := int(high) + i
		setBit(ef.high, pos)
	}
	return ef, nil
}

// Select returns the i-th (0-indexed) value in the encoded sequence.
func (ef *EliasFano) Select(i int) (uint64, error) {
	if i < 0 || i >= ef.n {
		return 0, fmt.Errorf("cacheidx: select index %d out of range [0,%d)", i, ef.n)
	}
	pos, err := selectSetBit(ef.high, i)
	if err != nil {
		return 0, err
	}
	high := uint64(pos - i)
	low := getBits(ef.low, i*ef.lowBits, ef.lowBits)
	return (high << uint(ef.lowBits)) | low, nil
}

// Len returns the number of encoded values.
func (ef *EliasFano) Len() int { return ef.n }

func setBit(words []uint64, pos int) {
	words[pos/64] |= 1 << uint(pos%64)
}

// selectSetBit returns the absolute bit position of the (i+1)-th set bit in
// words (0-indexed i), scanning word by word with bits.OnesCount64 to skip
// whole words at once and bits.TrailingZeros64 to locate the bit within the
// word that contains it - the broadword select technique elias_fano.h
// itself documents.
func selectSetBit(words []uint64, i int) (int, error) {
	remaining := i
	for w, word := range words {
		c := bits.OnesCount64(word)
		if remaining < c {
			for word != 0 {
				b := bits.TrailingZeros64(word)
				if remaining == 0 {
					return w*64 + b, nil
				}
				remaining--
				word &^= 1 << uint(b)
			}
		}
		remaining -= c
	}
	return 0, fmt.Errorf("cacheidx: select: index out of range")
}

// setBits writes the low numBits bits of value into the packed bit array
// arr starting at bitOffset, little-endian bit order within each uint64.
func setBits(arr []uint64, bitOffset, numBits int, value uint64) {
	for b := 0; b < numBits; b++ {
		if value&(1<<uint(b)) == 0 {
			continue
		}
		pos := bitOffset + b
		arr[pos/64] |= 1 << uint(pos%64)
	}
}

func getBits(arr []uint64, bitOffset, numBits int) uint64 {
	var v uint64
	for b := 0; b < numBits; b++ {
		pos := bitOffset + b
		if arr[pos/64]&(1<<uint(pos%64)) != 0 {
			v |= 1 << uint(b)
		}
	}
	return v
}

// SerializedSize returns the byte length Serialize will produce.
func (ef *EliasFano) SerializedSize() int {
	return 24 + len(ef.low)*8 + len(ef.high)*8
}

// Serialize writes the 24-byte header (num_elements, universe, low_bits+
// high word count packed as two uint32) followed by the packed low and
// high arrays, matching elias_fano.h's serialize layout.
func (ef *EliasFano) Serialize() []byte {
	buf := make([]byte, ef.SerializedSize())
	binary.LittleEndian.PutUint64(buf[0:8], uint64(ef.n))
	binary.LittleEndian.PutUint64(buf[8:16], ef.universe)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(ef.lowBits))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(len(ef.high)))
	off := 24
	for _, w := range ef.low {
		binary.LittleEndian.PutUint64(buf[off:off+8], w)
		off += 8
	}
	for _, w := range ef.high {
		binary.LittleEndian.PutUint64(buf[off:off+8], w)
		off += 8
	}
	return buf
}

// DeserializeEliasFano parses the layout Serialize produces.
func DeserializeEliasFano(buf []byte) (*EliasFano, error) {
	if len(buf) < 24 {
		return nil, fmt.Errorf("cacheidx: elias-fano buffer too short")
	}
	ef := &EliasFano{}
	ef.n = int(binary.LittleEndian.Uint64(buf[0:8]))
	ef.universe = binary.LittleEndian.Uint64(buf[8:16])
	ef.lowBits = int(binary.LittleEndian.Uint32(buf[16:20]))
	highWords := int(binary.LittleEndian.Uint32(buf[20:24]))
	off := 24
	lowWords := (ef.n*ef.lowBits + 63) / 64
	if len(buf) < off+lowWords*8+highWords*8 {
		return nil, fmt.Errorf("cacheidx: elias-fano buffer truncated")
	}
	ef.low = make([]uint64, lowWords)
	for i := range ef.low {
		ef.low[i] = binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
	}
	ef.high = make([]uint64, highWords)
	for i := range ef.high {
		ef.high[i] = binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
	}
	return ef, nil
}
