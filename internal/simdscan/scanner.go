// Package simdscan implements the bitmap-driven field/row scanner: the
// SplitFields iterator (Operation A) and the dual-state chunk analyzer's
// shared bitmap machinery (Operation B). Grounded on scanner.go's
// quotesBitmap/sepsBitmap/newlinesBitmap design (entreya-csvquery),
// generalized from a one-shot callback scan into a resumable iterator with
// a per-64-byte-block boundary cache, and on nnnkkk7-go-simdcsv's
// scanState/scanResult sync.Pool reuse pattern for the per-chunk scratch
// buffers.
package simdscan

import (
	"math/bits"
	"sync"

	"github.com/csvquery/vcsv/internal/quoteparity"
)

// BlockSize is the fixed window the scanner processes per bitmap
// computation. It equals the ByteRange overread pad; the final partial
// block is scanned at its real length, never widened past the data.
const BlockSize = 64

// blockMasks holds the one-bit-per-byte masks for a 64-byte block.
type blockMasks struct {
	quote   uint64
	sep     uint64
	newline uint64
	cr      uint64
}

var blockMasksPool = sync.Pool{New: func() any { return &blockMasks{} }}

// computeMasks fills m with the bit positions, within block (<=64 bytes),
// of the quote, separator, newline and CR bytes. Dispatches to a SWAR
// word-at-a-time fast path on amd64 (see scan_amd64.go) or a scalar
// byte-at-a-time fallback (scan_generic.go).
func computeMasks(block []byte, sep, quote byte, m *blockMasks) {
	computeMasksImpl(block, sep, quote, m)
}

// computeMasksScalar is the portable byte-at-a-time fallback shared by both
// build-tagged implementations for any trailing partial word.
func computeMasksScalar(block []byte, sep, quote byte, m *blockMasks) {
	m.quote, m.sep, m.newline, m.cr = 0, 0, 0, 0
	for i, b := range block {
		switch {
		case b == quote:
			m.quote |= 1 << uint(i)
		case b == sep:
			m.sep |= 1 << uint(i)
		case b == '\n':
			m.newline |= 1 << uint(i)
		case b == '\r':
			m.cr |= 1 << uint(i)
		}
	}
}

// FieldScanner is a resumable, quote-aware field/row boundary iterator over
// a byte range. It amortizes bitmap computation across all fields that fall
// within the same 64-byte block: Next() drains a cached slice of boundary
// offsets and only recomputes the bitmap when the cache is exhausted.
type FieldScanner struct {
	data  []byte
	sep   byte
	quote byte

	fieldStart int // absolute offset of the pending field's start
	blockStart int // absolute offset of the next block to scan
	carry      uint64

	boundaries []boundary
	bi         int
	done       bool
}

type boundary struct {
	offset int  // absolute offset of the delimiter byte
	newRow bool // true if this boundary is a row-ending newline
}

// NewFieldScanner returns a scanner starting at byte offset start, with
// startInsideQuote seeding the carry state (used when resuming mid-file at
// a chunk boundary whose starting quote state was determined by the
// planner).
func NewFieldScanner(data []byte, start int, startInsideQuote bool, sep, quote byte) *FieldScanner {
	var carry uint64
	if startInsideQuote {
		carry = ^uint64(0)
	}
	return &FieldScanner{
		data:       data,
		sep:        sep,
		quote:      quote,
		fieldStart: start,
		blockStart: start,
		carry:      carry,
	}
}

// Next returns the next field's raw bytes (still containing any quote
// wrapping/escaping - unescaping is the parser driver's job), whether it
// ends a row, and whether a field was produced at all.
func (s *FieldScanner) Next() (field []byte, endsRow bool, ok bool) {
	if s.fieldStart >= len(s.data) && s.bi >= len(s.boundaries) {
		return nil, false, false
	}
	for s.bi >= len(s.boundaries) {
		if s.done {
			if s.fieldStart >= len(s.data) {
				return nil, false, false
			}
			f := s.data[s.fieldStart:]
			s.fieldStart = len(s.data)
			return f, true, true
		}
		s.fillBoundaries()
	}
	b := s.boundaries[s.bi]
	s.bi++
	f := s.data[s.fieldStart:b.offset]
	s.fieldStart = b.offset + 1
	// A CRLF pair's '\r' is not itself a boundary byte (the '\n' is), so it
	// stays embedded in the preceding field's raw bytes unless stripped here.
	if b.offset < len(s.data) && s.data[b.offset] == '\n' && len(f) > 0 && f[len(f)-1] == '\r' {
		f = f[:len(f)-1]
	}
	return f, b.newRow, true
}

// fillBoundaries computes the next block's bitmap and extracts every
// outside-quote separator/newline offset into s.boundaries, in order.
func (s *FieldScanner) fillBoundaries() {
	s.boundaries = s.boundaries[:0]
	s.bi = 0

	m := blockMasksPool.Get().(*blockMasks)
	defer blockMasksPool.Put(m)

	for len(s.boundaries) == 0 && s.blockStart < len(s.data) {
		end := s.blockStart + BlockSize
		if end > len(s.data) {
			end = len(s.data)
		}
		block := s.data[s.blockStart:end]
		computeMasks(block, s.sep, s.quote, m)

		insideMask, carryOut := quoteparity.FindQuoteMask(m.quote, s.carry)
		s.carry = carryOut

		// A standalone CR (not immediately followed by LF, i.e. not the '\r'
		// half of a CRLF pair) is itself a row terminator, matching
		// old-Mac-style bare-CR line endings.
		standaloneCR := m.cr &^ (m.newline >> 1)
		rowEnd := m.newline | standaloneCR
		delim := (m.sep | rowEnd) &^ insideMask
		for delim != 0 {
			bitIdx := bits.TrailingZeros64(delim)
			delim &^= 1 << uint(bitIdx)
			abs := s.blockStart + bitIdx
			isRowEnd := rowEnd&(1<<uint(bitIdx)) != 0
			s.boundaries = append(s.boundaries, boundary{offset: abs, newRow: isRowEnd})
		}
		s.blockStart = end
		if end >= len(s.data) {
			s.done = true
		}
	}
}
