package simdscan

import (
	"math/bits"

	"github.com/csvquery/vcsv/internal/quoteparity"
)

// ChunkAnalysis is the result of a single pass over a byte range that
// simultaneously answers "how many rows would this chunk contain under
// each of the two possible starting quote states", letting the planner
// link chunks together without a global, single-threaded prefix scan.
// Grounded on §4.5's dual-state analyzer design note.
type ChunkAnalysis struct {
	RowsIfStartOutside int
	RowsIfStartInside  int
	EndsInsideIfStartOutside bool
	StandaloneCR        int // '\r' bytes outside quotes not immediately followed by '\n'
}

// EndsInsideIfStartInside is always the logical negation of
// EndsInsideIfStartOutside: the quote-parity XOR trick means the two
// hypotheses' masks are bitwise complements of each other for every block
// in the chunk, so flipping the starting state flips the ending state too.
func (c ChunkAnalysis) EndsInsideIfStartInside() bool {
	return !c.EndsInsideIfStartOutside
}

// DualStateAnalyze scans data[start:end] once, counting newline-terminated
// rows under both the "chunk starts outside a quote" and "chunk starts
// inside a quote" hypotheses. It relies on the identity that the
// inside-quote mask computed with a carry-in of all-ones is the bitwise
// complement, block for block, of the mask computed with a carry-in of
// zero - so a single forward pass (carry-in = 0) suffices to derive both
// row counts.
func DualStateAnalyze(data []byte, start, end int, sep, quote byte) ChunkAnalysis {
	var (
		carry              uint64
		rowsOutside        int
		rowsInside         int
		standaloneCR       int
	)
	m := &blockMasks{}
	for pos := start; pos < end; pos += BlockSize {
		blockEnd := pos + BlockSize
		if blockEnd > end {
			blockEnd = end
		}
		block := data[pos:blockEnd]
		computeMasks(block, sep, quote, m)

		insideMaskOutsideHyp, carryOut := quoteparity.FindQuoteMask(m.quote, carry)
		carry = carryOut

		// Newline bits where insideMaskOutsideHyp == 0 are real row ends
		// under the outside-start hypothesis; the complementary set (where
		// the bit is 1) are the real row ends under the inside-start
		// hypothesis, since that hypothesis's mask is the bitwise NOT of
		// this one for every block. A standalone CR (old-Mac-style bare CR
		// line ending, not the '\r' half of a CRLF pair) terminates a row
		// the same way and is folded into both counts.
		lonelyCR := m.cr &^ (m.newline >> 1)
		rowEnds := m.newline | lonelyCR
		rowsOutside += bits.OnesCount64(rowEnds &^ insideMaskOutsideHyp)
		rowsInside += bits.OnesCount64(rowEnds & insideMaskOutsideHyp)

		standaloneCR += bits.OnesCount64(lonelyCR &^ insideMaskOutsideHyp)
	}
	return ChunkAnalysis{
		RowsIfStartOutside:       rowsOutside,
		RowsIfStartInside:        rowsInside,
		EndsInsideIfStartOutside: quoteparity.InsideQuoteAfter(carry),
		StandaloneCR:             standaloneCR,
	}
}
