// Package parser implements the parallel chunk parser: the 4-step driver
// (reserve, discard partial leading row, run the field scanner per row,
// emit schema-width-padded fields into the column builders' append
// contexts) and its error taxonomy. Grounded on processChunk/parseLineSimd
// (scanner.go) for the worker-owned-scratch-state shape and on
// nnnkkk7-go-simdcsv's field_parser.go/validation.go for the per-field
// classification order.
package parser

import "fmt"

// ErrorKind enumerates the recognized per-field/per-row error conditions.
type ErrorKind uint8

const (
	KindTooFewFields ErrorKind = iota
	KindTooManyFields
	KindQuoteInUnquotedField
	KindUnterminatedQuote
	KindInvalidQuoteEscape
	KindTypeMismatch
	KindNullByte
	KindFieldTooLarge
)

func (k ErrorKind) String() string {
	switch k {
	case KindTooFewFields:
		return "too_few_fields"
	case KindTooManyFields:
		return "too_many_fields"
	case KindQuoteInUnquotedField:
		return "quote_in_unquoted_field"
	case KindUnterminatedQuote:
		return "unterminated_quote"
	case KindInvalidQuoteEscape:
		return "invalid_quote_escape"
	case KindTypeMismatch:
		return "type_mismatch"
	case KindNullByte:
		return "null_byte"
	case KindFieldTooLarge:
		return "field_too_large"
	default:
		return "unknown"
	}
}

// Severity classifies an error's effect on parsing: a Warning never stops
// parsing and need not even be collected, Recoverable means the offending
// value/row is replaced with null/best-effort data and parsing continues,
// and Fatal stops the current worker outright.
type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityRecoverable
	SeverityFatal
)

// ParseError is one recorded parsing problem, with enough context to
// locate it after the fact.
type ParseError struct {
	Kind       ErrorKind
	Severity   Severity
	ChunkIndex int
	RowInChunk int
	RowAbs     int // resolved by a post-pass once chunk row offsets are known
	ColIndex   int
	Message    string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s at row %d col %d: %s", e.Kind, e.RowAbs, e.ColIndex, e.Message)
}

// ErrorMode controls how the driver reacts to a recoverable error.
type ErrorMode uint8

const (
	// ErrorModeDisabled is the original's default: recoverable errors are
	// not even collected, the offending value becomes null and parsing
	// proceeds silently.
	ErrorModeDisabled ErrorMode = iota
	// ErrorModeCollect records every recoverable error up to MaxErrors.
	ErrorModeCollect
	// ErrorModeFailFast records every error, with no MaxErrors cap, and
	// Record returns false for each one. ParseChunk and the Reader do not
	// act on that result: the parse is not aborted and runs to the end.
	ErrorModeFailFast
)

// ErrorCollector accumulates ParseErrors per chunk, capped at MaxErrors,
// merged into absolute order by the caller once every chunk has completed.
type ErrorCollector struct {
	Mode      ErrorMode
	MaxErrors int
	perChunk  map[int][]ParseError
}

// NewErrorCollector returns a collector configured per mode/maxErrors. A
// maxErrors of 0 means unlimited.
func NewErrorCollector(mode ErrorMode, maxErrors int) *ErrorCollector {
	return &ErrorCollector{Mode: mode, MaxErrors: maxErrors, perChunk: make(map[int][]ParseError)}
}

// Record adds one error for a chunk, respecting Mode/MaxErrors. Returns
// false if the caller should abort the parse (fail-fast mode, or
// recoverable-error cap reached while in collect mode with a fatal
// severity).
func (c *ErrorCollector) Record(e ParseError) bool {
	if c.Mode == ErrorModeFailFast {
		c.perChunk[e.ChunkIndex] = append(c.perChunk[e.ChunkIndex], e)
		return false
	}
	if c.Mode == ErrorModeDisabled {
		return true
	}
	if c.MaxErrors > 0 && c.Total() >= c.MaxErrors {
		return e.Severity != SeverityFatal
	}
	c.perChunk[e.ChunkIndex] = append(c.perChunk[e.ChunkIndex], e)
	return true
}

// Total returns the number of errors recorded across all chunks so far.
func (c *ErrorCollector) Total() int {
	n := 0
	for _, v := range c.perChunk {
		n += len(v)
	}
	return n
}

// Merge returns every recorded error across all chunks, ordered by chunk
// index then by row-in-chunk, matching indexer.Run's chunk-ordered error
// collection pattern.
func (c *ErrorCollector) Merge(chunkOrder []int) []ParseError {
	var out []ParseError
	for _, idx := range chunkOrder {
		out = append(out, c.perChunk[idx]...)
	}
	return out
}

// ResolveAbsoluteRows fills in RowAbs for every error in errs given each
// chunk's starting absolute row number (keyed by ChunkIndex), per the
// recorded Open Question decision to assign absolute row numbers via an
// O(num_chunks) prefix sum rather than leaving them relative.
func ResolveAbsoluteRows(errs []ParseError, chunkStartRow map[int]int) {
	for i := range errs {
		errs[i].RowAbs = chunkStartRow[errs[i].ChunkIndex] + errs[i].RowInChunk
	}
}
