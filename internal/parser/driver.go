package parser

import (
	"fmt"

	"github.com/csvquery/vcsv/internal/builder"
	"github.com/csvquery/vcsv/internal/planner"
	"github.com/csvquery/vcsv/internal/schema"
	"github.com/csvquery/vcsv/internal/simdscan"
)

// Result is one chunk's parsed output: a column builder per schema column
// and the number of complete rows appended.
type Result struct {
	Columns []builder.ColumnBuilder
	Rows    int
}

// ParseChunk runs the 4-step driver over one planned chunk range: discard a
// partial leading row if the chunk starts mid-quote, scan rows via the
// shared FieldScanner, pad/truncate each row to the schema width, and
// append every field through its column's devirtualized AppendContext.
// Per-row/per-field problems are reported to collector; the chunk is always
// parsed to its end, in every ErrorMode, because Record's return value is
// not consulted. maxFieldSize caps a raw
// field's byte length before it is even unquoted (0 means unlimited);
// fields over the cap are truncated and recorded as KindFieldTooLarge
// rather than dropping the whole row.
func ParseChunk(data []byte, cr planner.ChunkRange, sch *schema.TableSchema, sep, quote byte, trueVals, falseVals map[string]struct{}, maxFieldSize int, collector *ErrorCollector) Result {
	cols := make([]builder.ColumnBuilder, len(sch.Columns))
	for i, c := range sch.Columns {
		cols[i] = builder.NewColumnBuilder(c.Type)
	}
	ctxs := make([]builder.AppendContext, len(cols))
	for i, c := range cols {
		ctxs[i] = builder.NewAppendContext(c, trueVals, falseVals)
	}

	// Bound the scanner to this chunk's byte range: the next chunk resumes
	// exactly at cr.End, so the scanner must never read past it or rows
	// would be double-counted across chunks.
	bounded := data[:cr.End]
	start := cr.Start
	fs := simdscan.NewFieldScanner(bounded, start, cr.StartsInsideQuote, sep, quote)

	if cr.StartsInsideQuote {
		// Discard every field up to and including the first row-ending
		// boundary: it belongs to the row the previous chunk already owns.
		for {
			_, endsRow, ok := fs.Next()
			if !ok {
				return Result{Columns: cols, Rows: 0}
			}
			if endsRow {
				break
			}
		}
	}

	rowFields := make([][]byte, 0, len(sch.Columns))
	rowIdx := 0
	for {
		field, endsRow, ok := fs.Next()
		if !ok {
			break
		}
		rowFields = append(rowFields, field)
		if !endsRow {
			continue
		}
		appendRow(rowFields, cols, ctxs, sch, quote, cr.Index, rowIdx, maxFieldSize, collector)
		rowFields = rowFields[:0]
		rowIdx++
	}
	if len(rowFields) > 0 {
		appendRow(rowFields, cols, ctxs, sch, quote, cr.Index, rowIdx, maxFieldSize, collector)
		rowIdx++
	}
	return Result{Columns: cols, Rows: rowIdx}
}

func appendRow(rowFields [][]byte, cols []builder.ColumnBuilder, ctxs []builder.AppendContext, sch *schema.TableSchema, quote byte, chunkIdx, rowIdx, maxFieldSize int, collector *ErrorCollector) {
	n := len(sch.Columns)
	for i := 0; i < n; i++ {
		var raw []byte
		if i < len(rowFields) {
			raw = rowFields[i]
		}
		if maxFieldSize > 0 && len(raw) > maxFieldSize {
			collector.Record(ParseError{
				Kind: KindFieldTooLarge, Severity: SeverityRecoverable,
				ChunkIndex: chunkIdx, RowInChunk: rowIdx, ColIndex: i,
				Message: fmt.Sprintf("field is %d bytes, exceeds the %d-byte limit", len(raw), maxFieldSize),
			})
			raw = raw[:maxFieldSize]
		}
		value, wasQuoted, ok := Unquote(raw, quote)
		if !ok {
			kind := KindInvalidQuoteEscape
			msg := "invalid quote escape in field"
			if Unterminated(raw, quote) {
				kind = KindUnterminatedQuote
				msg = "unterminated quoted field"
			}
			collector.Record(ParseError{
				Kind: kind, Severity: SeverityRecoverable,
				ChunkIndex: chunkIdx, RowInChunk: rowIdx, ColIndex: i,
				Message: msg,
			})
			if kind == KindUnterminatedQuote && len(value) > 0 {
				if err := ctxs[i].AppendValue(string(value)); err != nil {
					ctxs[i].AppendNull()
				}
			} else {
				ctxs[i].AppendNull()
			}
			continue
		}
		if !wasQuoted && HasBareQuote(raw, quote) {
			collector.Record(ParseError{
				Kind: KindQuoteInUnquotedField, Severity: SeverityRecoverable,
				ChunkIndex: chunkIdx, RowInChunk: rowIdx, ColIndex: i,
				Message: "quote character in unquoted field",
			})
		}
		if hasNullByte(value) {
			collector.Record(ParseError{
				Kind: KindNullByte, Severity: SeverityWarning,
				ChunkIndex: chunkIdx, RowInChunk: rowIdx, ColIndex: i,
				Message: "field contains a NUL byte",
			})
		}
		if i >= len(rowFields) {
			ctxs[i].AppendNull()
			continue
		}
		if len(value) == 0 {
			ctxs[i].AppendNull()
			continue
		}
		if err := ctxs[i].AppendValue(string(value)); err != nil {
			collector.Record(ParseError{
				Kind: KindTypeMismatch, Severity: SeverityRecoverable,
				ChunkIndex: chunkIdx, RowInChunk: rowIdx, ColIndex: i,
				Message: err.Error(),
			})
			ctxs[i].AppendNull()
		}
	}
	if len(rowFields) < n {
		collector.Record(ParseError{
			Kind: KindTooFewFields, Severity: SeverityRecoverable,
			ChunkIndex: chunkIdx, RowInChunk: rowIdx,
			Message: "row has fewer fields than the header",
		})
	} else if len(rowFields) > n {
		collector.Record(ParseError{
			Kind: KindTooManyFields, Severity: SeverityRecoverable,
			ChunkIndex: chunkIdx, RowInChunk: rowIdx,
			Message: "row has more fields than the header",
		})
	}
}

// hasNullByte reports whether an unquoted field value contains a NUL byte,
// which is legal UTF-8 but never legitimate CSV field content.
func hasNullByte(value []byte) bool {
	for _, b := range value {
		if b == 0 {
			return true
		}
	}
	return false
}
