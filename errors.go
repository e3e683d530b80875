package vcsv

import (
	"fmt"

	"github.com/csvquery/vcsv/internal/parser"
)

// Per-field/per-row error taxonomy, re-exported from internal/parser so
// callers never need to import an internal package to inspect a
// ConvertResult's ParseErrors. Kind names follow the driver's own
// classification (TooFewFields/TooManyFields stand in for the distilled
// spec's InconsistentFieldCount, UnterminatedQuote for UnclosedQuote).
type (
	ErrorKind  = parser.ErrorKind
	Severity   = parser.Severity
	ParseError = parser.ParseError
)

const (
	KindTooFewFields         = parser.KindTooFewFields
	KindTooManyFields        = parser.KindTooManyFields
	KindQuoteInUnquotedField = parser.KindQuoteInUnquotedField
	KindUnterminatedQuote    = parser.KindUnterminatedQuote
	KindInvalidQuoteEscape   = parser.KindInvalidQuoteEscape
	KindTypeMismatch         = parser.KindTypeMismatch
	KindNullByte             = parser.KindNullByte
	KindFieldTooLarge        = parser.KindFieldTooLarge

	SeverityWarning     = parser.SeverityWarning
	SeverityRecoverable = parser.SeverityRecoverable
	SeverityFatal       = parser.SeverityFatal
)

// Header-time errors: produced by Open/OpenFromBuffer before any chunk is
// parsed, and can fail the open outright (matching §6's "header-time
// errors ... can fail open()" propagation policy).
var (
	ErrEmptyHeader         = fmt.Errorf("vcsv: empty header")
	ErrDuplicateColumnName = fmt.Errorf("vcsv: duplicate column name in header")
)

// ErrEncoding is the fatal error §6/§4.2 name EncodingError: the detected
// source encoding's transcoder rejected the payload (a truncated or
// otherwise malformed wide-character byte stream). Unlike a per-field
// ParseError, this can only occur before any chunk parsing begins and
// always fails Open/OpenFromBuffer outright.
var ErrEncoding = fmt.Errorf("vcsv: encoding")

// DuplicateColumnError names the offending column for a
// ErrDuplicateColumnName failure.
type DuplicateColumnError struct {
	Name string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("vcsv: duplicate column name %q in header", e.Name)
}

func (e *DuplicateColumnError) Unwrap() error { return ErrDuplicateColumnName }
