package schema

import (
	"strconv"
	"strings"
)

// DefaultSampleRows is the number of post-header data rows sampled to infer
// each column's type, matching options.h's CsvOptions::sample_rows default.
const DefaultSampleRows = 1000

// InferOptions configures the classifier ladder.
type InferOptions struct {
	NullValues  map[string]struct{}
	TrueValues  map[string]struct{}
	FalseValues map[string]struct{}
	SampleRows  int
}

// DefaultInferOptions mirrors options.h's defaults: null_values =
// {"NA","null","NULL",""}, true recognized as "true"/"TRUE"/"True" and
// false as "false"/"FALSE"/"False" (exact matches, no other casings;
// locale-aware parsing is an explicit Non-goal).
func DefaultInferOptions() InferOptions {
	return InferOptions{
		NullValues:  setOf("NA", "null", "NULL", ""),
		TrueValues:  setOf("true", "TRUE", "True"),
		FalseValues: setOf("false", "FALSE", "False"),
		SampleRows:  DefaultSampleRows,
	}
}

func setOf(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

// classifyValue runs one field through the ladder Bool -> Int32 -> Int64 ->
// Float64 -> Date -> Timestamp -> String, returning Null for recognized
// null sentinels.
func classifyValue(v string, opts InferOptions) DataType {
	if _, isNull := opts.NullValues[v]; isNull {
		return Null
	}
	if _, ok := opts.TrueValues[v]; ok {
		return Bool
	}
	if _, ok := opts.FalseValues[v]; ok {
		return Bool
	}
	if isInt32(v) {
		return Int32
	}
	if isInt64(v) {
		return Int64
	}
	if isFloat64(v) {
		return Float64
	}
	if looksLikeDate(v) {
		return Date
	}
	if looksLikeTimestamp(v) {
		return Timestamp
	}
	return String
}

func isInt32(v string) bool {
	if v == "" {
		return false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return false
	}
	return n >= -(1<<31) && n <= (1<<31-1)
}

func isInt64(v string) bool {
	if v == "" {
		return false
	}
	_, err := strconv.ParseInt(v, 10, 64)
	return err == nil
}

func isFloat64(v string) bool {
	if v == "" {
		return false
	}
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

// looksLikeDate matches strict calendar dates, YYYY-MM-DD or YYYY/MM/DD
// (the separator must be consistent across both gaps), with real calendar
// validation - month in [1,12] and a leap-year-aware day-of-month bound -
// rather than a digit-shape check alone. Grounded on parse_date in
// original_source's libvroom/src/schema/type_parsers.cpp; locale-aware date
// formats remain an explicit Non-goal.
func looksLikeDate(v string) bool {
	if len(v) != 10 {
		return false
	}
	sep := v[4]
	if sep != '-' && sep != '/' {
		return false
	}
	if v[7] != sep {
		return false
	}
	if !allDigits(v[0:4]) || !allDigits(v[5:7]) || !allDigits(v[8:10]) {
		return false
	}
	year, _ := strconv.Atoi(v[0:4])
	month, _ := strconv.Atoi(v[5:7])
	day, _ := strconv.Atoi(v[8:10])
	if month < 1 || month > 12 {
		return false
	}
	return day >= 1 && day <= daysInMonth(year, month)
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

var daysInMonthTable = [...]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func daysInMonth(year, month int) int {
	if month == 2 && isLeapYear(year) {
		return 29
	}
	return daysInMonthTable[month]
}

// looksLikeTimestamp matches "YYYY-MM-DDTHH:MM:SS" or "YYYY/MM/DDTHH:MM:SS",
// with 'T' or ' ' between date and time, the original's minimal
// RFC-3339-ish surface. Any bytes after the seconds field are accepted
// without being checked.
func looksLikeTimestamp(v string) bool {
	if len(v) < 19 {
		return false
	}
	if !looksLikeDate(v[:10]) {
		return false
	}
	sep := v[10]
	if sep != 'T' && sep != ' ' {
		return false
	}
	rest := v[11:19]
	if len(rest) != 8 || rest[2] != ':' || rest[5] != ':' {
		return false
	}
	return allDigits(rest[0:2]) && allDigits(rest[3:5]) && allDigits(rest[6:8])
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// InferSchema samples up to opts.SampleRows data rows and produces a
// TableSchema, widening each column's type across the sample per the
// promotion lattice. A column with zero non-null samples infers as String
// (the lattice's safest fallback), matching the original's handling of an
// all-null sampled column.
func InferSchema(header []string, sampleRows [][]string, opts InferOptions) *TableSchema {
	cols := make([]ColumnSchema, len(header))
	for i, name := range header {
		cols[i] = ColumnSchema{Name: name, Type: Null}
	}
	rows := sampleRows
	if opts.SampleRows > 0 && len(rows) > opts.SampleRows {
		rows = rows[:opts.SampleRows]
	}
	for _, row := range rows {
		for i := range cols {
			var v string
			if i < len(row) {
				v = row[i]
			}
			t := classifyValue(v, opts)
			if t == Null {
				cols[i].Nullable = true
				continue
			}
			cols[i].Type = WiderType(cols[i].Type, t)
		}
	}
	for i := range cols {
		if cols[i].Type == Null || cols[i].Type == Unknown {
			cols[i].Type = String
			cols[i].Nullable = true
		}
	}
	return &TableSchema{Columns: cols}
}

// TrimHeaderName strips a UTF-8 BOM or surrounding whitespace a malformed
// header field might carry; used by the reader before building the schema.
func TrimHeaderName(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\xef\xbb\xbf"))
}
