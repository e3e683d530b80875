package builder

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"

	"github.com/csvquery/vcsv/internal/schema"
)

// ColumnBuilder is the uniform, boxed handle over one of the seven typed
// buffer variants a chunk parser appends into. The per-value append path
// never goes through this interface - see AppendContext - but it is used
// for chunk-level bookkeeping (reserve, finalize, merge, null_count) where
// dispatch cost does not matter.
type ColumnBuilder interface {
	Len() int
	NullCount() int
	Type() schema.DataType
	MergeFrom(other ColumnBuilder)
	// RawBytes returns the column's values serialized little-endian
	// (numeric variants) or as offsets+data (string variant), for the
	// Parquet-shaped encode pipeline's page encoder.
	RawBytes() []byte
	// StringValue renders row's value in the same textual convention
	// schema.classifyValue accepts, and reports whether the row is valid
	// (a false ok means null - the caller should emit an empty field).
	// Used by the CSV writer's round-trip path instead of a type switch
	// over builder's unexported variants.
	StringValue(row int) (value string, ok bool)
}

// Column is a finalized, immutable column ready for export to a Table or
// the Parquet encode pipeline.
type Column struct {
	Name    string
	Type    schema.DataType
	Builder ColumnBuilder
}

// NewColumnBuilder allocates the builder variant matching t.
func NewColumnBuilder(t schema.DataType) ColumnBuilder {
	switch t {
	case schema.Bool:
		return &boolBuilder{NumericBuffer: NewNumericBuffer[int32]()}
	case schema.Int32:
		return &int32Builder{NumericBuffer: NewNumericBuffer[int32]()}
	case schema.Int64:
		return &int64Builder{NumericBuffer: NewNumericBuffer[int64]()}
	case schema.Float64:
		return &float64Builder{NumericBuffer: NewNumericBuffer[float64]()}
	case schema.Date:
		return &dateBuilder{NumericBuffer: NewNumericBuffer[int32]()}
	case schema.Timestamp:
		return &timestampBuilder{NumericBuffer: NewNumericBuffer[int64]()}
	default:
		return &stringBuilder{StringBuffer: NewStringBuffer()}
	}
}

// boolBuilder stores 0/1 in an int32 lane (Arrow packs booleans bit-wise on
// the wire; this module keeps the in-memory representation simple since
// bit-packing is an on-disk/FFI concern out of this module's scope).
type boolBuilder struct{ *NumericBuffer[int32] }

func (b *boolBuilder) Type() schema.DataType { return schema.Bool }
func (b *boolBuilder) MergeFrom(other ColumnBuilder) {
	b.NumericBuffer.MergeFrom(other.(*boolBuilder).NumericBuffer)
}
func (b *boolBuilder) RawBytes() []byte { return int32RawBytes(b.Values) }
func (b *boolBuilder) StringValue(row int) (string, bool) {
	if !b.Nulls.IsValid(row) {
		return "", false
	}
	if b.Values[row] != 0 {
		return "true", true
	}
	return "false", true
}

type int32Builder struct{ *NumericBuffer[int32] }

func (b *int32Builder) Type() schema.DataType { return schema.Int32 }
func (b *int32Builder) MergeFrom(other ColumnBuilder) {
	b.NumericBuffer.MergeFrom(other.(*int32Builder).NumericBuffer)
}
func (b *int32Builder) RawBytes() []byte { return int32RawBytes(b.Values) }
func (b *int32Builder) StringValue(row int) (string, bool) {
	if !b.Nulls.IsValid(row) {
		return "", false
	}
	return strconv.FormatInt(int64(b.Values[row]), 10), true
}

type int64Builder struct{ *NumericBuffer[int64] }

func (b *int64Builder) Type() schema.DataType { return schema.Int64 }
func (b *int64Builder) MergeFrom(other ColumnBuilder) {
	b.NumericBuffer.MergeFrom(other.(*int64Builder).NumericBuffer)
}
func (b *int64Builder) RawBytes() []byte { return int64RawBytes(b.Values) }
func (b *int64Builder) StringValue(row int) (string, bool) {
	if !b.Nulls.IsValid(row) {
		return "", false
	}
	return strconv.FormatInt(b.Values[row], 10), true
}

type float64Builder struct{ *NumericBuffer[float64] }

func (b *float64Builder) Type() schema.DataType { return schema.Float64 }
func (b *float64Builder) MergeFrom(other ColumnBuilder) {
	b.NumericBuffer.MergeFrom(other.(*float64Builder).NumericBuffer)
}
func (b *float64Builder) RawBytes() []byte { return float64RawBytes(b.Values) }
func (b *float64Builder) StringValue(row int) (string, bool) {
	if !b.Nulls.IsValid(row) {
		return "", false
	}
	return strconv.FormatFloat(b.Values[row], 'g', -1, 64), true
}

// dateBuilder stores days-since-epoch in an int32 lane.
type dateBuilder struct{ *NumericBuffer[int32] }

func (b *dateBuilder) Type() schema.DataType { return schema.Date }
func (b *dateBuilder) MergeFrom(other ColumnBuilder) {
	b.NumericBuffer.MergeFrom(other.(*dateBuilder).NumericBuffer)
}
func (b *dateBuilder) RawBytes() []byte { return int32RawBytes(b.Values) }
func (b *dateBuilder) StringValue(row int) (string, bool) {
	if !b.Nulls.IsValid(row) {
		return "", false
	}
	t := time.Unix(int64(b.Values[row])*86400, 0).UTC()
	return t.Format("2006-01-02"), true
}

// timestampBuilder stores microseconds-since-epoch in an int64 lane.
type timestampBuilder struct{ *NumericBuffer[int64] }

func (b *timestampBuilder) Type() schema.DataType { return schema.Timestamp }
func (b *timestampBuilder) MergeFrom(other ColumnBuilder) {
	b.NumericBuffer.MergeFrom(other.(*timestampBuilder).NumericBuffer)
}
func (b *timestampBuilder) RawBytes() []byte { return int64RawBytes(b.Values) }
func (b *timestampBuilder) StringValue(row int) (string, bool) {
	if !b.Nulls.IsValid(row) {
		return "", false
	}
	t := time.UnixMicro(b.Values[row]).UTC()
	return t.Format("2006-01-02T15:04:05"), true
}

type stringBuilder struct{ *StringBuffer }

func (b *stringBuilder) Type() schema.DataType { return schema.String }
func (b *stringBuilder) MergeFrom(other ColumnBuilder) {
	b.StringBuffer.MergeFrom(other.(*stringBuilder).StringBuffer)
}
func (b *stringBuilder) StringValue(row int) (string, bool) {
	if !b.Nulls.IsValid(row) {
		return "", false
	}
	return b.Value(row), true
}

// RawBytes serializes the string column as a little-endian int32 offset
// count, the offsets themselves, then the raw data bytes - self-describing
// enough for the reader side to reconstruct a StringBuffer without the
// schema's help.
func (b *stringBuilder) RawBytes() []byte {
	out := make([]byte, 4+4*len(b.Offsets)+len(b.Data))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(b.Offsets)))
	pos := 4
	for _, off := range b.Offsets {
		binary.LittleEndian.PutUint32(out[pos:pos+4], uint32(off))
		pos += 4
	}
	copy(out[pos:], b.Data)
	return out
}

func int32RawBytes(values []int32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], uint32(v))
	}
	return out
}

func int64RawBytes(values []int64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], uint64(v))
	}
	return out
}

func float64RawBytes(values []float64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], math.Float64bits(v))
	}
	return out
}
