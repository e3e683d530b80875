// Package schema holds the typed-column data model and the type-inference
// sampling pass, grounded on types.h's promotion lattice (tidyverse/vroom:
// Null < Bool < Int32 < Int64 < Float64 < String, with Date/Timestamp only
// ever promoting to String).
package schema

// DataType is the inferred column type, ordered so that a numerically
// larger value is always "wider" in the promotion lattice except where
// Date/Timestamp special-case promotion to String applies.
type DataType uint8

const (
	Unknown DataType = iota
	Null
	Bool
	Int32
	Int64
	Float64
	Date
	Timestamp
	String
)

func (t DataType) String() string {
	switch t {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case Date:
		return "date"
	case Timestamp:
		return "timestamp"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// CanPromote reports whether a column currently typed as `from` can accept
// a value observed to be of type `to` without loss, i.e. whether WiderType
// would change the column's type.
func CanPromote(from, to DataType) bool {
	return WiderType(from, to) != from
}

// WiderType returns the narrowest type that can represent both a and b,
// following the lattice Null < Bool < Int32 < Int64 < Float64 < String,
// with Date and Timestamp sitting outside the numeric chain: either one
// combined with anything other than itself or Null promotes straight to
// String (unchanged from types.h's can_promote/wider_type).
func WiderType(a, b DataType) DataType {
	if a == b {
		return a
	}
	if a == Null || a == Unknown {
		return b
	}
	if b == Null || b == Unknown {
		return a
	}
	if a == Date || b == Date || a == Timestamp || b == Timestamp {
		// Date/Timestamp colliding with anything but themselves (handled
		// by the a==b check above) or Null (handled above) promotes to
		// String.
		return String
	}
	if a == String || b == String {
		return String
	}
	// both are in the numeric/bool chain now; rank and take the max.
	rank := map[DataType]int{Bool: 0, Int32: 1, Int64: 2, Float64: 3}
	ra, oka := rank[a]
	rb, okb := rank[b]
	if !oka || !okb {
		return String
	}
	if ra > rb {
		return a
	}
	return b
}

// ColumnSchema describes one inferred column.
type ColumnSchema struct {
	Name     string
	Type     DataType
	Nullable bool
}

// TableSchema is the full inferred schema for a CSV file, column order
// preserved from the header row.
type TableSchema struct {
	Columns []ColumnSchema
}

// ColumnIndex returns the index of the named column, or -1 if absent.
func (s *TableSchema) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}
