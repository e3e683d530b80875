package builder

// Numeric constrains the element types usable in NumericBuffer: the
// fixed-width numeric column kinds named by the schema's promotion lattice;
// Date columns reuse int32 (days since the epoch) and Timestamp columns
// reuse int64 (microseconds since the epoch).
type Numeric interface {
	~int32 | ~int64 | ~float64
}

// NumericBuffer is a fixed-width column of T with a lazily-materialized
// null bitmap. Null slots store the zero value of T; the bitmap, not the
// stored value, is authoritative for validity (matching the spec's
// sentinel-value design: the stored zero is never mistaken for a real
// value because NullBitmap.IsValid is always consulted first).
type NumericBuffer[T Numeric] struct {
	Values []T
	Nulls  *NullBitmap
}

// NewNumericBuffer returns an empty NumericBuffer.
func NewNumericBuffer[T Numeric]() *NumericBuffer[T] {
	return &NumericBuffer[T]{Nulls: NewNullBitmap()}
}

// Reserve hints at the expected row count.
func (n *NumericBuffer[T]) Reserve(rows int) {
	if cap(n.Values) < rows {
		v := make([]T, len(n.Values), rows)
		copy(v, n.Values)
		n.Values = v
	}
}

// AppendValue appends one value.
func (n *NumericBuffer[T]) AppendValue(v T) {
	n.Values = append(n.Values, v)
	n.Nulls.AppendValid()
}

// AppendNull appends a null (stored as the zero value of T).
func (n *NumericBuffer[T]) AppendNull() {
	var zero T
	n.Values = append(n.Values, zero)
	n.Nulls.AppendNull()
}

// Len returns the number of rows appended.
func (n *NumericBuffer[T]) Len() int { return len(n.Values) }

// NullCount returns the number of null rows.
func (n *NumericBuffer[T]) NullCount() int { return n.Nulls.NullCount() }

// MergeFrom appends another buffer's rows after this one's.
func (n *NumericBuffer[T]) MergeFrom(other *NumericBuffer[T]) {
	n.Values = append(n.Values, other.Values...)
	n.Nulls.Append(other.Nulls)
}
