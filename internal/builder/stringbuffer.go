package builder

// StringBuffer is the Arrow-style variable-length string column builder:
// a single contiguous data buffer plus a monotone offsets array (length
// rowCount+1), so value i is Data[Offsets[i]:Offsets[i+1]].
type StringBuffer struct {
	Data    []byte
	Offsets []int32
	Nulls   *NullBitmap
}

// NewStringBuffer returns an empty StringBuffer with offsets seeded [0].
func NewStringBuffer() *StringBuffer {
	return &StringBuffer{Offsets: []int32{0}, Nulls: NewNullBitmap()}
}

// Reserve hints at expected row/byte counts to reduce reallocation.
func (s *StringBuffer) Reserve(rows, bytes int) {
	if cap(s.Offsets) < rows+1 {
		n := make([]int32, len(s.Offsets), rows+1)
		copy(n, s.Offsets)
		s.Offsets = n
	}
	if cap(s.Data) < bytes {
		n := make([]byte, len(s.Data), bytes)
		copy(n, s.Data)
		s.Data = n
	}
}

// AppendValue appends one string value.
func (s *StringBuffer) AppendValue(v string) {
	s.Data = append(s.Data, v...)
	s.Offsets = append(s.Offsets, int32(len(s.Data)))
	s.Nulls.AppendValid()
}

// AppendNull appends a null: offset repeats (zero-length slot) and the
// bitmap records invalidity.
func (s *StringBuffer) AppendNull() {
	s.Offsets = append(s.Offsets, int32(len(s.Data)))
	s.Nulls.AppendNull()
}

// Len returns the number of rows appended.
func (s *StringBuffer) Len() int { return len(s.Offsets) - 1 }

// Value returns row i's string value (undefined if null).
func (s *StringBuffer) Value(i int) string {
	return string(s.Data[s.Offsets[i]:s.Offsets[i+1]])
}

// NullCount returns the number of null rows.
func (s *StringBuffer) NullCount() int { return s.Nulls.NullCount() }

// MergeFrom appends another StringBuffer's rows after this one's, used to
// assemble row-group-sized builders from parser-chunk-sized ones.
func (s *StringBuffer) MergeFrom(other *StringBuffer) {
	base := int32(len(s.Data))
	s.Data = append(s.Data, other.Data...)
	for _, off := range other.Offsets[1:] {
		s.Offsets = append(s.Offsets, base+off)
	}
	s.Nulls.Append(other.Nulls)
}
