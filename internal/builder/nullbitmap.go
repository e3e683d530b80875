// Package builder implements the Arrow-style column builder variants:
// lazy NullBitmap, StringBuffer (data+offsets), generic NumericBuffer[T],
// and the devirtualized per-chunk append context that binds them without
// virtual dispatch in the per-value hot loop.
package builder

// NullBitmap tracks per-row validity lazily: while every appended value has
// been non-null, no bit storage is allocated at all and NullCount is always
// zero. The first AppendNull materializes the bitmap retroactively for all
// rows appended so far.
type NullBitmap struct {
	bits     []uint64
	len      int
	nullCnt  int
	lazy     bool // true once materialized
}

// NewNullBitmap returns a bitmap starting in lazy (no-nulls-yet) state.
func NewNullBitmap() *NullBitmap {
	return &NullBitmap{}
}

// AppendValid records one more valid (non-null) row.
func (b *NullBitmap) AppendValid() {
	if !b.lazy {
		b.len++
		return
	}
	b.growTo(b.len + 1)
	b.setBit(b.len, true)
	b.len++
}

// AppendNull records one more null row, materializing the bitmap on first
// use.
func (b *NullBitmap) AppendNull() {
	if !b.lazy {
		b.materialize()
	}
	b.growTo(b.len + 1)
	b.setBit(b.len, false)
	b.len++
	b.nullCnt++
}

func (b *NullBitmap) materialize() {
	b.lazy = true
	words := (b.len + 63) / 64
	b.bits = make([]uint64, words)
	for i := 0; i < b.len; i++ {
		b.setBit(i, true)
	}
}

func (b *NullBitmap) growTo(n int) {
	words := (n + 63) / 64
	for len(b.bits) < words {
		b.bits = append(b.bits, 0)
	}
}

func (b *NullBitmap) setBit(i int, valid bool) {
	word, bit := i/64, uint(i%64)
	if valid {
		b.bits[word] |= 1 << bit
	} else {
		b.bits[word] &^= 1 << bit
	}
}

// IsValid reports whether row i is non-null.
func (b *NullBitmap) IsValid(i int) bool {
	if !b.lazy {
		return true
	}
	word, bit := i/64, uint(i%64)
	return b.bits[word]&(1<<bit) != 0
}

// Len returns the number of rows recorded.
func (b *NullBitmap) Len() int { return b.len }

// NullCount returns the number of null rows recorded so far.
func (b *NullBitmap) NullCount() int { return b.nullCnt }

// Materialized reports whether bitmap storage has been allocated.
func (b *NullBitmap) Materialized() bool { return b.lazy }

// Append appends another bitmap's rows after this one's, used when merging
// parser-chunk-sized builders into row-group-sized ones (merge_from).
func (b *NullBitmap) Append(other *NullBitmap) {
	if !other.lazy {
		for i := 0; i < other.len; i++ {
			b.AppendValid()
		}
		return
	}
	for i := 0; i < other.len; i++ {
		if other.IsValid(i) {
			b.AppendValid()
		} else {
			b.AppendNull()
		}
	}
}
