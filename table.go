package vcsv

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/csvquery/vcsv/internal/builder"
	"github.com/csvquery/vcsv/internal/parser"
	"github.com/csvquery/vcsv/internal/schema"
)

// RecordBatch is one source chunk's worth of columns, the unit an
// ArrowArrayStream emits one at a time. Columns are exposed through the
// builder.ColumnBuilder handle rather than a raw pointer array: this is a
// Go-side rendition of the Arrow C Data Interface contract (stable,
// ref-counted buffers plus an explicit release step), not the C ABI struct
// layout itself - no cgo crosses this boundary.
type RecordBatch struct {
	Schema  *schema.TableSchema
	Columns []builder.ColumnBuilder
	NumRows int

	released int32
	onRelease func()
}

// Release marks the batch's buffers free for reuse by decrementing the
// owning Table's refcount. Idempotent: a second Release is a no-op, the
// same guarantee the Arrow C Data Interface's release callbacks make.
func (rb *RecordBatch) Release() {
	if atomic.CompareAndSwapInt32(&rb.released, 0, 1) && rb.onRelease != nil {
		rb.onRelease()
	}
}

// Table owns a completed set of RecordBatches (one per source chunk) and
// streams them out one at a time via Next, in source order, following the
// ArrowArrayStream pull contract: get_schema once, then repeated get_next
// until a nil/end-of-stream marker, with an explicit release step per
// array. The Table keeps every batch's buffers alive (via refcount) until
// the full stream has been released, matching spec.md's "Table's refcount
// keeps buffers alive until the stream is released" requirement.
type Table struct {
	mu      sync.Mutex
	schema  *schema.TableSchema
	batches []*RecordBatch
	next    int
	refs    int32
}

// NewTable assembles a Table from a completed ReadAll result, wrapping
// each chunk's columns as one RecordBatch.
func NewTable(pc *ParsedChunks) *Table {
	t := &Table{schema: pc.Schema, refs: int32(len(pc.Chunks))}
	t.batches = make([]*RecordBatch, len(pc.Chunks))
	for i, c := range pc.Chunks {
		t.batches[i] = &RecordBatch{
			Schema:    pc.Schema,
			Columns:   c.Columns,
			NumRows:   c.Rows,
			onRelease: t.releaseOne,
		}
	}
	return t
}

func (t *Table) releaseOne() {
	if atomic.AddInt32(&t.refs, -1) == 0 {
		// Every batch has been released; nothing further pins the
		// underlying column buffers, so they become eligible for GC.
		t.mu.Lock()
		t.batches = nil
		t.mu.Unlock()
	}
}

// Schema implements the ArrowArrayStream get_schema call: valid for the
// life of the Table regardless of streaming progress.
func (t *Table) Schema() *schema.TableSchema { return t.schema }

// NumBatches returns the total RecordBatch count the stream will emit.
func (t *Table) NumBatches() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.batches)
}

// Next implements the ArrowArrayStream get_next call: returns the next
// batch in source order, or ok=false once every batch has been delivered.
// The caller must call Release on every batch it receives.
func (t *Table) Next() (batch *RecordBatch, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.next >= len(t.batches) {
		return nil, false
	}
	b := t.batches[t.next]
	t.next++
	return b, true
}

// NumRows sums every batch's row count.
func (t *Table) NumRows() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, b := range t.batches {
		n += b.NumRows
	}
	return n
}

// Merged flattens every remaining batch's columns into one builder per
// schema column. Intended for callers that want a single contiguous Table
// rather than the streamed RecordBatch-per-chunk shape - the common case
// for an in-process consumer that is not itself speaking Arrow FFI.
func (t *Table) Merged() ([]builder.ColumnBuilder, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.next != 0 {
		return nil, fmt.Errorf("vcsv: Merged called after streaming has begun")
	}
	results := make([]parser.Result, len(t.batches))
	for i, b := range t.batches {
		results[i] = parser.Result{Columns: b.Columns, Rows: b.NumRows}
	}
	return mergedColumns(t.schema, results), nil
}
