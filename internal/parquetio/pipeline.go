package parquetio

import (
	"fmt"
	"io"
	"sync"

	"github.com/csvquery/vcsv/internal/builder"
	"github.com/csvquery/vcsv/internal/compressor"
	"github.com/csvquery/vcsv/internal/schema"
	"github.com/csvquery/vcsv/internal/stream"
)

// MergeRowThreshold is the minimum row count a numeric-only batch of
// chunks accumulates to before it is flushed as one row group, avoiding the
// page-fragmentation a one-row-group-per-parser-chunk policy would cause
// for narrow, all-numeric schemas.
const MergeRowThreshold = 262_144

// ChunkColumns is one parser chunk's finalized columns, in schema column
// order, ready to be batched into a row group and encoded.
type ChunkColumns struct {
	Index   int
	NumRows int
	Columns []builder.ColumnBuilder
}

// hasStringColumn reports whether sch contains any String column, which
// governs the row-group batching policy below.
func hasStringColumn(sch *schema.TableSchema) bool {
	for _, c := range sch.Columns {
		if c.Type == schema.String {
			return true
		}
	}
	return false
}

// rowGroupInput is one fully batched, not-yet-encoded row group, assigned a
// strictly ascending Index matching the order chunks arrived in.
type rowGroupInput struct {
	Index   int
	NumRows int
	Columns []builder.ColumnBuilder
}

// batchRowGroups consumes chunks in arrival order and groups them into row
// groups per the batching policy from SPEC_FULL.md §4.12: schemas with a
// String column emit one row group per parser chunk (a wide string page
// is already worth writing on its own); numeric-only schemas accumulate
// chunks via ColumnBuilder.MergeFrom until MergeRowThreshold rows, bounding
// per-row-group overhead for narrow numeric tables. Chunks must already
// arrive in strictly ascending Index order - the caller is responsible for
// that (e.g. by draining its own OrderedQueue upstream of this stage).
func batchRowGroups(sch *schema.TableSchema, chunks <-chan ChunkColumns) <-chan rowGroupInput {
	out := make(chan rowGroupInput)
	go func() {
		defer close(out)
		merge := !hasStringColumn(sch)
		var pending *rowGroupInput
		groupIdx := 0
		flush := func() {
			if pending == nil || pending.NumRows == 0 {
				pending = nil
				return
			}
			pending.Index = groupIdx
			groupIdx++
			out <- *pending
			pending = nil
		}
		for cc := range chunks {
			if !merge {
				out <- rowGroupInput{Index: groupIdx, NumRows: cc.NumRows, Columns: cc.Columns}
				groupIdx++
				continue
			}
			if pending == nil {
				pending = &rowGroupInput{NumRows: cc.NumRows, Columns: cc.Columns}
			} else {
				for i, col := range pending.Columns {
					col.MergeFrom(cc.Columns[i])
				}
				pending.NumRows += cc.NumRows
			}
			if pending.NumRows >= MergeRowThreshold {
				flush()
			}
		}
		flush()
	}()
	return out
}

// RunPipeline drives Stage E (parallel per-row-group column encoding) and
// Stage W (single ordered writer), grounded on Sorter's
// buffer-then-worker-pool-then-ordered-output shape: producers (the
// numWorkers encode goroutines) may finish row groups out of order, but an
// OrderedQueue re-serializes them into submission order before
// ContainerWriter ever sees them, exactly as kWayMerge's heap re-serializes
// Sorter's chunk outputs into sorted order before the BlockWriter sees them.
func RunPipeline(w io.Writer, sch *schema.TableSchema, compName string, chunks <-chan ChunkColumns, encoder PageEncoder, numWorkers int) error {
	if numWorkers < 1 {
		numWorkers = 1
	}
	comp := compressor.Default
	cw, err := NewContainerWriter(w, sch, compName)
	if err != nil {
		return err
	}

	groups := batchRowGroups(sch, chunks)
	queue := stream.NewOrderedQueue[EncodedRowGroup](4)

	var wg sync.WaitGroup
	errCh := make(chan error, numWorkers+1)
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rg := range groups {
				encoded, err := encodeRowGroup(rg, sch, encoder, comp)
				if err != nil {
					errCh <- err
					queue.Close()
					return
				}
				if err := queue.Push(encoded.Index, encoded); err != nil {
					errCh <- err
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		queue.Close()
	}()

	for {
		rg, ok := queue.Pop()
		if !ok {
			break
		}
		if err := cw.WriteRowGroup(rg); err != nil {
			return fmt.Errorf("parquetio: write row group %d: %w", rg.Index, err)
		}
	}

	select {
	case err := <-errCh:
		return err
	default:
	}

	return cw.Finish()
}

func encodeRowGroup(rg rowGroupInput, sch *schema.TableSchema, encoder PageEncoder, comp compressor.Compressor) (EncodedRowGroup, error) {
	cols := make([]EncodedColumn, len(rg.Columns))
	for i, col := range rg.Columns {
		name := sch.Columns[i].Name
		enc, err := encoder.EncodeColumn(name, col, comp)
		if err != nil {
			return EncodedRowGroup{}, fmt.Errorf("parquetio: encode row group %d column %s: %w", rg.Index, name, err)
		}
		cols[i] = enc
	}
	return EncodedRowGroup{Index: rg.Index, NumRows: rg.NumRows, Columns: cols}, nil
}
