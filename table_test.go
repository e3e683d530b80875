package vcsv

import "testing"

func TestTableStreamsBatchesInOrderAndReleases(t *testing.T) {
	data := "a,b\n1,x\n2,y\n3,z\n"
	r := openBuffer(t, data, DefaultReaderOptions())
	defer r.Close()

	pc, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	tbl := NewTable(pc)
	if tbl.NumRows() != 3 {
		t.Fatalf("NumRows = %d, want 3", tbl.NumRows())
	}

	var total int
	for {
		batch, ok := tbl.Next()
		if !ok {
			break
		}
		total += batch.NumRows
		batch.Release()
		batch.Release() // idempotent: must not double-decrement refs
	}
	if total != 3 {
		t.Fatalf("streamed %d rows across batches, want 3", total)
	}
	if _, ok := tbl.Next(); ok {
		t.Fatal("expected no more batches after the stream is exhausted")
	}
}

func TestTableMergedFlattensColumns(t *testing.T) {
	data := "n\n1\n2\n3\n4\n"
	r := openBuffer(t, data, DefaultReaderOptions())
	defer r.Close()

	pc, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	tbl := NewTable(pc)
	cols, err := tbl.Merged()
	if err != nil {
		t.Fatalf("Merged: %v", err)
	}
	if len(cols) != 1 {
		t.Fatalf("expected 1 column, got %d", len(cols))
	}
	if cols[0].Len() != 4 {
		t.Fatalf("merged column has %d rows, want 4", cols[0].Len())
	}
}

func TestTableMergedAfterStreamingFails(t *testing.T) {
	data := "n\n1\n2\n"
	r := openBuffer(t, data, DefaultReaderOptions())
	defer r.Close()

	pc, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	tbl := NewTable(pc)
	if _, ok := tbl.Next(); !ok {
		t.Fatal("expected at least one batch")
	}
	if _, err := tbl.Merged(); err == nil {
		t.Fatal("expected Merged to fail once streaming has begun")
	}
}
