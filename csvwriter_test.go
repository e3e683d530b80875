package vcsv

import (
	"bytes"
	"testing"
)

func TestWriteCSVRoundTripsThroughReadAll(t *testing.T) {
	original := "id,name,score\n1,alice,3.5\n2,bob,4.25\n3,carol,1\n"
	r := openBuffer(t, original, DefaultReaderOptions())
	defer r.Close()

	pc, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	tbl := NewTable(pc)

	var buf bytes.Buffer
	if err := WriteCSVTo(&buf, tbl, CsvWriterConfig{}); err != nil {
		t.Fatalf("WriteCSVTo: %v", err)
	}

	r2 := New(DefaultReaderOptions())
	if err := r2.OpenFromBuffer(buf.Bytes()); err != nil {
		t.Fatalf("re-Open round-tripped CSV: %v", err)
	}
	defer r2.Close()

	pc2, err := r2.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll round-tripped CSV: %v", err)
	}
	if len(r2.Schema().Columns) != len(pc.Schema.Columns) {
		t.Fatalf("schema column count changed across round-trip: %d vs %d",
			len(r2.Schema().Columns), len(pc.Schema.Columns))
	}

	rows1, rows2 := 0, 0
	for _, c := range pc.Chunks {
		rows1 += c.Rows
	}
	for _, c := range pc2.Chunks {
		rows2 += c.Rows
	}
	if rows1 != rows2 {
		t.Fatalf("row count changed across round-trip: %d vs %d", rows1, rows2)
	}
}

func TestWriteCSVEmitsHeaderRow(t *testing.T) {
	r := openBuffer(t, "x,y\n1,2\n", DefaultReaderOptions())
	defer r.Close()
	pc, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	tbl := NewTable(pc)

	var buf bytes.Buffer
	if err := WriteCSVTo(&buf, tbl, CsvWriterConfig{}); err != nil {
		t.Fatalf("WriteCSVTo: %v", err)
	}
	if got := buf.String(); got[:4] != "x,y\n" {
		t.Fatalf("expected header row first, got %q", got)
	}
}
