package simdscan

import (
	"testing"
)

func padded(s string) []byte {
	b := make([]byte, len(s)+64)
	copy(b, s)
	return b[:len(s)]
}

func TestFieldScannerSimpleRows(t *testing.T) {
	data := padded("a,b,c\n1,2,3\n")
	fs := NewFieldScanner(data, 0, false, ',', '"')
	var got [][]byte
	var rowEnds []bool
	for {
		f, endsRow, ok := fs.Next()
		if !ok {
			break
		}
		got = append(got, append([]byte(nil), f...))
		rowEnds = append(rowEnds, endsRow)
	}
	want := []string{"a", "b", "c", "1", "2", "3"}
	if len(got) != len(want) {
		t.Fatalf("got %d fields, want %d: %v", len(got), len(want), got)
	}
	for i, w := range want {
		if string(got[i]) != w {
			t.Fatalf("field %d = %q, want %q", i, got[i], w)
		}
	}
	wantRowEnd := []bool{false, false, true, false, false, true}
	for i, w := range wantRowEnd {
		if rowEnds[i] != w {
			t.Fatalf("field %d endsRow = %v, want %v", i, rowEnds[i], w)
		}
	}
}

func TestFieldScannerQuotedFieldWithDelimiter(t *testing.T) {
	data := padded(`"hello, world",2` + "\n")
	fs := NewFieldScanner(data, 0, false, ',', '"')
	f1, end1, ok := fs.Next()
	if !ok || string(f1) != `"hello, world"` {
		t.Fatalf("field 1 = %q, ok=%v", f1, ok)
	}
	if end1 {
		t.Fatalf("field 1 should not end row")
	}
	f2, end2, ok := fs.Next()
	if !ok || string(f2) != "2" {
		t.Fatalf("field 2 = %q, ok=%v", f2, ok)
	}
	if !end2 {
		t.Fatalf("field 2 should end row")
	}
}

func TestFieldScannerNoTrailingNewline(t *testing.T) {
	data := padded("x,y")
	fs := NewFieldScanner(data, 0, false, ',', '"')
	f1, _, _ := fs.Next()
	if string(f1) != "x" {
		t.Fatalf("field 1 = %q", f1)
	}
	f2, end2, ok := fs.Next()
	if !ok || string(f2) != "y" {
		t.Fatalf("field 2 = %q ok=%v", f2, ok)
	}
	if !end2 {
		t.Fatalf("last field without trailing newline should still end its row")
	}
	if _, _, ok := fs.Next(); ok {
		t.Fatalf("expected no more fields")
	}
}

func TestFieldScannerSpansMultipleBlocks(t *testing.T) {
	// Build a CSV wider than one 64-byte block to exercise the
	// block-boundary carry path.
	row := "aaaaaaaaaa,bbbbbbbbbb,cccccccccc,dddddddddd,eeeeeeeeee\n"
	data := padded(row + row)
	fs := NewFieldScanner(data, 0, false, ',', '"')
	count := 0
	rows := 0
	for {
		_, endsRow, ok := fs.Next()
		if !ok {
			break
		}
		count++
		if endsRow {
			rows++
		}
	}
	if count != 10 {
		t.Fatalf("got %d fields, want 10", count)
	}
	if rows != 2 {
		t.Fatalf("got %d rows, want 2", rows)
	}
}

func TestDualStateAnalyzeAgreesWithActualStart(t *testing.T) {
	data := padded("a,b\nc,d\ne,f\n")
	ca := DualStateAnalyze(data, 0, len(data), ',', '"')
	if ca.RowsIfStartOutside != 3 {
		t.Fatalf("RowsIfStartOutside = %d, want 3", ca.RowsIfStartOutside)
	}
	if ca.EndsInsideIfStartOutside {
		t.Fatalf("expected chunk to end outside a quote")
	}
	if ca.EndsInsideIfStartInside() {
		t.Fatalf("EndsInsideIfStartInside should be the complement (false)")
	}
}

func TestDualStateAnalyzeUnterminatedQuoteAtStart(t *testing.T) {
	// If this chunk actually begins mid-quote (continuing a field opened
	// in a previous chunk), the inside-start hypothesis should count the
	// row differently than the outside-start hypothesis once the quote
	// closes.
	data := padded(`still quoted",next` + "\n")
	ca := DualStateAnalyze(data, 0, len(data), ',', '"')
	if ca.RowsIfStartOutside == ca.RowsIfStartInside {
		t.Fatalf("expected the two hypotheses to diverge: got %d vs %d", ca.RowsIfStartOutside, ca.RowsIfStartInside)
	}
}
