package parser

import (
	"testing"

	"github.com/csvquery/vcsv/internal/planner"
	"github.com/csvquery/vcsv/internal/schema"
)

func padded(s string) []byte {
	b := make([]byte, len(s)+64)
	copy(b, s)
	return b
}

func TestParseChunkBasic(t *testing.T) {
	csv := "1,alice,3.5\n2,bob,4.25\n"
	data := padded(csv)
	sch := &schema.TableSchema{Columns: []schema.ColumnSchema{
		{Name: "id", Type: schema.Int32},
		{Name: "name", Type: schema.String},
		{Name: "score", Type: schema.Float64},
	}}
	cr := planner.ChunkRange{Index: 0, Start: 0, End: len(csv)}
	collector := NewErrorCollector(ErrorModeCollect, 0)
	res := ParseChunk(data, cr, sch, ',', '"', nil, nil, 0, collector)
	if res.Rows != 2 {
		t.Fatalf("Rows = %d, want 2", res.Rows)
	}
	if res.Columns[0].Len() != 2 {
		t.Fatalf("col0 Len = %d, want 2", res.Columns[0].Len())
	}
	if collector.Total() != 0 {
		t.Fatalf("expected no errors, got %d", collector.Total())
	}
}

func TestParseChunkTooFewFieldsRecorded(t *testing.T) {
	csv := "1,alice\n2,bob,4.25\n"
	data := padded(csv)
	sch := &schema.TableSchema{Columns: []schema.ColumnSchema{
		{Name: "id", Type: schema.Int32},
		{Name: "name", Type: schema.String},
		{Name: "score", Type: schema.Float64},
	}}
	cr := planner.ChunkRange{Index: 0, Start: 0, End: len(csv)}
	collector := NewErrorCollector(ErrorModeCollect, 0)
	res := ParseChunk(data, cr, sch, ',', '"', nil, nil, 0, collector)
	if res.Rows != 2 {
		t.Fatalf("Rows = %d, want 2", res.Rows)
	}
	errs := collector.Merge([]int{0})
	if len(errs) != 1 || errs[0].Kind != KindTooFewFields {
		t.Fatalf("expected one KindTooFewFields error, got %+v", errs)
	}
}

func TestParseChunkDiscardsPartialLeadingRow(t *testing.T) {
	// This chunk's data begins mid-quote, continuing a field the previous
	// chunk owns; the first row must be discarded entirely.
	csv := `tail of quote",x,y` + "\n" + "1,2,3\n"
	data := padded(csv)
	sch := &schema.TableSchema{Columns: []schema.ColumnSchema{
		{Name: "a", Type: schema.Int32},
		{Name: "b", Type: schema.Int32},
		{Name: "c", Type: schema.Int32},
	}}
	cr := planner.ChunkRange{Index: 1, Start: 0, End: len(csv), StartsInsideQuote: true}
	collector := NewErrorCollector(ErrorModeCollect, 0)
	res := ParseChunk(data, cr, sch, ',', '"', nil, nil, 0, collector)
	if res.Rows != 1 {
		t.Fatalf("Rows = %d, want 1 (partial leading row discarded)", res.Rows)
	}
}

func TestUnquoteDoubledEscape(t *testing.T) {
	field := []byte(`"he said ""hi"""`)
	value, wasQuoted, ok := Unquote(field, '"')
	if !ok || !wasQuoted {
		t.Fatalf("Unquote failed: ok=%v wasQuoted=%v", ok, wasQuoted)
	}
	if string(value) != `he said "hi"` {
		t.Fatalf("Unquote = %q", value)
	}
}

func TestUnquoteUnterminated(t *testing.T) {
	_, wasQuoted, ok := Unquote([]byte(`"unterminated`), '"')
	if !wasQuoted || ok {
		t.Fatalf("expected unterminated quote to be reported malformed")
	}
}
