package builder

import (
	"testing"

	"github.com/csvquery/vcsv/internal/schema"
)

func TestNullBitmapLazyUntilFirstNull(t *testing.T) {
	b := NewNullBitmap()
	for i := 0; i < 10; i++ {
		b.AppendValid()
	}
	if b.Materialized() {
		t.Fatalf("bitmap should stay lazy with no nulls appended")
	}
	b.AppendNull()
	if !b.Materialized() {
		t.Fatalf("bitmap should materialize on first null")
	}
	if b.NullCount() != 1 {
		t.Fatalf("NullCount = %d, want 1", b.NullCount())
	}
	for i := 0; i < 10; i++ {
		if !b.IsValid(i) {
			t.Fatalf("row %d should be valid", i)
		}
	}
	if b.IsValid(10) {
		t.Fatalf("row 10 should be null")
	}
}

func TestStringBufferAppendAndMerge(t *testing.T) {
	a := NewStringBuffer()
	a.AppendValue("hello")
	a.AppendNull()
	a.AppendValue("world")

	b := NewStringBuffer()
	b.AppendValue("!")

	a.MergeFrom(b)
	if a.Len() != 4 {
		t.Fatalf("Len = %d, want 4", a.Len())
	}
	if a.Value(0) != "hello" || a.Value(2) != "world" || a.Value(3) != "!" {
		t.Fatalf("unexpected values: %q %q %q", a.Value(0), a.Value(2), a.Value(3))
	}
	if a.NullCount() != 1 {
		t.Fatalf("NullCount = %d, want 1", a.NullCount())
	}
}

func TestNumericBufferMergeFrom(t *testing.T) {
	a := NewNumericBuffer[int64]()
	a.AppendValue(1)
	a.AppendNull()
	b := NewNumericBuffer[int64]()
	b.AppendValue(3)
	a.MergeFrom(b)
	if a.Len() != 3 {
		t.Fatalf("Len = %d, want 3", a.Len())
	}
	if a.NullCount() != 1 {
		t.Fatalf("NullCount = %d, want 1", a.NullCount())
	}
}

func TestAppendContextInt32(t *testing.T) {
	cb := NewColumnBuilder(schema.Int32)
	ctx := NewAppendContext(cb, nil, nil)
	if err := ctx.AppendValue("42"); err != nil {
		t.Fatal(err)
	}
	ctx.AppendNull()
	if cb.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cb.Len())
	}
	if cb.NullCount() != 1 {
		t.Fatalf("NullCount = %d, want 1", cb.NullCount())
	}
}

func TestAppendContextBool(t *testing.T) {
	cb := NewColumnBuilder(schema.Bool)
	trueVals := map[string]struct{}{"true": {}}
	falseVals := map[string]struct{}{"false": {}}
	ctx := NewAppendContext(cb, trueVals, falseVals)
	if err := ctx.AppendValue("true"); err != nil {
		t.Fatal(err)
	}
	if err := ctx.AppendValue("nope"); err == nil {
		t.Fatalf("expected error for invalid bool literal")
	}
}
