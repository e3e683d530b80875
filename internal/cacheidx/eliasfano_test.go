package cacheidx

import "testing"

func TestEliasFanoRoundTrip(t *testing.T) {
	values := []uint64{0, 3, 7, 7, 20, 21, 100, 1000}
	universe := values[len(values)-1]
	ef, err := EncodeEliasFano(values, universe)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range values {
		got, err := ef.Select(i)
		if err != nil {
			t.Fatalf("Select(%d): %v", i, err)
		}
		if got != want {
			t.Fatalf("Select(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestEliasFanoSerializeRoundTrip(t *testing.T) {
	values := []uint64{5, 5, 10, 50, 500, 5000}
	ef, err := EncodeEliasFano(values, 5000)
	if err != nil {
		t.Fatal(err)
	}
	data := ef.Serialize()
	ef2, err := DeserializeEliasFano(data)
	if err != nil {
		t.Fatal(err)
	}
	if ef2.Len() != ef.Len() {
		t.Fatalf("Len mismatch: %d vs %d", ef2.Len(), ef.Len())
	}
	for i, want := range values {
		got, err := ef2.Select(i)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("Select(%d) after round-trip = %d, want %d", i, got, want)
		}
	}
}

func TestEliasFanoEmpty(t *testing.T) {
	ef, err := EncodeEliasFano(nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ef.Len() != 0 {
		t.Fatalf("Len = %d, want 0", ef.Len())
	}
	if _, err := ef.Select(0); err == nil {
		t.Fatalf("expected error selecting from empty sequence")
	}
}
