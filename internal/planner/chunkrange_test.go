package planner

import "testing"

func TestCalculateChunkSizeClampsToMin(t *testing.T) {
	got := CalculateChunkSize(1000, 5, 4)
	if got != MinChunkSize {
		t.Fatalf("got %d, want MinChunkSize (%d)", got, MinChunkSize)
	}
}

func TestCalculateChunkSizeClampsToMax(t *testing.T) {
	got := CalculateChunkSize(1<<40, 1, 64)
	if got != MaxChunkSize {
		t.Fatalf("got %d, want MaxChunkSize (%d)", got, MaxChunkSize)
	}
}

func TestCalculateChunkSizeMidRange(t *testing.T) {
	// threads*16 = 160, budget/cols = 500000/10 = 50000; divisor = 160.
	fileSize := int64(160) * (2 << 20)
	got := CalculateChunkSize(fileSize, 10, 10)
	if got != 2<<20 {
		t.Fatalf("got %d, want %d", got, 2<<20)
	}
}

func TestPlanChunksDoesNotSplitInsideQuotedNewline(t *testing.T) {
	row1 := "a,\"multi\nline\",c\n"
	row2 := "d,e,f\n"
	data := []byte(row1 + row2 + make([]byte, 64)[:0])
	data = append(data, make([]byte, 64)...)
	ranges := PlanChunks(data, 0, int64(len(row1)-5), ',', '"')
	if len(ranges) == 0 {
		t.Fatal("expected at least one chunk")
	}
	// The first chunk boundary must land after the full quoted field, not
	// inside it - i.e. not between the embedded newline and its closing
	// quote.
	firstEnd := ranges[0].End
	if firstEnd > 0 && firstEnd < len(row1) {
		// A boundary strictly inside row1 would have to be right after a
		// real (outside-quote) newline; row1 has its only real newline at
		// the very end.
		t.Fatalf("chunk boundary %d falls inside the quoted row (len %d)", firstEnd, len(row1))
	}
}

func TestLinkChunksPropagatesStartState(t *testing.T) {
	ranges := []ChunkRange{
		{Index: 0},
		{Index: 1},
		{Index: 2},
	}
	ranges[0].Analysis.EndsInsideIfStartOutside = true
	ranges[1].Analysis.EndsInsideIfStartOutside = false
	LinkChunks(ranges)
	if ranges[0].StartsInsideQuote {
		t.Fatalf("first chunk must start outside a quote")
	}
	if !ranges[1].StartsInsideQuote {
		t.Fatalf("second chunk should start inside, chunk 0 ended inside")
	}
	// chunk 1 starts inside, so its end state comes from
	// EndsInsideIfStartInside(), the complement of EndsInsideIfStartOutside
	// (false) => true.
	if !ranges[2].StartsInsideQuote {
		t.Fatalf("third chunk should start inside")
	}
}
