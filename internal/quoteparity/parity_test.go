package quoteparity

import "testing"

func TestPrefixXorInclusiveSingleBit(t *testing.T) {
	// A single set bit at position k makes every bit >= k set (inclusive
	// running XOR of a single 1 is 1 from that point on).
	for k := 0; k < 64; k++ {
		got := PrefixXorInclusive(1 << uint(k))
		want := ^uint64(0) << uint(k)
		if got != want {
			t.Fatalf("PrefixXorInclusive(1<<%d) = %064b, want %064b", k, got, want)
		}
	}
}

func TestPrefixXorInclusiveTwoQuotes(t *testing.T) {
	// Quotes at bit 2 and bit 5: inside-quote span should be bits [2,5).
	quotes := uint64(1<<2 | 1<<5)
	mask := PrefixXorInclusive(quotes)
	want := uint64(0)
	for i := 2; i < 5; i++ {
		want |= 1 << uint(i)
	}
	// PrefixXorInclusive sets bit i true from the first quote onward until
	// the second flips it back off (inclusive of quote bit itself).
	want |= 1 << 2
	if mask&(1<<2) == 0 {
		t.Fatalf("expected bit 2 set in mask %064b", mask)
	}
	if mask&(1<<5) != 0 {
		t.Fatalf("expected bit 5 clear (closed) in mask %064b", mask)
	}
	if mask != want {
		t.Fatalf("PrefixXorInclusive(%064b) = %064b, want %064b", quotes, mask, want)
	}
}

func TestFindQuoteMaskCarryPropagation(t *testing.T) {
	// No quotes at all, not carrying in: mask all zero, carry out zero.
	mask, carry := FindQuoteMask(0, 0)
	if mask != 0 || carry != 0 {
		t.Fatalf("expected zero mask/carry, got mask=%064b carry=%064b", mask, carry)
	}

	// Carrying in "inside quote": with no quote bits in this block, the
	// entire block remains inside, and carry-out stays all-ones.
	mask, carry = FindQuoteMask(0, ^uint64(0))
	if mask != ^uint64(0) {
		t.Fatalf("expected all-ones mask when carrying inside with no quotes, got %064b", mask)
	}
	if carry != ^uint64(0) {
		t.Fatalf("expected carry-out to remain all-ones, got %064b", carry)
	}
}

func TestFindQuoteMaskSingleOpenQuote(t *testing.T) {
	// A single quote bit at position 10, not carrying in: bits [10,64) are
	// inside an (unterminated, so far) quoted span; carry-out should
	// indicate "inside" since bit 63 is set.
	mask, carry := FindQuoteMask(1<<10, 0)
	if !InsideQuoteAfter(carry) {
		t.Fatalf("expected carry-out to indicate inside-quote, mask=%064b carry=%064b", mask, carry)
	}
	if mask&(1<<10) == 0 {
		t.Fatalf("expected quote position itself marked inside")
	}
	if mask&(1<<9) != 0 {
		t.Fatalf("expected position before quote to be outside")
	}
}
