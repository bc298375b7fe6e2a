package task

import "testing"

func TestPriorityRoundTrip(t *testing.T) {
	for _, label := range PriorityLabels() {
		if got := PriorityLabel(PriorityOrdinal(label)); got != label {
			t.Errorf("round trip for %q: got %q", label, got)
		}
	}
}

func TestPriorityLabelOutOfRange(t *testing.T) {
	cases := []int16{-1, 3, 42}
	for _, p := range cases {
		if got := PriorityLabel(p); got != PriorityLabelMedium {
			t.Errorf("PriorityLabel(%d) = %q, want %q", p, got, PriorityLabelMedium)
		}
	}
}

func TestPriorityOrdinalUnknownLabel(t *testing.T) {
	cases := []string{"", "urgent", "MEDIUM"}
	for _, label := range cases {
		if got := PriorityOrdinal(label); got != PriorityMedium {
			t.Errorf("PriorityOrdinal(%q) = %d, want %d", label, got, PriorityMedium)
		}
	}
}
