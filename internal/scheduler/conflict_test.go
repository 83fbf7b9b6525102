package scheduler

import "testing"

func TestOverlaps(t *testing.T) {
	at := func(h int) TimeSlot { return MustTimeSlot(h, 0) }

	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{name: "disjoint", a: Interval{at(8), at(9)}, b: Interval{at(10), at(11)}, want: false},
		{name: "touching", a: Interval{at(8), at(10)}, b: Interval{at(10), at(12)}, want: false},
		{name: "partial", a: Interval{at(9), at(11)}, b: Interval{at(10), at(12)}, want: true},
		{name: "contained", a: Interval{at(8), at(14)}, b: Interval{at(10), at(11)}, want: true},
		{name: "identical", a: Interval{at(9), at(10)}, b: Interval{at(9), at(10)}, want: true},
		{name: "sub hour", a: Interval{at(9), MustTimeSlot(9, 30)}, b: Interval{MustTimeSlot(9, 30), at(10)}, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.a, tc.b); got != tc.want {
				t.Fatalf("Overlaps(a, b) = %v, want %v", got, tc.want)
			}
			if got := Overlaps(tc.b, tc.a); got != tc.want {
				t.Fatalf("Overlaps(b, a) = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOverlaps_SymmetricOverGrid(t *testing.T) {
	slots := DefaultGrid().Slots()
	var intervals []Interval
	for i, start := range slots {
		for _, end := range slots[i+1:] {
			intervals = append(intervals, Interval{Start: start, End: end})
		}
	}
	for _, a := range intervals {
		for _, b := range intervals {
			if Overlaps(a, b) != Overlaps(b, a) {
				t.Fatalf("asymmetric overlap for %v and %v", a, b)
			}
			if a.End == b.Start && Overlaps(a, b) {
				t.Fatalf("touching intervals %v and %v reported as overlapping", a, b)
			}
		}
	}
}
