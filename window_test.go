package ppghr

import "testing"

func TestSlidingWindowEvictsOldest(t *testing.T) {
	w := NewSlidingWindow(3)
	for i, tc := range []struct {
		push float64
		sum  float64
		n    int
	}{
		{1, 1, 1},
		{2, 3, 2},
		{3, 6, 3},
		{4, 9, 3},
		{5, 12, 3},
	} {
		if got := w.Push(tc.push); got != tc.sum {
			t.Fatalf("push %d: sum = %v, want %v", i, got, tc.sum)
		}
		if w.Len() != tc.n {
			t.Fatalf("push %d: len = %d, want %d", i, w.Len(), tc.n)
		}
	}
	if w.Mean() != 4 {
		t.Fatalf("mean = %v, want 4", w.Mean())
	}
	if w.Cap() != 3 {
		t.Fatalf("cap = %d, want 3", w.Cap())
	}
}

func TestSlidingWindowEmpty(t *testing.T) {
	w := NewSlidingWindow(0)
	if w.Cap() != 1 {
		t.Fatalf("cap = %d, want 1", w.Cap())
	}
	if w.Mean() != 0 || w.Sum() != 0 {
		t.Fatalf("empty window: mean %v sum %v", w.Mean(), w.Sum())
	}
	w.Push(2)
	w.Push(7)
	if w.Sum() != 7 {
		t.Fatalf("sum = %v, want 7", w.Sum())
	}
}
