package window

import "testing"

func TestGrowToAndSet(t *testing.T) {
	w := New[int](8)
	w.Reset(100)

	if !w.IsEmpty() {
		t.Fatal("fresh window should be empty")
	}
	if w.Begin() != 100 || w.End() != 100 {
		t.Fatalf("want begin=end=100, got begin=%d end=%d", w.Begin(), w.End())
	}

	if !w.GrowTo(103) {
		t.Fatal("GrowTo(103) should succeed within capacity 8")
	}
	if w.Len() != 4 {
		t.Fatalf("want len 4 after growing to include seq 103, got %d", w.Len())
	}
	for s := Seq(100); s < 104; s++ {
		if w.Present(s) {
			t.Fatalf("seq %d should still be a lost placeholder", s)
		}
	}

	if !w.Set(102, 7) {
		t.Fatal("Set(102) should succeed, seq is in range")
	}
	if v, ok := w.At(102); !ok || v != 7 {
		t.Fatalf("want (7, true), got (%v, %v)", v, ok)
	}
	if w.Present(101) {
		t.Fatal("seq 101 should remain unfilled")
	}
}

func TestContainsAndIsComingSoon(t *testing.T) {
	w := New[int](4)
	w.Reset(10)
	w.GrowTo(11) // [10,12)

	if !w.Contains(10) || !w.Contains(11) {
		t.Fatal("10 and 11 should be in range")
	}
	if w.Contains(12) {
		t.Fatal("12 should not be in range yet")
	}
	if !w.IsComingSoon(12) {
		t.Fatal("12 should be coming soon (within max size 4)")
	}
	if w.IsComingSoon(14) {
		t.Fatal("14 would overflow max size 4 from begin 10")
	}
}

func TestRemoveFrontAdvancesBegin(t *testing.T) {
	w := New[int](4)
	w.Reset(0)
	w.GrowTo(2) // [0,3)
	w.RemoveFront()

	if w.Begin() != 1 {
		t.Fatalf("want begin 1 after one RemoveFront, got %d", w.Begin())
	}
	if w.Len() != 2 {
		t.Fatalf("want len 2, got %d", w.Len())
	}
	if w.Contains(0) {
		t.Fatal("seq 0 should have fallen out of the window")
	}
}

func TestAppendRefusesBeyondMax(t *testing.T) {
	w := New[int](2)
	w.Reset(0)
	if !w.Append() || !w.Append() {
		t.Fatal("first two appends should succeed")
	}
	if w.Append() {
		t.Fatal("third append should fail: window is full")
	}
	if !w.IsFull() {
		t.Fatal("window should report full")
	}
}

func TestWrapAroundArithmetic(t *testing.T) {
	// Near the 2^31 wrap boundary, sequence comparisons must still order
	// correctly (Design Notes: sequence arithmetic is wrap-aware modulo
	// 2^31).
	a := Seq(SequenceMod - 1)
	b := Seq(0)
	if !a.Less(b) {
		t.Fatal("a (just before wrap) should be considered to precede b (just after wrap)")
	}
}
