package ticktimer

import (
	"testing"
	"time"
)

func TestFakeEarliestDeadlineWins(t *testing.T) {
	start := time.Unix(0, 0)
	f := NewFake(start)

	f.TickAfter(500 * time.Millisecond)
	f.TickAfter(2 * time.Second) // later: must not preempt the earlier one

	f.Advance(500 * time.Millisecond)
	if len(f.Fired) != 1 {
		t.Fatalf("want exactly one fire at the earlier deadline, got %d", len(f.Fired))
	}
	if f.Pending() {
		t.Fatal("deadline should be cleared once it fires")
	}
}

func TestFakeEarlierDeadlinePreemptsLater(t *testing.T) {
	start := time.Unix(0, 0)
	f := NewFake(start)

	f.TickAfter(2 * time.Second)
	f.TickAfter(100 * time.Millisecond) // earlier: must preempt

	f.Advance(100 * time.Millisecond)
	if len(f.Fired) != 1 {
		t.Fatalf("want one fire at the earlier deadline, got %d", len(f.Fired))
	}

	f.Advance(2 * time.Second)
	if len(f.Fired) != 1 {
		t.Fatal("the preempted later deadline must never fire")
	}
}
