package congestion

import "testing"

func TestStandardAckTimeoutTracksRTT(t *testing.T) {
	c := NewStandard()
	initial := c.AckTimeout()

	c.OnAckOfAck(50000) // 50ms sample
	if c.AckTimeout() == initial {
		t.Fatal("AckTimeout should move after the first RTT sample")
	}

	// A much larger sample should widen the timeout further.
	before := c.AckTimeout()
	c.OnAckOfAck(500000) // 500ms sample
	if c.AckTimeout() <= before {
		t.Fatal("AckTimeout should widen after a much larger RTT sample")
	}
}

func TestStandardAckTimeoutBounded(t *testing.T) {
	c := NewStandard()
	c.OnAckOfAck(0)
	if c.AckTimeout() < minRTO {
		t.Fatalf("AckTimeout should never fall below minRTO, got %v", c.AckTimeout())
	}
}
