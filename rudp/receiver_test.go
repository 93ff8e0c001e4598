package rudp

import (
	"testing"
	"time"

	"github.com/kutluhann/kademlia-node/congestion"
	"github.com/kutluhann/kademlia-node/ticktimer"
	"github.com/kutluhann/kademlia-node/window"
)

// recorder is a Sender that just appends everything it sees.
type recorder struct {
	acks []AckPacket
	naks []NakPacket
}

func (r *recorder) SendAck(pkt AckPacket) { r.acks = append(r.acks, pkt) }
func (r *recorder) SendNak(pkt NakPacket) { r.naks = append(r.naks, pkt) }

func newTestReceiver() (*Receiver, *recorder, *ticktimer.Fake, *congestion.Fake) {
	cc := congestion.NewFake()
	clock := ticktimer.NewFake(time.Unix(0, 0))
	sender := &recorder{}
	r := NewReceiver(cc, clock, sender)
	return r, sender, clock, cc
}

func byteAt(seq int) []byte { return []byte{byte('a' + seq)} }

// S6: inject {1,3,2,5,4}, then read 1-byte chunks. Expect bytes in order
// 1..5, Flushed() eventually true, and at most one NAK burst.
func TestS6_ReceiverReorder(t *testing.T) {
	r, sender, clock, _ := newTestReceiver()
	r.Reset(1)

	order := []int{1, 3, 2, 5, 4}
	for _, seq := range order {
		r.HandleData(DataPacket{Seq: window.Seq(seq), Payload: byteAt(seq)})
	}

	var got []byte
	buf := make([]byte, 1)
	for i := 0; i < 5; i++ {
		n := r.ReadData(buf)
		if n != 1 {
			t.Fatalf("read %d: want 1 byte, got %d", i, n)
		}
		got = append(got, buf[0])
	}

	want := []byte{byteAt(1)[0], byteAt(2)[0], byteAt(3)[0], byteAt(4)[0], byteAt(5)[0]}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: want %q, got %q", i, want[i], got[i])
		}
	}

	// Drive a tick or two to let the receiver settle and advertise full
	// coverage; no gap ever existed so at most one NAK burst (zero, here,
	// since every gap was filled before any tick fired).
	r.HandleTick()
	clock.Advance(100 * time.Millisecond)
	r.HandleTick()

	// Flushed() also requires every sent ACK to have been confirmed by the
	// peer's ack-of-ack; simulate that confirmation for the one ACK sent
	// above before checking.
	last := sender.acks[len(sender.acks)-1]
	r.HandleAckOfAck(AckOfAckPacket{Ack: last.Seq})

	if !r.Flushed() {
		t.Fatal("want Flushed() true once every byte has been consumed, reported, and acked")
	}
	if len(sender.naks) > 1 {
		t.Fatalf("want at most one NAK burst, got %d", len(sender.naks))
	}
	for _, n := range sender.naks {
		if len(n.Ranges) != 0 {
			t.Fatalf("no gap should ever have existed, got ranges %v", n.Ranges)
		}
	}
}

// S7: inject {1,2,4,5}, omitting 3. Expect a NAK mentioning 3 within one
// tick; after delivering 3, an ACK advertising seq 6 (End) is emitted and
// Flushed() becomes true.
func TestS7_NakDrivenRecovery(t *testing.T) {
	r, sender, clock, _ := newTestReceiver()
	r.Reset(1)

	for _, seq := range []int{1, 2, 4, 5} {
		r.HandleData(DataPacket{Seq: window.Seq(seq), Payload: byteAt(seq)})
	}

	clock.Advance(100 * time.Millisecond)
	r.HandleTick()

	if len(sender.naks) == 0 {
		t.Fatal("want at least one NAK after the first tick")
	}
	last := sender.naks[len(sender.naks)-1]
	mentions3 := false
	for _, rg := range last.Ranges {
		if rg.From <= 3 && 3 <= rg.To {
			mentions3 = true
		}
	}
	if !mentions3 {
		t.Fatalf("want the NAK to mention seq 3, got ranges %v", last.Ranges)
	}

	r.HandleData(DataPacket{Seq: 3, Payload: byteAt(3)})
	// Filling the gap only schedules a tick (seq 3 doesn't land on the ack
	// interval boundary); fire it to simulate that scheduled wakeup.
	clock.Advance(40 * time.Millisecond)
	r.HandleTick()

	found := false
	var lastAck AckPacket
	for _, a := range sender.acks {
		if a.Ack == 6 {
			found = true
			lastAck = a
		}
	}
	if !found {
		t.Fatal("want an ACK advertising seq 6 (End) after delivering the missing packet")
	}

	// Retire every outstanding ACK (cumulatively, up to and including the
	// one advertising seq 6) before Flushed() can hold.
	r.HandleAckOfAck(AckOfAckPacket{Ack: lastAck.Seq})

	if !r.Flushed() {
		t.Fatal("want Flushed() true once the gap is filled, reported, and acked")
	}
}

// Window idempotence: ingesting the same data packet twice leaves Flushed
// and the delivered byte stream unchanged.
func TestWindowIdempotence(t *testing.T) {
	r, _, clock, _ := newTestReceiver()
	r.Reset(1)

	r.HandleData(DataPacket{Seq: 1, Payload: []byte("x")})
	clock.Advance(40 * time.Millisecond)
	r.HandleTick()
	flushedBefore := r.Flushed()

	r.HandleData(DataPacket{Seq: 1, Payload: []byte("y")}) // duplicate, must be ignored
	flushedAfter := r.Flushed()

	if flushedBefore != flushedAfter {
		t.Fatal("duplicate data packet should not change Flushed()")
	}

	buf := make([]byte, 1)
	n := r.ReadData(buf)
	if n != 1 || buf[0] != 'x' {
		t.Fatalf("want the original payload 'x' to survive the duplicate, got %q (n=%d)", buf[:n], n)
	}
}

// ACK cumulativity: after HandleAckOfAck(n), no record with sequence <= n
// remains in the ACK window.
func TestAckCumulativity(t *testing.T) {
	r, _, clock, _ := newTestReceiver()
	r.Reset(1)

	for _, seq := range []int{1, 2, 3} {
		r.HandleData(DataPacket{Seq: window.Seq(seq), Payload: byteAt(seq)})
		clock.Advance(10 * time.Millisecond)
		r.HandleTick()
	}

	if r.acks.IsEmpty() {
		t.Fatal("want at least one ACK record before retiring any")
	}

	oldBegin := r.acks.Begin()
	mid := oldBegin + window.Seq(r.acks.Len()/2)
	r.HandleAckOfAck(AckOfAckPacket{Ack: mid})

	for s := oldBegin; !mid.Less(s); s++ {
		if _, present := r.acks.At(s); present {
			t.Fatalf("ack record %d should have been retired by cumulative ack-of-ack up to %d", s, mid)
		}
	}
}
