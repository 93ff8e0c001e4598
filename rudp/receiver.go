package rudp

import (
	"time"

	"github.com/kutluhann/kademlia-node/congestion"
	"github.com/kutluhann/kademlia-node/ticktimer"
	"github.com/kutluhann/kademlia-node/window"
)

// unreadSlot is the specification's UnreadPacket, minus its explicit lost
// flag — "lost" is represented by the slot being absent from the window
// (window.Window's own present/placeholder distinction), per §3.
type unreadSlot struct {
	data      []byte
	bytesRead int
}

type ackRecord struct {
	packet AckPacket
	sentAt time.Time
}

// Receiver is the RUDP receiver (C9). It owns a receive window and an ACK
// window and is not concurrency-safe: per §5, one lane owns a receiver
// instance for its whole lifetime, with packets and ticks delivered to it
// as messages.
type Receiver struct {
	congestion congestion.Controller
	timer      ticktimer.Timer
	sender     Sender

	recv *window.Window[unreadSlot]
	acks *window.Window[ackRecord]

	lastAckSeq window.Seq
}

// NewReceiver creates a Receiver against the given collaborators. Reset
// must be called (with the peer-negotiated initial sequence number)
// before any packets are handled.
func NewReceiver(cc congestion.Controller, timer ticktimer.Timer, sender Sender) *Receiver {
	r := &Receiver{
		congestion: cc,
		timer:      timer,
		sender:     sender,
		recv:       window.New[unreadSlot](cc.WindowSize()),
		acks:       window.New[ackRecord](cc.WindowSize()),
	}
	r.Reset(0)
	return r
}

// Reset sets both window bases to initialSeq and discards all buffered
// state, per §4.3.
func (r *Receiver) Reset(initialSeq window.Seq) {
	r.recv.Reset(initialSeq)
	r.recv.SetMaximumSize(r.congestion.WindowSize())
	r.acks.Reset(0)
	r.acks.SetMaximumSize(r.congestion.WindowSize())
	r.lastAckSeq = initialSeq
}

// HandleData ingests an inbound data packet, per §4.3's receive-window
// maintenance steps 1-3. The ack-interval tick-scheduling check (step 3)
// runs regardless of whether seq turned out to be a duplicate already
// sitting in the window: a sender retransmitting a packet whose ACK it
// never saw must still get re-acked, not silently dropped.
func (r *Receiver) HandleData(pkt DataPacket) {
	r.recv.SetMaximumSize(r.congestion.WindowSize())

	s := pkt.Seq
	if !r.recv.Contains(s) {
		if !r.recv.IsComingSoon(s) || !r.recv.GrowTo(s) {
			return // window overflow or a stale sequence number: drop
		}
	}

	if !r.recv.Present(s) {
		r.recv.Set(s, unreadSlot{data: pkt.Payload})
		r.congestion.OnDataPacketReceived(uint32(s))
	}

	interval := r.congestion.AckInterval()
	if interval > 0 && uint32(s)%uint32(interval) == 0 {
		r.generateAck()
	} else {
		r.timer.TickAfter(r.congestion.AckDelay())
	}
}

// HandleTick runs both the ACK-generation and NAK-generation passes, per
// §4.3 ("each tick") and the tick timer's single-deadline firing (§5).
func (r *Receiver) HandleTick() {
	r.generateAck()
	r.generateNak()
}

// HandleAckOfAck ingests a peer's confirmation of a previously sent ACK
// (§4.3's RTT paragraph): it samples RTT against the matching ACK record,
// if any, feeds it to congestion control, then cumulatively retires every
// ACK record up to and including the referenced sequence number.
func (r *Receiver) HandleAckOfAck(pkt AckOfAckPacket) {
	n := pkt.Ack
	if record, present := r.acks.At(n); present {
		rtt := r.timer.Now().Sub(record.sentAt)
		if micros := rtt.Microseconds(); micros >= 0 && micros <= maxUint32 {
			r.congestion.OnAckOfAck(uint32(micros))
		}
	}
	// A stale ack-of-ack (its record already retired, or never sent) is
	// silently ignored, per §7.
	for !r.acks.IsEmpty() && !n.Less(r.acks.Begin()) {
		r.acks.RemoveFront()
	}
}

const maxUint32 = int64(1)<<32 - 1

// ReadData delivers in-order bytes to an application reader, per §4.3's
// read path. Returns 0 if the next-in-order slot is missing or the window
// is empty.
func (r *Receiver) ReadData(buf []byte) int {
	front, present, ok := r.recv.Front()
	if !ok || !present {
		return 0
	}

	n := copy(buf, front.data[front.bytesRead:])
	front.bytesRead += n
	if front.bytesRead >= len(front.data) {
		r.recv.RemoveFront()
	} else {
		r.recv.Set(r.recv.Begin(), front)
	}
	return n
}

// Flushed reports whether every sent ACK has been confirmed by the peer's
// ack-of-ack (the ACK window is empty) and the current ack candidate
// matches what was last advertised: the receiver has nothing outstanding
// and nothing new to tell its peer (rudp_receiver.cc's Flushed()).
func (r *Receiver) Flushed() bool {
	return r.acks.IsEmpty() && r.ackSeqCandidate() == r.lastAckSeq
}

// ackSeqCandidate is P in §4.3's ACK-generation paragraph: the lowest
// sequence number currently lost in the receive window, or End if none.
func (r *Receiver) ackSeqCandidate() window.Seq {
	for s := r.recv.Begin(); s != r.recv.End(); s++ {
		if !r.recv.Present(s) {
			return s
		}
	}
	return r.recv.End()
}

// generateAck implements §4.3's ACK-generation paragraph.
func (r *Receiver) generateAck() {
	ackSeq := r.ackSeqCandidate()
	now := r.timer.Now()

	stale := false
	if back, present, ok := r.acks.Back(); ok && present {
		if now.Sub(back.sentAt) > r.congestion.AckTimeout() {
			stale = true
		}
	}

	if ackSeq == r.lastAckSeq && !stale {
		return
	}

	n := r.acks.End()
	if r.acks.IsFull() {
		r.acks.RemoveFront()
	}
	r.acks.GrowTo(n)

	pkt := AckPacket{Seq: n, Ack: ackSeq}
	r.acks.Set(n, ackRecord{packet: pkt, sentAt: now})

	r.lastAckSeq = ackSeq
	r.sender.SendAck(pkt)
	r.timer.TickAt(now.Add(r.congestion.AckTimeout()))
}

// generateNak implements §4.3's NAK-generation paragraph: walk the
// receive window and report every maximal run of lost slots.
func (r *Receiver) generateNak() {
	var ranges []NakRange

	s := r.recv.Begin()
	end := r.recv.End()
	for s != end {
		if r.recv.Present(s) {
			s++
			continue
		}
		begin := s
		for s != end && !r.recv.Present(s) {
			s++
		}
		ranges = append(ranges, NakRange{From: begin, To: s - 1})
	}

	if len(ranges) == 0 {
		return
	}
	r.sender.SendNak(NakPacket{Ranges: ranges})
	r.timer.TickAt(r.timer.Now().Add(r.congestion.AckTimeout()))
}
