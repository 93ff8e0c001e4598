// Package rudp implements C9, the RUDP receiver: reordering, ACK/NAK
// generation, RTT sampling, and in-order byte delivery over an
// unreliable, reorder-prone UDP transport.
//
// Grounded on the KCP ARQ implementation's Input/parse_data/flush split
// (vendor/.../kcp.go), adapted from KCP's symmetric send+receive design
// into the specification's receive-only collaborator: packet reordering
// via package window, pacing decisions delegated to package congestion,
// and scheduling delegated to package ticktimer.
package rudp

import "github.com/kutluhann/kademlia-node/window"

// DataPacket is an inbound data segment, keyed by its sequence number.
type DataPacket struct {
	Seq     window.Seq
	Payload []byte
}

// AckPacket advertises the receiver's current ack_seq (§4.3): every
// sequence number strictly below Ack has been seen (or the receiver has
// otherwise given up waiting for it), under the receiver's own locally
// assigned ack-sequence-number Seq.
type AckPacket struct {
	Seq window.Seq
	Ack window.Seq
}

// NakRange is one maximal run of missing sequence numbers, inclusive.
type NakRange struct {
	From window.Seq
	To   window.Seq
}

// NakPacket lists the gaps the receiver currently sees in its window.
type NakPacket struct {
	Ranges []NakRange
}

// AckOfAckPacket is the peer's confirmation of a previously sent
// AckPacket, referenced by its Seq.
type AckOfAckPacket struct {
	Ack window.Seq
}

// Sender is the peer-send collaborator C9 emits ACK/NAK packets through.
// Per §5, peer send calls are thread-safe at the UDP socket layer, so
// Sender implementations may be called from any lane.
type Sender interface {
	SendAck(pkt AckPacket)
	SendNak(pkt NakPacket)
}
