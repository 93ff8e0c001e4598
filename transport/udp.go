// Package transport is the concrete RPC client / network collaborator
// (C3) and the UDP demultiplexer §2 says feeds the RUDP receiver: it owns
// the node's single UDP socket, dispatches inbound FindNode RPCs to a
// routing-table-backed handler, routes inbound RUDP control packets to
// the right per-peer receiver, and implements rpcclient.Client for the
// lookup engine.
//
// Grounded on the teacher's dht/network.go (Network: Conn/Handler/
// ResponseChannels map keyed by RPCID, Listen's read-loop spawning
// handlePacket per datagram, SendFindNode's register-channel/send/
// select-with-timeout shape) — adapted from the teacher's bespoke
// PING/STORE/FIND_VALUE/JOIN message switch into this module's narrower
// FindNode + RUDP control dispatch, using package wire for the envelope
// instead of ad hoc json.Marshal(msg.Payload) round-trips.
package transport

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/kutluhann/kademlia-node/contact"
	"github.com/kutluhann/kademlia-node/identifier"
	"github.com/kutluhann/kademlia-node/rpcclient"
	"github.com/kutluhann/kademlia-node/rudp"
	"github.com/kutluhann/kademlia-node/wire"
)

// FindNodeHandler answers inbound FindNode RPCs, backed by the node's
// routing table (C2).
type FindNodeHandler interface {
	HandleFindNode(sender contact.Contact, target identifier.ID) []contact.Contact
}

// RudpReceivers resolves the per-peer RUDP receiver (C9) a control packet
// from addr should be delivered to, creating one on first contact.
type RudpReceivers interface {
	ReceiverFor(addr string) *rudp.Receiver
}

// UDP is the node's single UDP socket, shared by the lookup engine's RPC
// traffic and the RUDP control-plane traffic it carries.
type UDP struct {
	conn *net.UDPConn
	self identifier.ID

	findNode FindNodeHandler
	receivers RudpReceivers

	mu       sync.RWMutex
	pending  map[string]chan wire.Message

	timeout time.Duration
}

// New opens a UDP socket bound to address for a node identified by self.
func New(address string, self identifier.ID) (*UDP, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %q: %w", address, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %q: %w", address, err)
	}
	return &UDP{
		conn:    conn,
		self:    self,
		pending: make(map[string]chan wire.Message),
		timeout: 5 * time.Second,
	}, nil
}

// SetFindNodeHandler wires the server-side FindNode responder.
func (u *UDP) SetFindNodeHandler(h FindNodeHandler) { u.findNode = h }

// SetRudpReceivers wires the per-peer RUDP receiver registry.
func (u *UDP) SetRudpReceivers(r RudpReceivers) { u.receivers = r }

// LocalAddr reports the socket's bound address.
func (u *UDP) LocalAddr() string { return u.conn.LocalAddr().String() }

// Listen runs the read loop until the socket is closed. Each datagram is
// dispatched on its own goroutine, mirroring the teacher's Listen/
// handlePacket split.
func (u *UDP) Listen() {
	buf := make([]byte, 65535)
	for {
		n, remoteAddr, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			log.Printf("[TRANSPORT] read error: %v", err)
			return
		}
		packet := make([]byte, n)
		copy(packet, buf[:n])
		go u.handlePacket(packet, remoteAddr)
	}
}

// Close releases the underlying socket.
func (u *UDP) Close() error { return u.conn.Close() }

func (u *UDP) handlePacket(data []byte, addr *net.UDPAddr) {
	msg, err := wire.Unmarshal(data)
	if err != nil {
		log.Printf("[TRANSPORT] decode error from %s: %v", addr, err)
		return
	}

	switch msg.Type {
	case wire.FindNodeRes:
		u.deliverResponse(msg)
	case wire.FindNodeReq:
		u.handleFindNodeReq(msg, addr)
	case wire.RudpData, wire.RudpAck, wire.RudpNak, wire.RudpAckOfAck:
		u.handleRudp(msg, addr)
	default:
		log.Printf("[TRANSPORT] unhandled message type %d from %s", msg.Type, addr)
	}
}

func (u *UDP) deliverResponse(msg wire.Message) {
	u.mu.RLock()
	ch, ok := u.pending[msg.RPCID]
	u.mu.RUnlock()
	if !ok {
		return // no longer waited on: timed out or already delivered
	}
	select {
	case ch <- msg:
	default:
	}
}

func (u *UDP) handleFindNodeReq(msg wire.Message, addr *net.UDPAddr) {
	if u.findNode == nil {
		return
	}
	var req wire.FindNodeRequest
	if err := wire.DecodePayload(msg, &req); err != nil {
		log.Printf("[TRANSPORT] bad FindNode request from %s: %v", addr, err)
		return
	}

	sender := contact.Contact{ID: msg.SenderID, PrimaryEndpoint: addr.String()}
	nodes := u.findNode.HandleFindNode(sender, req.TargetID)

	resPayload := wire.FindNodeResponse{Nodes: toWireContacts(nodes)}
	resp, err := wire.Encode(wire.FindNodeRes, u.self, msg.RPCID, resPayload)
	if err != nil {
		log.Printf("[TRANSPORT] encode FindNode response: %v", err)
		return
	}
	u.sendTo(resp, addr)
}

func (u *UDP) handleRudp(msg wire.Message, addr *net.UDPAddr) {
	if u.receivers == nil {
		return
	}
	receiver := u.receivers.ReceiverFor(addr.String())
	if receiver == nil {
		return
	}

	switch msg.Type {
	case wire.RudpData:
		var p wire.RudpDataPayload
		if err := wire.DecodePayload(msg, &p); err == nil {
			receiver.HandleData(p.ToDomain())
		}
	case wire.RudpAckOfAck:
		var p wire.RudpAckOfAckPayload
		if err := wire.DecodePayload(msg, &p); err == nil {
			receiver.HandleAckOfAck(p.ToDomain())
		}
	// RudpAck and RudpNak are outbound-only from a receiver's perspective
	// in this module's scope (§1's Non-goal: "the send half of RUDP
	// beyond what the receive path assumes"), so an inbound one here
	// would come from a peer running the send half we don't implement;
	// there is nothing to do with it but drop it.
	default:
	}
}

func (u *UDP) sendTo(msg wire.Message, addr *net.UDPAddr) {
	data, err := wire.Marshal(msg)
	if err != nil {
		log.Printf("[TRANSPORT] marshal error: %v", err)
		return
	}
	if _, err := u.conn.WriteToUDP(data, addr); err != nil {
		log.Printf("[TRANSPORT] write error to %s: %v", addr, err)
	}
}

// FindNodes implements rpcclient.Client: it fires a FindNode RPC at peer
// and reports the result (or a negative result size on timeout/transport
// failure) via callback, per §6.
func (u *UDP) FindNodes(key identifier.ID, _ []byte, peer contact.Contact, callback rpcclient.ResultCallback, _ rpcclient.TransportType) {
	addr, err := net.ResolveUDPAddr("udp", peer.PrimaryEndpoint)
	if err != nil {
		callback(contact.RankInfo{}, -1, nil)
		return
	}

	rpcID := generateRPCID()
	msg, err := wire.Encode(wire.FindNodeReq, u.self, rpcID, wire.FindNodeRequest{TargetID: key})
	if err != nil {
		callback(contact.RankInfo{}, -1, nil)
		return
	}

	respCh := make(chan wire.Message, 1)
	u.mu.Lock()
	u.pending[rpcID] = respCh
	u.mu.Unlock()
	defer func() {
		u.mu.Lock()
		delete(u.pending, rpcID)
		u.mu.Unlock()
	}()

	u.sendTo(msg, addr)

	select {
	case resp := <-respCh:
		var res wire.FindNodeResponse
		if err := wire.DecodePayload(resp, &res); err != nil {
			callback(contact.RankInfo{}, -1, nil)
			return
		}
		contacts := fromWireContacts(res.Nodes)
		callback(contact.RankInfo{}, len(contacts), contacts)
	case <-time.After(u.timeout):
		callback(contact.RankInfo{}, -1, nil)
	}
}

// sendRudp serializes and sends an RUDP control packet to addr; it
// implements rudp.Sender once bound to a specific peer address by a
// PeerSender wrapper.
func (u *UDP) sendRudp(msgType wire.MessageType, payload any, addr *net.UDPAddr) {
	msg, err := wire.Encode(msgType, u.self, "", payload)
	if err != nil {
		log.Printf("[TRANSPORT] encode RUDP control message: %v", err)
		return
	}
	u.sendTo(msg, addr)
}

// PeerSender adapts a UDP transport plus a fixed peer address into
// rudp.Sender for that peer's receiver.
type PeerSender struct {
	udp  *UDP
	addr *net.UDPAddr
}

// NewPeerSender builds a rudp.Sender that sends ACK/NAK packets to addr
// over udp.
func NewPeerSender(udp *UDP, addr string) (*PeerSender, error) {
	resolved, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve peer %q: %w", addr, err)
	}
	return &PeerSender{udp: udp, addr: resolved}, nil
}

func (p *PeerSender) SendAck(pkt rudp.AckPacket) {
	p.udp.sendRudp(wire.RudpAck, wire.RudpAckPayload{Seq: uint32(pkt.Seq), Ack: uint32(pkt.Ack)}, p.addr)
}

func (p *PeerSender) SendNak(pkt rudp.NakPacket) {
	ranges := make([]wire.RudpNakRange, len(pkt.Ranges))
	for i, r := range pkt.Ranges {
		ranges[i] = wire.RudpNakRange{From: uint32(r.From), To: uint32(r.To)}
	}
	p.udp.sendRudp(wire.RudpNak, wire.RudpNakPayload{Ranges: ranges}, p.addr)
}

func toWireContacts(cs []contact.Contact) []wire.ContactWire {
	out := make([]wire.ContactWire, len(cs))
	for i, c := range cs {
		out[i] = wire.ContactWire{
			ID:                 c.ID,
			PrimaryEndpoint:    c.PrimaryEndpoint,
			LocalEndpoints:     c.LocalEndpoints,
			RendezvousEndpoint: c.RendezvousEndpoint,
			DirectlyConnected:  c.DirectlyConnected,
			NATRestricted:      c.NATRestricted,
			Credentials:        c.Credentials,
		}
	}
	return out
}

func fromWireContacts(cs []wire.ContactWire) []contact.Contact {
	out := make([]contact.Contact, len(cs))
	for i, c := range cs {
		out[i] = contact.Contact{
			ID:                 c.ID,
			PrimaryEndpoint:    c.PrimaryEndpoint,
			LocalEndpoints:     c.LocalEndpoints,
			RendezvousEndpoint: c.RendezvousEndpoint,
			DirectlyConnected:  c.DirectlyConnected,
			NATRestricted:      c.NATRestricted,
			Credentials:        c.Credentials,
		}
	}
	return out
}

func generateRPCID() string {
	return fmt.Sprintf("rpc-%d", time.Now().UnixNano())
}
