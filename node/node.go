// Package node wires the specification's named collaborators together into
// a runnable peer: identity (id_tools + identifier), routing table, RPC
// transport, the lookup engine, credential-validated joins, and a registry
// of per-peer RUDP receivers.
//
// Grounded on the teacher's main.go (the same wiring performed inline in
// func main) and dht/network.go's JoinNetwork handshake, split out into a
// reusable type the way the rest of this module favors named packages over
// a monolithic main.
package node

import (
	"crypto/ecdsa"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/kutluhann/kademlia-node/config"
	"github.com/kutluhann/kademlia-node/contact"
	"github.com/kutluhann/kademlia-node/credential"
	"github.com/kutluhann/kademlia-node/congestion"
	"github.com/kutluhann/kademlia-node/identifier"
	"github.com/kutluhann/kademlia-node/id_tools"
	"github.com/kutluhann/kademlia-node/lookup"
	"github.com/kutluhann/kademlia-node/routingtable"
	"github.com/kutluhann/kademlia-node/rudp"
	"github.com/kutluhann/kademlia-node/ticktimer"
	"github.com/kutluhann/kademlia-node/transport"
)

// Node is a running peer: its identity, routing table, transport, lookup
// engine, and RUDP receiver registry.
type Node struct {
	Self       contact.Contact
	PrivateKey *ecdsa.PrivateKey
	Provider   identifier.Provider
	Validator  credential.Validator

	RoutingTable *routingtable.Table
	Engine       *lookup.Engine
	Transport    *transport.UDP

	receiversMu sync.Mutex
	receivers   map[string]*rudp.Receiver
}

// New builds a node listening on udpAddr, generating or loading its
// identity under cfg.DataDir(), per §"Node bootstrap" of the teacher's
// main func.
func New(cfg *config.Config, udpAddr string) (*Node, error) {
	id_tools.SetDataDirectory(cfg.DataDir())
	provider := identifier.SHA1Provider{}

	var privateKey *ecdsa.PrivateKey
	var self identifier.ID
	var err error

	privateKey, self, err = id_tools.LoadIdentity(provider)
	if err != nil {
		log.Printf("[NODE] no existing identity, generating a new one: %v", err)
		privateKey, self, err = id_tools.GenerateNewIdentity(provider)
		if err != nil {
			return nil, fmt.Errorf("node: generate identity: %w", err)
		}
		if err := id_tools.SaveIdentity(privateKey); err != nil {
			return nil, fmt.Errorf("node: persist identity: %w", err)
		}
	}
	cfg.SetPrivateKey(privateKey)
	cfg.SetSelf(self)

	validator, err := credential.NewECDSAValidator()
	if err != nil {
		return nil, fmt.Errorf("node: credential validator: %w", err)
	}

	tr, err := transport.New(udpAddr, self)
	if err != nil {
		return nil, fmt.Errorf("node: transport: %w", err)
	}

	rt := routingtable.New(self, cfg.K())

	credBytes, err := validator.Issue()
	if err != nil {
		return nil, fmt.Errorf("node: issue credentials: %w", err)
	}

	n := &Node{
		Self: contact.Contact{
			ID:              self,
			PrimaryEndpoint: tr.LocalAddr(),
			DirectlyConnected: true,
			Credentials:     credBytes,
		},
		PrivateKey:   privateKey,
		Provider:     provider,
		Validator:    validator,
		RoutingTable: rt,
		Transport:    tr,
		receivers:    make(map[string]*rudp.Receiver),
	}

	n.Engine = &lookup.Engine{
		Self:         self,
		K:            cfg.K(),
		Alpha:        cfg.Alpha(),
		Beta:         cfg.Beta(),
		RoutingTable: rt,
		RPC:          tr,
		Credentials:  credBytes,
	}

	tr.SetFindNodeHandler(n)
	tr.SetRudpReceivers(n)

	return n, nil
}

// Listen starts the UDP read loop in the background.
func (n *Node) Listen() { go n.Transport.Listen() }

// HandleFindNode answers an inbound FindNode RPC from the routing table,
// per §6's "C2, consumed": the node that asked is itself inserted as a
// fresh contact, mirroring the teacher's handleFindNode always learning
// about the requester.
func (n *Node) HandleFindNode(sender contact.Contact, target identifier.ID) []contact.Contact {
	n.RoutingTable.AddContact(sender, contact.RankInfo{})
	return n.RoutingTable.GetCloseContacts(target, n.Engine.K, n.Self.ID)
}

// ReceiverFor returns (creating if necessary) the RUDP receiver for the
// peer at addr, wiring it to send ACK/NAK back through this node's
// transport.
func (n *Node) ReceiverFor(addr string) *rudp.Receiver {
	n.receiversMu.Lock()
	defer n.receiversMu.Unlock()

	if r, ok := n.receivers[addr]; ok {
		return r
	}

	sender, err := transport.NewPeerSender(n.Transport, addr)
	if err != nil {
		log.Printf("[NODE] cannot build RUDP sender for %s: %v", addr, err)
		return nil
	}
	cc := congestion.NewStandard()
	timer := ticktimer.NewReal()
	r := rudp.NewReceiver(cc, timer, sender)
	n.receivers[addr] = r
	return r
}

// FindNodes runs a lookup for target and blocks until it completes,
// returning the k closest contacts found.
func (n *Node) FindNodes(target identifier.ID) []contact.Contact {
	resultCh := make(chan []contact.Contact, 1)
	n.Engine.FindNodes(target, func(_ contact.RankInfo, _ lookup.ResultCode, contacts []contact.Contact) {
		resultCh <- contacts
	})
	return <-resultCh
}

// Join checks locally that this node's validator can sign a challenge and
// verify the signature under its own credentials, then seeds the routing
// table with the bootstrap peer and performs a self-lookup, mirroring the
// teacher's bootstrap self-lookup sequence in main. No JOIN_* handshake
// messages are exchanged with the bootstrap peer.
func (n *Node) Join(bootstrapAddr string) error {
	addr, err := net.ResolveUDPAddr("udp", bootstrapAddr)
	if err != nil {
		return fmt.Errorf("node: resolve bootstrap %q: %w", bootstrapAddr, err)
	}

	nonce, err := n.Validator.Challenge()
	if err != nil {
		return fmt.Errorf("node: build challenge: %w", err)
	}
	sig, err := n.Validator.Respond(nonce)
	if err != nil {
		return fmt.Errorf("node: sign challenge: %w", err)
	}
	ok, err := n.Validator.Verify(n.Self.Credentials, nonce, sig)
	if err != nil || !ok {
		return fmt.Errorf("node: self-verification of join handshake failed: %w", err)
	}

	bootstrap := contact.Contact{ID: identifier.ID{}, PrimaryEndpoint: addr.String()}
	n.RoutingTable.AddContact(bootstrap, contact.RankInfo{})

	log.Printf("[JOIN] performing self-lookup to populate routing table")
	found := n.FindNodes(n.Self.ID)
	log.Printf("[JOIN] bootstrap complete, found %d nodes close to self", len(found))
	return nil
}

// WaitGreeting is a small helper main uses to give the socket a moment to
// bind before dialing a bootstrap peer, matching the teacher's startup
// ordering.
func WaitGreeting() { time.Sleep(50 * time.Millisecond) }
