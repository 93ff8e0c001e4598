// Package contact defines the Contact and RankInfo data model shared by the
// routing table, the RPC client, and the lookup engine.
//
// Grounded on dht/node.go's Contact struct and dht/types.go's Node, widened
// per §3 of the spec to carry local/rendezvous endpoints, connectivity
// flags, and opaque credentials.
package contact

import "github.com/kutluhann/kademlia-node/identifier"

// Contact is a tuple of (ID, primary endpoint, local endpoints, rendezvous
// endpoint, directly-connected flag, NAT-restricted flag, credentials).
// Two contacts are equal iff their IDs are equal.
type Contact struct {
	ID identifier.ID

	// PrimaryEndpoint is the address other peers should dial by default.
	PrimaryEndpoint string

	// LocalEndpoints lists additional addresses (e.g. LAN interfaces) a
	// peer on the same network segment might reach this contact through.
	LocalEndpoints []string

	// RendezvousEndpoint is a third-party address (e.g. a relay or
	// bootstrap peer) that can help establish a path to this contact when
	// direct dialing fails.
	RendezvousEndpoint string

	// DirectlyConnected is true when this contact was reached without
	// relaying through a rendezvous peer.
	DirectlyConnected bool

	// NATRestricted marks contacts believed to sit behind a restrictive
	// NAT, informing transport-level dialing strategy (out of scope here).
	NATRestricted bool

	// Credentials is opaque to the lookup engine and routing table; only a
	// credential.Validator interprets it.
	Credentials []byte
}

// Equal reports whether two contacts share the same ID.
func (c Contact) Equal(other Contact) bool {
	return c.ID == other.ID
}

// RankInfo is opaque transport-layer quality metadata attached to RPC
// responses. The lookup engine stores and forwards it but never interprets
// its contents.
type RankInfo struct {
	// Opaque payload, interpreted only by the RPC client/transport layer
	// that produced it (e.g. RTT samples, hop count, relay path).
	Data []byte
}
