// Package rpcclient defines C3, the RPC client collaborator the lookup
// engine drives, plus a Fake implementation for tests. The spec's Design
// Notes call out that the original's "mock-based testing of the RPC client"
// maps to "a narrow consumed interface with a fake implementation for
// tests" — that is exactly this package.
//
// Grounded on dht/network.go's MessageHandler interface and
// SendFindNode/sendFindValueTo call shape.
package rpcclient

import (
	"sync"

	"github.com/kutluhann/kademlia-node/contact"
	"github.com/kutluhann/kademlia-node/identifier"
)

// TransportType distinguishes how a probe should be carried, e.g. direct UDP
// vs. relayed through a rendezvous peer. Opaque to the lookup engine beyond
// being passed through.
type TransportType int

const (
	TransportDirect TransportType = iota
	TransportRendezvous
)

// ResultCallback is invoked exactly once per FindNodes call, per §6:
// resultSize < 0 means failure; otherwise contacts holds the peer's answer
// (possibly empty).
type ResultCallback func(rank contact.RankInfo, resultSize int, contacts []contact.Contact)

// Client is the RPC client collaborator (C3, consumed).
type Client interface {
	FindNodes(key identifier.ID, credentials []byte, peer contact.Contact, callback ResultCallback, transport TransportType)
}

// Fake is an in-memory Client for tests: callers script per-peer responses
// or failures, and FindNodes replays them synchronously (or asynchronously,
// if Async is set) against the registered callback.
type Fake struct {
	mu        sync.Mutex
	responses map[identifier.ID]fakeResponse
	Async     bool
	calls     []FakeCall
}

type fakeResponse struct {
	fail     bool
	rank     contact.RankInfo
	contacts []contact.Contact
}

// FakeCall records one FindNodes invocation for assertions.
type FakeCall struct {
	Target identifier.ID
	Peer   identifier.ID
}

// NewFake returns an empty Fake client; unscripted peers time out (fail).
func NewFake() *Fake {
	return &Fake{responses: make(map[identifier.ID]fakeResponse)}
}

// ScriptSuccess arranges for peer to answer any FindNodes call with contacts
// and rank.
func (f *Fake) ScriptSuccess(peer identifier.ID, rank contact.RankInfo, contacts []contact.Contact) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[peer] = fakeResponse{rank: rank, contacts: contacts}
}

// ScriptFailure arranges for peer to fail (time out) on any FindNodes call.
func (f *Fake) ScriptFailure(peer identifier.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[peer] = fakeResponse{fail: true}
}

// Calls returns a snapshot of every FindNodes invocation observed so far.
func (f *Fake) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) FindNodes(key identifier.ID, _ []byte, peer contact.Contact, callback ResultCallback, _ TransportType) {
	f.mu.Lock()
	resp, ok := f.responses[peer.ID]
	f.calls = append(f.calls, FakeCall{Target: key, Peer: peer.ID})
	f.mu.Unlock()

	deliver := func() {
		if !ok || resp.fail {
			callback(contact.RankInfo{}, -1, nil)
			return
		}
		callback(resp.rank, len(resp.contacts), resp.contacts)
	}

	if f.Async {
		go deliver()
		return
	}
	deliver()
}
