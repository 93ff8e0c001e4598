// Package routingtable implements C2, the routing-table collaborator: it
// stores contacts in k-buckets keyed by XOR distance from self. The lookup
// engine in package lookup only ever calls the RoutingTable interface below
// — this package's internals are deliberately a plain data structure, not
// part of the specified core.
//
// Grounded on dht/bucket.go (per-bucket mutex, move-to-tail update) and
// dht/routing_table.go (FindClosest's "start at the target bucket and
// spread outward" scan, GetBucketIndex's leading-bit search).
package routingtable

import (
	"sort"
	"sync"

	"github.com/kutluhann/kademlia-node/contact"
	"github.com/kutluhann/kademlia-node/identifier"
)

// RoutingTable is the interface the lookup engine (C5) and RPC layer
// consume, matching §6's "Routing table (C2, consumed)".
type RoutingTable interface {
	GetCloseContacts(target identifier.ID, k int, exclude identifier.ID) []contact.Contact
	AddContact(c contact.Contact, rank contact.RankInfo)
	SetValidated(id identifier.ID, valid bool)
	GetContact(id identifier.ID) (contact.Contact, bool)
}

const numBuckets = identifier.Length * 8

type entry struct {
	contact   contact.Contact
	rank      contact.RankInfo
	validated bool
}

type bucket struct {
	mu      sync.RWMutex
	entries []entry
}

func (b *bucket) update(e entry, capacity int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, existing := range b.entries {
		if existing.contact.Equal(e.contact) {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			b.entries = append(b.entries, e)
			return
		}
	}
	if len(b.entries) < capacity {
		b.entries = append(b.entries, e)
	}
	// Full bucket, unknown contact: per the teacher's simplified "no
	// split, no least-recently-seen eviction probe" policy, the new
	// contact is dropped. A production routing table would ping the
	// bucket head first; that liveness probe belongs to the RPC
	// collaborator, not this data structure.
}

func (b *bucket) setValidated(id identifier.ID, valid bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.entries {
		if b.entries[i].contact.ID == id {
			b.entries[i].validated = valid
			return
		}
	}
}

func (b *bucket) snapshot() []entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]entry, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *bucket) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Table is the default, in-memory RoutingTable implementation: one bucket
// per bit of the identifier space, capacity k contacts each.
type Table struct {
	self     identifier.ID
	capacity int
	buckets  [numBuckets]*bucket
}

// New creates a routing table for a node identified by self, with k
// contacts of capacity per bucket.
func New(self identifier.ID, k int) *Table {
	t := &Table{self: self, capacity: k}
	for i := range t.buckets {
		t.buckets[i] = &bucket{}
	}
	return t
}

func (t *Table) bucketIndex(id identifier.ID) int {
	idx := t.self.PrefixLen(id)
	if idx >= numBuckets {
		return numBuckets - 1
	}
	return idx
}

func (t *Table) AddContact(c contact.Contact, rank contact.RankInfo) {
	if c.ID == t.self {
		return
	}
	idx := t.bucketIndex(c.ID)
	t.buckets[idx].update(entry{contact: c, rank: rank}, t.capacity)
}

func (t *Table) SetValidated(id identifier.ID, valid bool) {
	idx := t.bucketIndex(id)
	t.buckets[idx].setValidated(id, valid)
}

func (t *Table) GetContact(id identifier.ID) (contact.Contact, bool) {
	idx := t.bucketIndex(id)
	for _, e := range t.buckets[idx].snapshot() {
		if e.contact.ID == id {
			return e.contact, true
		}
	}
	return contact.Contact{}, false
}

// GetCloseContacts returns up to k contacts closest to target, starting the
// scan at target's own bucket and spreading outward until enough candidates
// are gathered, then sorting by XOR distance. A contact whose ID equals
// exclude is omitted from the result, whatever exclude's value.
func (t *Table) GetCloseContacts(target identifier.ID, k int, exclude identifier.ID) []contact.Contact {
	start := t.bucketIndex(target)

	candidates := make([]contact.Contact, 0, k*2)
	collect := func(idx int) {
		if idx < 0 || idx >= numBuckets {
			return
		}
		for _, e := range t.buckets[idx].snapshot() {
			if e.contact.ID == exclude {
				continue
			}
			candidates = append(candidates, e.contact)
		}
	}

	collect(start)
	for spread := 1; len(candidates) < k*2 && (start-spread >= 0 || start+spread < numBuckets); spread++ {
		collect(start - spread)
		collect(start + spread)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return identifier.Compare(candidates[i].ID, candidates[j].ID, target) < 0
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// TotalContacts reports how many contacts the table currently holds, for
// diagnostics and the HTTP status endpoint.
func (t *Table) TotalContacts() int {
	n := 0
	for _, b := range t.buckets {
		n += b.len()
	}
	return n
}
