// Package lookup implements C4 (the per-target shortlist) and C5 (the
// iterative α/β/k lookup engine) — the core of this module per §4.1/§4.2 of
// the specification.
//
// Grounded on dht/algorithms.go and dht/lookup.go's LookupState
// (Shortlist/Contacted/Append/Sort/PickNextBest/MarkContacted), generalized
// from the teacher's sequential α=1 walk with a boolean "contacted" map into
// the spec's four-state shortlist entries and bounded α/β concurrency.
package lookup

import (
	"sort"
	"sync"

	"github.com/kutluhann/kademlia-node/contact"
	"github.com/kutluhann/kademlia-node/identifier"
)

// State is the per-node state of a shortlist entry (§3, "Lookup shortlist
// entry"). Once Responded or Down, state never changes again.
type State int

const (
	StateNew State = iota
	StatePending
	StateResponded
	StateDown
)

func (s State) terminal() bool {
	return s == StateResponded || s == StateDown
}

type entry struct {
	contact contact.Contact
	rank    contact.RankInfo
	state   State
	round   int
}

// Shortlist holds a target lookup's candidates, ordered ascending by XOR
// distance to target, ties broken by lexicographic ID order. It is not
// concurrency-safe by itself: per §5, all mutation happens on the owning
// lookup's lane.
type Shortlist struct {
	target  identifier.ID
	self    identifier.ID
	entries []entry
	index   map[identifier.ID]int
}

// NewShortlist creates an empty shortlist for target, refusing to ever
// insert self (the node's own ID is never added to a shortlist, §4.2).
func NewShortlist(target, self identifier.ID) *Shortlist {
	return &Shortlist{
		target: target,
		self:   self,
		index:  make(map[identifier.ID]int),
	}
}

// Insert adds contact if its ID is new, in distance order; idempotent on ID.
func (s *Shortlist) Insert(c contact.Contact) {
	if c.ID == s.self {
		return
	}
	if _, exists := s.index[c.ID]; exists {
		return
	}
	s.entries = append(s.entries, entry{contact: c, state: StateNew})
	s.resort()
}

func (s *Shortlist) resort() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		a, b := s.entries[i].contact.ID, s.entries[j].contact.ID
		switch identifier.Compare(a, b, s.target) {
		case -1:
			return true
		case 1:
			return false
		default:
			return a.Less(b)
		}
	})
	s.index = make(map[identifier.ID]int, len(s.entries))
	for i, e := range s.entries {
		s.index[e.contact.ID] = i
	}
}

// Len reports how many contacts the shortlist currently holds.
func (s *Shortlist) Len() int { return len(s.entries) }

// FirstK returns the k entries with the smallest distance to target.
func (s *Shortlist) FirstK(k int) []entry {
	if k > len(s.entries) {
		k = len(s.entries)
	}
	out := make([]entry, k)
	copy(out, s.entries[:k])
	return out
}

// FirstAlphaEligible returns up to alpha entries, in distance order, whose
// state is New — across the whole shortlist, not only within the first-k.
func (s *Shortlist) FirstAlphaEligible(alpha int) []entry {
	out := make([]entry, 0, alpha)
	for _, e := range s.entries {
		if len(out) >= alpha {
			break
		}
		if e.state == StateNew {
			out = append(out, e)
		}
	}
	return out
}

// FirstKNew returns every New entry within the first-k window, in distance
// order — used by the engine's finishing mode (§4.2 step 6).
func (s *Shortlist) FirstKNew(k int) []entry {
	firstK := s.FirstK(k)
	out := make([]entry, 0, len(firstK))
	for _, e := range firstK {
		if e.state == StateNew {
			out = append(out, e)
		}
	}
	return out
}

func (s *Shortlist) mustIndex(id identifier.ID) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// MarkPending transitions id from New to Pending, recording round.
func (s *Shortlist) MarkPending(id identifier.ID, round int) {
	if i, ok := s.mustIndex(id); ok && !s.entries[i].state.terminal() {
		s.entries[i].state = StatePending
		s.entries[i].round = round
	}
}

// MarkResponded transitions id to Responded and attaches rank. A no-op if
// id is already terminal (invariant: terminal states never change).
func (s *Shortlist) MarkResponded(id identifier.ID, rank contact.RankInfo) {
	if i, ok := s.mustIndex(id); ok && !s.entries[i].state.terminal() {
		s.entries[i].state = StateResponded
		s.entries[i].rank = rank
	}
}

// MarkDown transitions id to Down. A no-op if id is already terminal.
func (s *Shortlist) MarkDown(id identifier.ID) {
	if i, ok := s.mustIndex(id); ok && !s.entries[i].state.terminal() {
		s.entries[i].state = StateDown
	}
}

// CountPending returns the number of entries currently Pending.
func (s *Shortlist) CountPending() int {
	n := 0
	for _, e := range s.entries {
		if e.state == StatePending {
			n++
		}
	}
	return n
}

// CountNew returns the number of entries currently New.
func (s *Shortlist) CountNew() int {
	n := 0
	for _, e := range s.entries {
		if e.state == StateNew {
			n++
		}
	}
	return n
}

// CountInRound returns how many entries were dispatched in round (their
// round field was stamped by MarkPending, and persists after the entry
// turns Responded or Down) — the fixed size of that wave.
func (s *Shortlist) CountInRound(round int) int {
	n := 0
	for _, e := range s.entries {
		if e.round == round && e.state != StateNew {
			n++
		}
	}
	return n
}

// CountPendingInRound returns how many entries dispatched in round are
// still Pending — i.e. how much of that wave has yet to return.
func (s *Shortlist) CountPendingInRound(round int) int {
	n := 0
	for _, e := range s.entries {
		if e.round == round && e.state == StatePending {
			n++
		}
	}
	return n
}

// AllTerminal reports whether every entry in the first-k is Responded or
// Down. A Pending first-k entry therefore makes it false.
func (s *Shortlist) AllTerminal(k int) bool {
	firstK := s.FirstK(k)
	for _, e := range firstK {
		if !e.state.terminal() {
			return false
		}
	}
	return true
}

// BestRespondedDistance returns the distance to target of the closest
// Responded entry, or nil if none has responded yet.
func (s *Shortlist) BestRespondedDistance() *identifier.Distance {
	for _, e := range s.entries {
		if e.state == StateResponded {
			d := e.contact.ID.Xor(s.target)
			return &d
		}
	}
	return nil
}

// RespondedFirstK returns the Responded subset of the first-k entries,
// ordered by distance — the value the engine's callback delivers on success.
func (s *Shortlist) RespondedFirstK(k int) []contact.Contact {
	firstK := s.FirstK(k)
	out := make([]contact.Contact, 0, len(firstK))
	for _, e := range firstK {
		if e.state == StateResponded {
			out = append(out, e.contact)
		}
	}
	return out
}

// terminatedFlag is a tiny concurrency-safe latch: the owning lane sets it
// once on termination, and any other goroutine (e.g. a cancel caller, or a
// stray RPC callback firing from a different goroutine than the lane) can
// check it before attempting to act on a context that has already finished.
type terminatedFlag struct {
	mu   sync.Mutex
	done bool
}

func (f *terminatedFlag) set() {
	f.mu.Lock()
	f.done = true
	f.mu.Unlock()
}

func (f *terminatedFlag) isSet() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}
