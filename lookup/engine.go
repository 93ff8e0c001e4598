package lookup

import (
	"github.com/kutluhann/kademlia-node/contact"
	"github.com/kutluhann/kademlia-node/identifier"
	"github.com/kutluhann/kademlia-node/routingtable"
	"github.com/kutluhann/kademlia-node/rpcclient"
)

// ResultCode mirrors §6's RPC convention: positive is success, <= 0 is
// failure. The engine itself only ever reports success (possibly with an
// undersized or empty result) per §7's error-handling design — a
// non-positive code is reserved for completeness and future transport-level
// escalation, never produced today.
type ResultCode int

const (
	// Success marks a completed lookup, whether by convergence,
	// non-progress exhaustion, or an empty seed.
	Success ResultCode = 1
)

// Callback is invoked exactly once per Context, per §4.2.
type Callback func(rank contact.RankInfo, result ResultCode, contacts []contact.Contact)

// Context is a single lookup's state: target, shortlist, round counter,
// and terminated flag (§3, "Lookup context"). The callback is not stored
// here; the engine's run loop holds it.
type Context struct {
	target    identifier.ID
	shortlist *Shortlist
	round     int

	terminated terminatedFlag
	cancelCh   chan struct{}
	done       chan struct{}
}

// Cancel terminates the lookup early: its owner's terminated flag is set so
// any in-flight RPC result still arriving is dropped rather than acted on
// (§5, "Cancellation"). The callback is not invoked for a cancelled lookup.
func (c *Context) Cancel() {
	select {
	case <-c.cancelCh:
	default:
		close(c.cancelCh)
	}
}

// Done closes once the lookup has terminated (successfully or cancelled),
// for tests and callers that want to block on completion.
func (c *Context) Done() <-chan struct{} { return c.done }

// Engine drives the α-parallel, β-progressing iterative lookup (C5).
type Engine struct {
	Self  identifier.ID
	K     int
	Alpha int
	Beta  int

	RoutingTable routingtable.RoutingTable
	RPC          rpcclient.Client
	Credentials  []byte
}

type rpcEvent struct {
	peer       contact.Contact
	rank       contact.RankInfo
	resultSize int
	contacts   []contact.Contact
}

// FindNodes performs the iterative lookup for target and fires callback
// exactly once with the k closest live contacts found, per §4.2.
func (e *Engine) FindNodes(target identifier.ID, callback Callback) *Context {
	ctx := &Context{
		target:    target,
		shortlist: NewShortlist(target, e.Self),
		cancelCh:  make(chan struct{}),
		done:      make(chan struct{}),
	}

	seed := e.RoutingTable.GetCloseContacts(target, e.K, e.Self)
	if len(seed) == 0 {
		ctx.terminated.set()
		close(ctx.done)
		callback(contact.RankInfo{}, Success, nil)
		return ctx
	}
	for _, c := range seed {
		ctx.shortlist.Insert(c)
	}

	go e.run(ctx, callback)
	return ctx
}

func (e *Engine) run(ctx *Context, callback Callback) {
	defer close(ctx.done)

	resultCh := make(chan rpcEvent, e.Alpha*4+4)
	finishing := false

	// peakAllowance bounds how many probes may be pending at once: normally
	// alpha, but the beta progress rule can open a new wave before the
	// previous one has fully drained, so the hard ceiling is
	// alpha + (alpha-beta) (§4.2 invariants, testable property #3).
	peakAllowance := e.Alpha + (e.Alpha - e.Beta)
	if peakAllowance < e.Alpha {
		peakAllowance = e.Alpha
	}

	var waveStartDist *identifier.Distance

	dispatch := func() bool {
		var batch []entry
		if finishing {
			batch = ctx.shortlist.FirstKNew(e.K)
			if len(batch) > e.Alpha {
				batch = batch[:e.Alpha]
			}
		} else {
			room := peakAllowance - ctx.shortlist.CountPending()
			if room <= 0 {
				return false
			}
			n := e.Alpha
			if room < n {
				n = room
			}
			batch = ctx.shortlist.FirstAlphaEligible(n)
		}
		if len(batch) == 0 {
			return false
		}

		ctx.round++
		round := ctx.round
		waveStartDist = ctx.shortlist.BestRespondedDistance()

		for _, e2 := range batch {
			ctx.shortlist.MarkPending(e2.contact.ID, round)
		}
		for _, e2 := range batch {
			peer := e2.contact
			e.RPC.FindNodes(ctx.target, e.Credentials, peer, func(rank contact.RankInfo, resultSize int, contacts []contact.Contact) {
				if ctx.terminated.isSet() {
					return
				}
				select {
				case resultCh <- rpcEvent{peer: peer, rank: rank, resultSize: resultSize, contacts: contacts}:
				case <-ctx.cancelCh:
				}
			}, rpcclient.TransportDirect)
		}
		return true
	}

	finish := func(rank contact.RankInfo) {
		ctx.terminated.set()
		callback(rank, Success, ctx.shortlist.RespondedFirstK(e.K))
	}

	if !dispatch() {
		// Nothing eligible to probe even once (e.g. every seeded contact
		// was somehow already terminal) — exhaustion from the start.
		finish(contact.RankInfo{})
		return
	}

	for {
		select {
		case <-ctx.cancelCh:
			ctx.terminated.set()
			return
		case ev := <-resultCh:
			if ctx.terminated.isSet() {
				continue // late arrival after termination: dropped
			}

			if ev.resultSize < 0 {
				ctx.shortlist.MarkDown(ev.peer.ID)
			} else {
				ctx.shortlist.MarkResponded(ev.peer.ID, ev.rank)
				for _, c := range ev.contacts {
					ctx.shortlist.Insert(c)
				}
			}
			// Convergence test (§4.2 step 5): every first-k entry
			// terminal, and no pending probe targets a first-k entry.
			if ctx.shortlist.AllTerminal(e.K) && firstKPending(ctx.shortlist, e.K) == 0 {
				finish(ev.rank)
				return
			}

			// Exhaustion (§4.2 step 7): nothing left to probe, ever.
			if ctx.shortlist.CountPending() == 0 && ctx.shortlist.CountNew() == 0 {
				finish(ev.rank)
				return
			}

			// Wave completion and β-progress are judged only against the
			// most recently dispatched round. Each entry's round field
			// (stamped once by MarkPending and never revisited) is a
			// permanent record of which wave it belongs to, so a straggler
			// result from a superseded round can only affect that round's
			// own counts, never the current one's (§4.2 steps 4 and 6).
			round := ctx.round
			waveSize := ctx.shortlist.CountInRound(round)
			waveReturned := waveSize - ctx.shortlist.CountPendingInRound(round)

			if waveReturned >= waveSize {
				// The wave fully drained: decide progress vs. finishing
				// mode (§4.2 step 6) before dispatching the next wave.
				if !finishing {
					nowDist := ctx.shortlist.BestRespondedDistance()
					if !improved(waveStartDist, nowDist) {
						finishing = true
					}
				}
				dispatch() // no-op (returns false) if nothing left
			} else if !finishing && waveReturned >= min(e.Beta, waveSize) {
				// β-progress rule: start the next wave without waiting
				// for the rest of this one to drain.
				dispatch()
			}
		}
	}
}

// firstKPending counts Pending entries within the first-k window.
func firstKPending(s *Shortlist, k int) int {
	n := 0
	for _, e := range s.FirstK(k) {
		if e.state == StatePending {
			n++
		}
	}
	return n
}

// improved reports whether now is strictly closer than before (before == nil
// and now != nil counts as an improvement: first response ever).
func improved(before, now *identifier.Distance) bool {
	if now == nil {
		return false
	}
	if before == nil {
		return true
	}
	return now.Less(*before)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
