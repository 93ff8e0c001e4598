package lookup

import (
	"testing"

	"github.com/kutluhann/kademlia-node/contact"
	"github.com/kutluhann/kademlia-node/identifier"
	"github.com/kutluhann/kademlia-node/routingtable"
	"github.com/kutluhann/kademlia-node/rpcclient"
)

func idAt(b byte) identifier.ID {
	var id identifier.ID
	id[identifier.Length-1] = b
	return id
}

func mkContact(b byte) contact.Contact {
	return contact.Contact{ID: idAt(b), PrimaryEndpoint: "peer"}
}

func newEngine(self identifier.ID, k, alpha, beta int, rt routingtable.RoutingTable, rpc rpcclient.Client) *Engine {
	return &Engine{Self: self, K: k, Alpha: alpha, Beta: beta, RoutingTable: rt, RPC: rpc}
}

func waitResult(t *testing.T, ctx *Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	}
}

// S1: all k seeded contacts time out -> callback fires with empty list.
func TestS1_AllSilent(t *testing.T) {
	self := idAt(0)
	target := idAt(1)
	rt := routingtable.New(self, 8)
	fake := rpcclient.NewFake()

	for i := byte(2); i < 10; i++ {
		c := mkContact(i)
		rt.AddContact(c, contact.RankInfo{})
		fake.ScriptFailure(c.ID)
	}

	e := newEngine(self, 8, 3, 2, rt, fake)
	var got []contact.Contact
	ctx := e.FindNodes(target, func(_ contact.RankInfo, _ ResultCode, contacts []contact.Contact) {
		got = contacts
	})
	waitResult(t, ctx)

	if len(got) != 0 {
		t.Fatalf("want empty result, got %d contacts", len(got))
	}
}

// S2: first seeded contact times out, others respond empty -> 7 contacts.
func TestS2_OneSilent(t *testing.T) {
	self := idAt(0)
	target := idAt(1)
	rt := routingtable.New(self, 8)
	fake := rpcclient.NewFake()

	contacts := make([]contact.Contact, 0, 8)
	for i := byte(2); i < 10; i++ {
		c := mkContact(i)
		contacts = append(contacts, c)
		rt.AddContact(c, contact.RankInfo{})
	}
	fake.ScriptFailure(contacts[0].ID)
	for _, c := range contacts[1:] {
		fake.ScriptSuccess(c.ID, contact.RankInfo{}, nil)
	}

	e := newEngine(self, 8, 3, 2, rt, fake)
	var got []contact.Contact
	ctx := e.FindNodes(target, func(_ contact.RankInfo, _ ResultCode, cs []contact.Contact) {
		got = cs
	})
	waitResult(t, ctx)

	if len(got) != 7 {
		t.Fatalf("want 7 contacts, got %d", len(got))
	}
}

// S3: first and last seeded contacts time out, the rest respond empty -> 6.
func TestS3_FirstAndLastSilent(t *testing.T) {
	self := idAt(0)
	target := idAt(1)
	rt := routingtable.New(self, 8)
	fake := rpcclient.NewFake()

	contacts := make([]contact.Contact, 0, 8)
	for i := byte(2); i < 10; i++ {
		c := mkContact(i)
		contacts = append(contacts, c)
		rt.AddContact(c, contact.RankInfo{})
	}
	fake.ScriptFailure(contacts[0].ID)
	fake.ScriptFailure(contacts[len(contacts)-1].ID)
	for _, c := range contacts[1 : len(contacts)-1] {
		fake.ScriptSuccess(c.ID, contact.RankInfo{}, nil)
	}

	e := newEngine(self, 8, 3, 2, rt, fake)
	var got []contact.Contact
	ctx := e.FindNodes(target, func(_ contact.RankInfo, _ ResultCode, cs []contact.Contact) {
		got = cs
	})
	waitResult(t, ctx)

	if len(got) != 6 {
		t.Fatalf("want 6 contacts, got %d", len(got))
	}
}

// S4: every seeded contact responds empty -> all 8 delivered.
func TestS4_AllEmpty(t *testing.T) {
	self := idAt(0)
	target := idAt(1)
	rt := routingtable.New(self, 8)
	fake := rpcclient.NewFake()

	for i := byte(2); i < 10; i++ {
		c := mkContact(i)
		rt.AddContact(c, contact.RankInfo{})
		fake.ScriptSuccess(c.ID, contact.RankInfo{}, nil)
	}

	e := newEngine(self, 8, 3, 2, rt, fake)
	var got []contact.Contact
	ctx := e.FindNodes(target, func(_ contact.RankInfo, _ ResultCode, cs []contact.Contact) {
		got = cs
	})
	waitResult(t, ctx)

	if len(got) != 8 {
		t.Fatalf("want 8 contacts, got %d", len(got))
	}
}

// S5: large candidate pool behind the seeded shortlist, random subsets
// returned; expect exactly k contacts, all of them the k globally closest
// across the whole candidate universe.
func TestS5_Convergence(t *testing.T) {
	const k, alpha, beta = 8, 3, 2
	self := idAt(0)
	target := idAt(1)
	rt := routingtable.New(self, k)
	fake := rpcclient.NewFake()

	universe := make([]contact.Contact, 0, 10*k)
	for i := 0; i < 10*k; i++ {
		c := mkContact(byte(2 + i%250))
		// Disambiguate IDs beyond the single trailing byte used by other
		// tests, to build a genuinely large universe.
		c.ID[identifier.Length-2] = byte(i / 250)
		universe = append(universe, c)
	}

	// Oracle: sort the whole universe by distance to target.
	oracle := append([]contact.Contact(nil), universe...)
	sortByDistance(oracle, target)
	want := make(map[identifier.ID]bool, k)
	for _, c := range oracle[:k] {
		want[c.ID] = true
	}

	// Seed the routing table with the k closest known locally (a subset of
	// the universe) and script every universe member to answer with a
	// deterministic "subset" of other universe members closer to target.
	seedCount := k
	for i := 0; i < seedCount; i++ {
		rt.AddContact(oracle[len(oracle)-1-i], contact.RankInfo{}) // start far, forcing real exploration
	}
	for idx, c := range universe {
		resp := make([]contact.Contact, 0, 4)
		for j := 1; j < len(universe) && len(resp) < 4; j++ {
			cand := universe[(idx+j*7)%len(universe)]
			if identifier.Compare(cand.ID, c.ID, target) < 0 {
				resp = append(resp, cand)
			}
		}
		fake.ScriptSuccess(c.ID, contact.RankInfo{}, resp)
	}

	e := newEngine(self, k, alpha, beta, rt, fake)
	var got []contact.Contact
	ctx := e.FindNodes(target, func(_ contact.RankInfo, _ ResultCode, cs []contact.Contact) {
		got = cs
	})
	waitResult(t, ctx)

	if len(got) != k {
		t.Fatalf("want %d contacts, got %d", k, len(got))
	}
	for _, c := range got {
		if !want[c.ID] {
			t.Errorf("returned contact %s is not among the %d globally closest", c.ID, k)
		}
	}
}

func sortByDistance(cs []contact.Contact, target identifier.ID) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && identifier.Compare(cs[j].ID, cs[j-1].ID, target) < 0; j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}

// At-most-once callback: duplicate and late RPC results after termination
// must not fire the callback again.
func TestCallback_FiresExactlyOnce(t *testing.T) {
	self := idAt(0)
	target := idAt(1)
	rt := routingtable.New(self, 4)
	fake := rpcclient.NewFake()
	fake.Async = true

	for i := byte(2); i < 6; i++ {
		c := mkContact(i)
		rt.AddContact(c, contact.RankInfo{})
		fake.ScriptSuccess(c.ID, contact.RankInfo{}, nil)
	}

	e := newEngine(self, 4, 3, 2, rt, fake)
	calls := 0
	ctx := e.FindNodes(target, func(_ contact.RankInfo, _ ResultCode, _ []contact.Contact) {
		calls++
	})
	waitResult(t, ctx)

	if calls != 1 {
		t.Fatalf("want callback fired exactly once, got %d", calls)
	}
}

// Empty seed: an empty routing table delivers success with an empty result
// rather than an error.
func TestEmptySeed(t *testing.T) {
	self := idAt(0)
	target := idAt(1)
	rt := routingtable.New(self, 8)
	fake := rpcclient.NewFake()

	e := newEngine(self, 8, 3, 2, rt, fake)
	var gotCode ResultCode
	var got []contact.Contact
	ctx := e.FindNodes(target, func(_ contact.RankInfo, code ResultCode, cs []contact.Contact) {
		gotCode = code
		got = cs
	})
	waitResult(t, ctx)

	if gotCode != Success {
		t.Fatalf("want Success, got %v", gotCode)
	}
	if len(got) != 0 {
		t.Fatalf("want empty result, got %d", len(got))
	}
}
