// Package constants holds the module's tunable defaults: the α/β/k
// lookup parameters and the RUDP wire-level parameters §6 calls out as
// externally visible.
//
// Grounded on the teacher's constants.go (flat package of untyped consts,
// K/Alpha already present there for its own lookup code).
package constants

import "time"

const (
	// K is the replication / result-set cardinality (§ Glossary).
	K = 8

	// Alpha is the maximum simultaneous probes per lookup round.
	Alpha = 3

	// Beta is the minimum probes that must return before the next round
	// may begin.
	Beta = 2

	// NumBuckets is the identifier space's bit width, one bucket per bit.
	NumBuckets = 160
)

const (
	// UDPPayloadCeiling is the maximum UDP payload size a data packet may
	// occupy, per §6's RUDP wire-level constants.
	UDPPayloadCeiling = 65500

	// DefaultDataPayloadSize bounds a single data packet's payload below
	// the UDP ceiling, leaving room for envelope overhead.
	DefaultDataPayloadSize = 1200

	// DefaultWindowSize is the default/maximum packet window size.
	DefaultWindowSize = 32

	// DefaultAckInterval is how many sequence numbers elapse between
	// unconditional (non-delayed) ACKs.
	DefaultAckInterval = 8
)

const (
	DefaultSendDelay       = 20 * time.Millisecond
	DefaultReceiveDelay    = 20 * time.Millisecond
	DefaultAckDelay        = 40 * time.Millisecond
	DefaultNakDelay        = 100 * time.Millisecond
	DefaultConnectionDelay = 5 * time.Second
)

const (
	// BootstrapContactsFile names the persisted bootstrap-contacts file
	// beneath a node's data directory.
	BootstrapContactsFile = "bootstrap_contacts.json"

	// DefaultDataDir is where a node persists its identity and bootstrap
	// contacts when no override is configured.
	DefaultDataDir = "data/node"
)
