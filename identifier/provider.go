package identifier

import (
	"crypto/ecdsa"
	"crypto/sha1"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/blake2b"
)

// Provider is the identifier-provider collaborator the spec's Non-goals
// delegate "the choice of hash function" to. The lookup engine and routing
// table never hash anything themselves; they only compare IDs already
// produced by a Provider.
type Provider interface {
	// IDFromBytes derives a 160-bit identifier from arbitrary data, e.g. a
	// node's serialized public key.
	IDFromBytes(data []byte) ID

	// Name identifies the scheme, for logging and wire negotiation.
	Name() string
}

// SHA1Provider hashes with SHA-1 and truncates to the ID width, the
// classical Kademlia choice and the teacher's own crypto/sha1 habit
// (dht/kademlia.go's keyFromData in the sibling lab repo, id_tools'
// crypto/sha256 habit in this one).
type SHA1Provider struct{}

func (SHA1Provider) IDFromBytes(data []byte) ID {
	sum := sha1.Sum(data)
	var id ID
	copy(id[:], sum[:])
	return id
}

func (SHA1Provider) Name() string { return "sha1" }

// KeccakProvider derives an ID from a public key's Keccak-256 digest,
// truncated to 160 bits. Mirrors how go-ethereum's p2p/enode derives node
// IDs from public keys (seen throughout the pack's p2p/discover/*udp.go
// family); this wires the teacher's otherwise-unused go-ethereum dependency
// into a concrete identifier scheme.
type KeccakProvider struct{}

func (KeccakProvider) IDFromBytes(data []byte) ID {
	sum := gethcrypto.Keccak256(data)
	var id ID
	copy(id[:], sum[len(sum)-Length:])
	return id
}

func (KeccakProvider) Name() string { return "keccak256" }

// IDFromPublicKey is a convenience matching go-ethereum's PubkeyID shape:
// identify a node by the Keccak-256 hash of its uncompressed public key.
func (k KeccakProvider) IDFromPublicKey(pub *ecdsa.PublicKey) ID {
	return k.IDFromBytes(gethcrypto.FromECDSAPub(pub))
}

// Blake2bProvider uses BLAKE2b-160 for nodes that want a fast, non-keyed
// hash without pulling in an elliptic-curve dependency merely for the
// identifier. Wires golang.org/x/crypto directly rather than leaving it a
// purely transitive dependency of secp256k1/ecies.
type Blake2bProvider struct{}

func (Blake2bProvider) IDFromBytes(data []byte) ID {
	h, err := blake2b.New(Length, nil)
	if err != nil {
		// Length (20) is within blake2b's supported digest sizes (1..64),
		// so New only fails on a bad key, which we never pass.
		panic("identifier: blake2b: " + err.Error())
	}
	h.Write(data)
	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

func (Blake2bProvider) Name() string { return "blake2b-160" }
