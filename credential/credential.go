// Package credential implements the pluggable credential validator the
// spec's Non-goals delegate security/authentication to. The lookup engine
// and routing table only ever carry an opaque Contact.Credentials blob; this
// package is where that blob is produced, challenged, and verified.
//
// Grounded on id_tools/pid.go's ECDSA key generation, signing, and identity
// verification, and on dht/message.go's "Secure Join Handshake Protocol"
// (JOIN_REQ/JOIN_CHALLENGE/JOIN_RES/JOIN_ACK), generalized from a bespoke
// four-message exchange into a Validator interface any transport can drive.
package credential

import "crypto/rand"

// Validator is the credential-validator collaborator named in the spec's
// Non-goals ("Security/authentication schemes (delegated to a pluggable
// credential validator)"). It never appears in the lookup engine's
// signature; the RPC client consults it when establishing a session with a
// peer.
type Validator interface {
	// Issue produces the credential bytes this node presents to peers,
	// e.g. a public key plus a self-signature.
	Issue() ([]byte, error)

	// Challenge produces a nonce to send a peer claiming the given
	// credentials, mirroring the teacher's JOIN_CHALLENGE payload.
	Challenge() ([]byte, error)

	// Respond signs a challenge nonce, mirroring JOIN_RES.
	Respond(nonce []byte) ([]byte, error)

	// Verify checks that signature is a valid response to nonce under the
	// credentials presented by Issue, mirroring JOIN_ACK's decision.
	Verify(credentials, nonce, signature []byte) (bool, error)
}

// NewNonce returns a fresh random challenge nonce of the given length.
func NewNonce(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

const defaultNonceSize = 32
