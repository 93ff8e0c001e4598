package credential

import (
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Secp256k1Validator signs challenges with a secp256k1 key, matching the
// curve convention used by the discovery protocols of the other DHT-family
// repositories in the pack (go-ethereum's p2p/discover, delida-xchain).
// Wires the teacher's otherwise-unused decred/dcrd dependency into a real
// credential scheme.
type Secp256k1Validator struct {
	priv *secp256k1.PrivateKey
}

// NewSecp256k1Validator generates a fresh secp256k1 identity.
func NewSecp256k1Validator() (*Secp256k1Validator, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("credential: generate secp256k1 key: %w", err)
	}
	return &Secp256k1Validator{priv: priv}, nil
}

func (v *Secp256k1Validator) Issue() ([]byte, error) {
	return v.priv.PubKey().SerializeCompressed(), nil
}

func (v *Secp256k1Validator) Challenge() ([]byte, error) {
	return NewNonce(defaultNonceSize)
}

func (v *Secp256k1Validator) Respond(nonce []byte) ([]byte, error) {
	h := sha256.Sum256(nonce)
	sig := ecdsa.Sign(v.priv, h[:])
	return sig.Serialize(), nil
}

func (v *Secp256k1Validator) Verify(credentials, nonce, signature []byte) (bool, error) {
	pub, err := secp256k1.ParsePubKey(credentials)
	if err != nil {
		return false, fmt.Errorf("credential: parse secp256k1 public key: %w", err)
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false, fmt.Errorf("credential: parse signature: %w", err)
	}
	h := sha256.Sum256(nonce)
	return sig.Verify(h[:], pub), nil
}
