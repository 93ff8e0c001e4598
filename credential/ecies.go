package credential

import (
	"fmt"

	eciesgo "github.com/ecies/go/v2"
)

// RendezvousCipher encrypts the opaque credential payload a node hands a
// rendezvous peer during the join handshake, so only the intended recipient
// (not the relay) can read it. Grounded on the teacher's JOIN_REQ/
// JOIN_CHALLENGE exchange in dht/message.go, which passes a raw public key
// and nonce in the clear; this generalizes that into an encrypted envelope
// and wires the teacher's otherwise-unused ecies dependency.
type RendezvousCipher struct {
	priv *eciesgo.PrivateKey
}

// NewRendezvousCipher generates a fresh secp256k1-backed ECIES identity.
func NewRendezvousCipher() (*RendezvousCipher, error) {
	priv, err := eciesgo.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("credential: generate ecies key: %w", err)
	}
	return &RendezvousCipher{priv: priv}, nil
}

// PublicKeyBytes returns this cipher's public key, suitable for inclusion in
// a Contact's credentials so peers can encrypt back to it.
func (c *RendezvousCipher) PublicKeyBytes() []byte {
	return c.priv.PublicKey.Bytes(true)
}

// Seal encrypts payload to the peer identified by peerPublicKey.
func Seal(peerPublicKey, payload []byte) ([]byte, error) {
	pub, err := eciesgo.NewPublicKeyFromBytes(peerPublicKey)
	if err != nil {
		return nil, fmt.Errorf("credential: parse ecies public key: %w", err)
	}
	ciphertext, err := eciesgo.Encrypt(pub, payload)
	if err != nil {
		return nil, fmt.Errorf("credential: seal: %w", err)
	}
	return ciphertext, nil
}

// Open decrypts a payload sealed with this cipher's public key.
func (c *RendezvousCipher) Open(ciphertext []byte) ([]byte, error) {
	plaintext, err := eciesgo.Decrypt(c.priv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("credential: open: %w", err)
	}
	return plaintext, nil
}
