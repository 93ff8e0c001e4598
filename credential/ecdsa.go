package credential

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

// ECDSAValidator signs challenges with a P-256 key, the curve and flow used
// by id_tools/pid.go's GenerateNewPID/SignMessage/VerifySignature/
// VerifyIdentity.
type ECDSAValidator struct {
	priv *ecdsa.PrivateKey
}

// NewECDSAValidator generates a fresh P-256 identity.
func NewECDSAValidator() (*ECDSAValidator, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("credential: generate ecdsa key: %w", err)
	}
	return &ECDSAValidator{priv: priv}, nil
}

func (v *ECDSAValidator) Issue() ([]byte, error) {
	pub := v.priv.PublicKey
	return elliptic.Marshal(pub.Curve, pub.X, pub.Y), nil
}

func (v *ECDSAValidator) Challenge() ([]byte, error) {
	return NewNonce(defaultNonceSize)
}

func (v *ECDSAValidator) Respond(nonce []byte) ([]byte, error) {
	h := sha256.Sum256(nonce)
	sig, err := ecdsa.SignASN1(rand.Reader, v.priv, h[:])
	if err != nil {
		return nil, fmt.Errorf("credential: sign: %w", err)
	}
	return sig, nil
}

func (v *ECDSAValidator) Verify(credentials, nonce, signature []byte) (bool, error) {
	pub, err := parseECDSAPublicKey(credentials)
	if err != nil {
		return false, err
	}
	h := sha256.Sum256(nonce)
	return ecdsa.VerifyASN1(pub, h[:], signature), nil
}

func parseECDSAPublicKey(b []byte) (*ecdsa.PublicKey, error) {
	curve := elliptic.P256()
	x, y := elliptic.Unmarshal(curve, b)
	if x == nil {
		return nil, fmt.Errorf("credential: invalid ecdsa public key encoding")
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}
