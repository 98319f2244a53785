package authority

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultKeyBits is the RSA modulus size for generated realm key pairs.
const DefaultKeyBits = 4096

// NewKeyPair generates fresh RSA signing material for a realm. The private
// key is PKCS#1 PEM, the public key PKIX PEM; both halves are what the token
// service consumes directly.
func NewKeyPair(realmID uuid.UUID, bits int) (*KeyPair, error) {
	if bits <= 0 {
		bits = DefaultKeyBits
	}

	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate RSA key pair")
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode RSA public key")
	}

	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	})

	return &KeyPair{
		ID:         uuid.New(),
		RealmID:    realmID,
		PublicKey:  publicPEM,
		PrivateKey: privatePEM,
	}, nil
}

// NewestKeyPair picks the signing pair from a realm's retained list: the
// most recently created one. Pairs without a creation timestamp lose to any
// pair that has one.
func NewestKeyPair(pairs []*KeyPair) *KeyPair {
	var newest *KeyPair
	for _, pair := range pairs {
		if pair == nil {
			continue
		}
		if newest == nil {
			newest = pair
			continue
		}
		if pair.CreatedAt == nil {
			continue
		}
		if newest.CreatedAt == nil || pair.CreatedAt.After(*newest.CreatedAt) {
			newest = pair
		}
	}
	return newest
}

// PublicKeys projects every retained pair, preserving stored order so token
// verification tries keys oldest first, the same order they were appended.
func PublicKeys(pairs []*KeyPair) []PublicKey {
	keys := make([]PublicKey, 0, len(pairs))
	for _, pair := range pairs {
		if pair == nil {
			continue
		}
		keys = append(keys, pair.Public())
	}
	return keys
}
