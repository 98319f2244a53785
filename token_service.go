package authority

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// DefaultTokenTTL bounds how stale a token's permission snapshot can get.
const DefaultTokenTTL = 20 * time.Minute

// TokenService signs and verifies realm tokens. Tokens are compact JWS:
// three dot-joined base64url segments signed RS256 with a realm key pair.
type TokenService struct {
	logger Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenService{logger: logger}
}

// Sign produces a token from claims using the private half of the given
// key pair. Callers pass the realm's newest pair so rotation takes effect
// on the next issued token.
func (ts *TokenService) Sign(claims *Claims, pair *KeyPair) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}
	if pair == nil {
		return "", goerrors.New("signing key pair must not be nil", goerrors.CategoryInternal)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(pair.PrivateKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse signing key")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)

	signed, err := token.SignedString(key)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign token")
	}

	return signed, nil
}

// Verify tries every candidate public key in stored order and returns the
// claims behind the first successful decode. A failed candidate is normal
// control flow during rotation, not an error. When no candidate works, or
// the token is malformed or expired, the caller gets one generic failure
// that does not reveal which key or stage gave out.
func (ts *TokenService) Verify(tokenString string, candidates []PublicKey) (*Claims, error) {
	for _, candidate := range candidates {
		material, err := candidate.Material()
		if err != nil {
			ts.logger.Debug("skipping undecodable public key %s", candidate.ID)
			continue
		}

		key, err := jwt.ParseRSAPublicKeyFromPEM(material)
		if err != nil {
			ts.logger.Debug("skipping unparsable public key %s", candidate.ID)
			continue
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		})
		if err != nil {
			continue
		}

		if token.Valid {
			return claims, nil
		}
	}

	return nil, ErrTokenUnverified
}
