package authority

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// saltSeparator joins the authority salt and the raw password before
// hashing. The separator is part of the stored digest format; changing it
// invalidates every existing credential.
const saltSeparator = ":::"

// ErrNoEmptyPassword rejects empty passwords before they reach bcrypt.
var ErrNoEmptyPassword = goerrors.New("password must not be empty", goerrors.CategoryValidation)

// HashPassword derives the credential digest from an authority salt and a
// raw password using bcrypt at its adaptive default cost.
func HashPassword(salt, password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyPassword
	}

	h, err := bcrypt.GenerateFromPassword([]byte(salt+saltSeparator+password), bcrypt.DefaultCost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	return string(h), nil
}

// ComparePasswordAndHash recomputes the salted input and validates it
// against a stored digest. A mismatch reports the generic authentication
// failure so callers cannot tell a bad password from a missing credential.
func ComparePasswordAndHash(salt, password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(salt+saltSeparator+password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrAuthenticationFailed
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password digest")
	}
	return nil
}
