package authority

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-authority/permission"
)

// Claims is the signed token payload: an optional display email, the
// expiry, and the point-in-time snapshot of the principal's flattened
// permission set. Grants are not re-validated against live data until the
// token is re-issued, so token lifetime bounds staleness.
type Claims struct {
	Email  string   `json:"email,omitempty"`
	Grants []string `json:"grants"`
	jwt.RegisteredClaims
}

// NewClaims builds claims expiring ttl from now.
func NewClaims(email string, grants []string, ttl time.Duration) *Claims {
	if grants == nil {
		grants = []string{}
	}

	return &Claims{
		Email:  email,
		Grants: grants,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
}

// Expires returns the expiration time
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// GrantedPermissions parses the grant strings back into permissions. Grants
// are produced by our own issuance path, so a malformed entry is a real
// error, not something to skip over.
func (c *Claims) GrantedPermissions() ([]permission.Permission, error) {
	granted, err := permission.ParseAll(c.Grants)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "token carries a malformed grant")
	}
	return granted, nil
}

// Can reports whether the claims cover the requested permission string.
// The requested string must be concrete: wildcards only live on the
// granted side.
func (c *Claims) Can(requested string) (bool, error) {
	p, err := permission.Parse(requested)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryValidation, "malformed permission check")
	}

	granted, err := c.GrantedPermissions()
	if err != nil {
		return false, err
	}

	return permission.Can(p, granted), nil
}

// MatchingGrant returns the grant that covers the requested permission,
// broadest first, mirroring permission.GetMatching.
func (c *Claims) MatchingGrant(requested string) (permission.Permission, bool, error) {
	p, err := permission.Parse(requested)
	if err != nil {
		return permission.Permission{}, false, goerrors.Wrap(err, goerrors.CategoryValidation, "malformed permission check")
	}

	granted, err := c.GrantedPermissions()
	if err != nil {
		return permission.Permission{}, false, err
	}

	match, ok := permission.GetMatching(p, granted)
	return match, ok, nil
}
