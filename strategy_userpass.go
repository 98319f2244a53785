package authority

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// passwordSaltKey is the authority Params field carrying the realm
	// operator's salt for this authority.
	passwordSaltKey = "password_salt"
	// digestKey is the UserAuthority Params field carrying the stored
	// credential digest.
	digestKey = "digest"
)

// UserPasswordStrategy authenticates principals with a salted bcrypt
// digest. The salt lives on the authority, the digest on the
// user-authority link.
type UserPasswordStrategy struct {
	repo     RepositoryManager
	resolver GrantFlattener
	logger   Logger
}

var _ Strategy = (*UserPasswordStrategy)(nil)

func NewUserPasswordStrategy(repo RepositoryManager, resolver GrantFlattener, logger Logger) *UserPasswordStrategy {
	if logger == nil {
		logger = defLogger{}
	}
	return &UserPasswordStrategy{
		repo:     repo,
		resolver: resolver,
		logger:   logger,
	}
}

// UserValues derives the principal row and the credential payload from a
// registration request. The digest is computed here so the raw password
// never reaches storage.
func (s *UserPasswordStrategy) UserValues(authority *Authority, params RegisterParams) (*User, map[string]any, error) {
	salt, err := authoritySalt(authority)
	if err != nil {
		return nil, nil, err
	}

	digest, err := HashPassword(salt, params.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &User{
		ID:        params.ID,
		Username:  params.Username,
		Email:     params.Email,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Phone:     params.Phone,
		Profile:   params.Profile,
		Status:    params.Status,
		Kind:      params.Kind,
	}

	return user, map[string]any{digestKey: digest}, nil
}

// Authenticate verifies a username/password pair and resolves the
// principal's grants in the authority's realm. Every credential row the
// principal holds is tried; the first digest match wins. Credential
// mismatches collapse into the one generic failure, but an unknown
// username surfaces as a not-found.
func (s *UserPasswordStrategy) Authenticate(ctx context.Context, params AuthParams) (*AuthResult, error) {
	if err := params.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid authentication request")
	}

	user, err := s.repo.Users().GetByUsername(ctx, params.Username)
	if err != nil {
		return nil, err
	}

	authority, err := s.repo.Authorities().GetByClientKey(ctx, params.ClientKey)
	if err != nil {
		return nil, err
	}

	salt, err := authoritySalt(authority)
	if err != nil {
		return nil, err
	}

	credentials, err := s.repo.UserAuthorities().ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	matched := false
	for _, credential := range credentials {
		digest, ok := credential.Params[digestKey].(string)
		if !ok || digest == "" {
			continue
		}

		if err := ComparePasswordAndHash(salt, params.Password, digest); err == nil {
			matched = true
			break
		}
	}

	if !matched {
		return nil, ErrAuthenticationFailed
	}

	tree, err := s.resolver.ByUserID(ctx, authority.RealmID, user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User: user,
		Tree: tree,
	}, nil
}

func authoritySalt(authority *Authority) (string, error) {
	if authority == nil {
		return "", ErrAuthorityNotFound
	}

	salt, ok := authority.Params[passwordSaltKey].(string)
	if !ok || salt == "" {
		return "", missingConfigField(passwordSaltKey)
	}

	return salt, nil
}
