package authority

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Authenticator is the front door: it turns credentials into signed realm
// tokens and registration requests into principals. Which credential
// scheme runs is decided per request by the authority behind the client
// key, not by the caller.
type Authenticator struct {
	repo     RepositoryManager
	registry *StrategyRegistry
	tokens   *TokenService
	ttl      time.Duration
	logger   Logger
}

type AuthenticatorOption func(*Authenticator) *Authenticator

func WithLogger(logger Logger) AuthenticatorOption {
	return func(a *Authenticator) *Authenticator {
		if logger != nil {
			a.logger = logger
		}
		return a
	}
}

func WithTokenTTL(ttl time.Duration) AuthenticatorOption {
	return func(a *Authenticator) *Authenticator {
		if ttl > 0 {
			a.ttl = ttl
		}
		return a
	}
}

// WithConfig reads the token lifetime from an application config. The
// expiration is expressed in minutes; zero keeps the default.
func WithConfig(cfg Config) AuthenticatorOption {
	return func(a *Authenticator) *Authenticator {
		if cfg == nil {
			return a
		}
		if minutes := cfg.GetTokenExpiration(); minutes > 0 {
			a.ttl = time.Duration(minutes) * time.Minute
		}
		return a
	}
}

func WithStrategy(kind StrategyType, strategy Strategy) AuthenticatorOption {
	return func(a *Authenticator) *Authenticator {
		a.registry.Register(kind, strategy)
		return a
	}
}

// NewAuthenticator wires the default strategy set: username/password
// backed by the repository manager's stores. Additional strategies attach
// through WithStrategy.
func NewAuthenticator(repo RepositoryManager, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		repo:     repo,
		registry: NewStrategyRegistry(),
		ttl:      DefaultTokenTTL,
		logger:   defLogger{},
	}

	for _, opt := range opts {
		a = opt(a)
	}

	a.tokens = NewTokenService(a.logger)

	if _, err := a.registry.Get(StrategyUsernamePassword); err != nil {
		resolver := NewGrantResolver(repo.Grants(), a.logger)
		a.registry.Register(
			StrategyUsernamePassword,
			NewUserPasswordStrategy(repo, resolver, a.logger),
		)
	}

	return a
}

// Register creates a principal through the strategy of the authority the
// client key selects.
func (a *Authenticator) Register(ctx context.Context, params RegisterParams) (*User, error) {
	return RegisterUser(ctx, a.repo, a.registry, params)
}

// Login authenticates a credential pair and issues a signed token carrying
// the principal's flattened grants. The token is signed with the realm's
// newest key pair, so a rotation takes effect on the next login.
func (a *Authenticator) Login(ctx context.Context, clientKey uuid.UUID, username, password string) (string, error) {
	result, err := a.Authenticate(ctx, AuthParams{
		ClientKey: clientKey,
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return "", err
	}

	authority, err := a.repo.Authorities().GetByClientKey(ctx, clientKey)
	if err != nil {
		return "", err
	}

	pairs, err := a.repo.Realms().KeyPairsByRealmID(ctx, authority.RealmID)
	if err != nil {
		return "", err
	}

	pair := NewestKeyPair(pairs)
	if pair == nil {
		return "", goerrors.New("realm has no signing key pair", goerrors.CategoryInternal)
	}

	claims := NewClaims(result.User.Email, result.Permissions(), a.ttl)

	return a.tokens.Sign(claims, pair)
}

// Authenticate runs the credential check without issuing a token. Useful
// when the caller wants the grant tree rather than a wire credential.
func (a *Authenticator) Authenticate(ctx context.Context, params AuthParams) (*AuthResult, error) {
	authority, err := a.repo.Authorities().GetByClientKey(ctx, params.ClientKey)
	if err != nil {
		return nil, err
	}

	strategy, err := a.registry.Get(authority.Strategy)
	if err != nil {
		return nil, err
	}

	return strategy.Authenticate(ctx, params)
}

// TokenService exposes the signer for callers that mint tokens outside
// the login path, e.g. service principals in tests or jobs.
func (a *Authenticator) TokenService() *TokenService {
	return a.tokens
}
