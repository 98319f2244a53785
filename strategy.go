package authority

import (
	"context"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// StrategyType names a credential scheme an authority can be configured
// with.
type StrategyType = string

// StrategyUsernamePassword is the salted-digest username/password scheme.
const StrategyUsernamePassword StrategyType = "username_password"

// Strategy is one credential scheme. UserValues turns a registration
// request into a principal row plus the opaque credential payload stored on
// the user-authority link; Authenticate checks presented credentials and
// resolves the principal's grants.
type Strategy interface {
	UserValues(authority *Authority, params RegisterParams) (*User, map[string]any, error)
	Authenticate(ctx context.Context, params AuthParams) (*AuthResult, error)
}

// RegisterParams is the strategy-independent registration request. The
// client key selects the authority, and through it the realm and the
// strategy.
type RegisterParams struct {
	// ID is optional; zero means the store assigns a random one.
	ID        uuid.UUID      `json:"id"`
	ClientKey uuid.UUID      `json:"client_key"`
	Username  string         `json:"username"`
	Password  string         `json:"password"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Phone     string         `json:"phone_number"`
	Profile   map[string]any `json:"profile"`
	Status    UserStatus     `json:"status"`
	Kind      UserKind       `json:"kind"`
}

// Validate will run validation rules
func (p RegisterParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(
			&p.ClientKey,
			validation.By(validateUUIDNotNil),
		),
		validation.Field(
			&p.Username,
			validation.Required,
			validation.Length(1, 200),
		),
		validation.Field(
			&p.Password,
			validation.Required,
		),
		validation.Field(
			&p.Email,
			validation.Length(6, 100),
			is.Email,
		),
	)
}

// normalized returns a copy with trimmed identifiers and the phone number
// in E.164 when it parses.
func (p RegisterParams) normalized() RegisterParams {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(p.Email)

	if p.Phone != "" {
		if num, err := phonenumbers.Parse(p.Phone, "US"); err == nil {
			p.Phone = phonenumbers.Format(num, phonenumbers.E164)
		}
	}

	return p
}

// AuthParams is the strategy-independent authentication request.
type AuthParams struct {
	ClientKey uuid.UUID `json:"client_key"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
}

// Validate will run validation rules
func (p AuthParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(
			&p.ClientKey,
			validation.By(validateUUIDNotNil),
		),
		validation.Field(
			&p.Username,
			validation.Required,
		),
		validation.Field(
			&p.Password,
			validation.Required,
		),
	)
}

// AuthResult is a verified principal with its resolved grant tree.
type AuthResult struct {
	User *User      `json:"user"`
	Tree *GrantTree `json:"tree"`
}

// Permissions flattens the resolved tree into matchable triples.
func (r *AuthResult) Permissions() []string {
	if r == nil || r.Tree == nil {
		return []string{}
	}
	return r.Tree.Permissions()
}

func validateUUIDNotNil(value any) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return goerrors.New("must be a non-zero uuid", goerrors.CategoryValidation)
	}
	return nil
}

// StrategyRegistry maps strategy types to implementations. An authority
// row names its strategy; the registry turns that name into behavior.
type StrategyRegistry struct {
	mu         sync.RWMutex
	strategies map[StrategyType]Strategy
}

func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		strategies: map[StrategyType]Strategy{},
	}
}

func (r *StrategyRegistry) Register(kind StrategyType, strategy Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[kind] = strategy
}

func (r *StrategyRegistry) Get(kind StrategyType) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	strategy, ok := r.strategies[kind]
	if !ok {
		return nil, goerrors.New("no strategy registered for "+kind, goerrors.CategoryOperation).
			WithTextCode(TextCodeUnsupported)
	}

	return strategy, nil
}

// RegisterUser is the strategy-independent registration flow: resolve the
// authority behind the client key, let its strategy derive the principal
// row and credential payload, then insert both inside one transaction.
// A failed credential insert rolls back the principal, so registration
// never leaves a user who cannot log in.
func RegisterUser(ctx context.Context, repo RepositoryManager, registry *StrategyRegistry, params RegisterParams) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration request")
	}

	params = params.normalized()

	authority, err := repo.Authorities().GetByClientKey(ctx, params.ClientKey)
	if err != nil {
		return nil, err
	}

	strategy, err := registry.Get(authority.Strategy)
	if err != nil {
		return nil, err
	}

	user, credential, err := strategy.UserValues(authority, params)
	if err != nil {
		return nil, err
	}

	err = repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := repo.Users().RegisterTx(ctx, tx, user)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		link := &UserAuthority{
			UserID:      created.ID,
			AuthorityID: authority.ID,
			RealmID:     authority.RealmID,
			Params:      credential,
		}

		if _, err := repo.UserAuthorities().CreateTx(ctx, tx, link); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not store credential")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	return user, nil
}
