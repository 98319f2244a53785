package authority

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Realms() Realms
	Users() Users
	Authorities() Authorities
	UserAuthorities() UserAuthorities
	Roles() Roles
	Permissions() Permissions
	Grants() Grants
}

type mngr struct {
	db              *bun.DB
	realms          Realms
	users           Users
	authorities     Authorities
	userAuthorities UserAuthorities
	roles           Roles
	permissions     Permissions
	grants          Grants
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:              db,
		realms:          NewRealmsRepository(db),
		users:           NewUsersRepository(db),
		authorities:     NewAuthoritiesRepository(db),
		userAuthorities: NewUserAuthoritiesRepository(db),
		roles:           NewRolesRepository(db),
		permissions:     NewPermissionsRepository(db),
		grants:          NewGrantsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.realms == nil {
		return errors.New("repository realms should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.authorities == nil {
		return errors.New("repository authorities should be initialized")
	}

	if m.userAuthorities == nil {
		return errors.New("repository userAuthorities should be initialized")
	}

	if m.roles == nil {
		return errors.New("repository roles should be initialized")
	}

	if m.permissions == nil {
		return errors.New("repository permissions should be initialized")
	}

	if m.grants == nil {
		return errors.New("repository grants should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Realms() Realms {
	return m.realms
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Authorities() Authorities {
	return m.authorities
}

func (m mngr) UserAuthorities() UserAuthorities {
	return m.userAuthorities
}

func (m mngr) Roles() Roles {
	return m.roles
}

func (m mngr) Permissions() Permissions {
	return m.permissions
}

func (m mngr) Grants() Grants {
	return m.grants
}
