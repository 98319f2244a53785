package authority

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Roles is the realm catalog of role records.
type Roles interface {
	repository.Repository[*Role]

	ListByRealmID(ctx context.Context, realmID uuid.UUID) ([]*Role, error)
	Create(ctx context.Context, record *Role, criteria ...repository.InsertCriteria) (*Role, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Role, criteria ...repository.InsertCriteria) (*Role, error)
}

type roles struct {
	repository.Repository[*Role]
	db *bun.DB
}

var _ Roles = (*roles)(nil)

func NewRolesRepository(db *bun.DB) Roles {
	repo := repository.NewRepository[*Role](db, repository.ModelHandlers[*Role]{
		NewRecord: func() *Role { return &Role{} },
		GetID: func(r *Role) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Role, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &roles{
		Repository: repo,
		db:         db,
	}
}

func (a *roles) ListByRealmID(ctx context.Context, realmID uuid.UUID) ([]*Role, error) {
	var records []*Role

	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.realm_id = ?", realmID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *roles) Create(ctx context.Context, record *Role, criteria ...repository.InsertCriteria) (*Role, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *roles) CreateTx(ctx context.Context, tx bun.IDB, record *Role, criteria ...repository.InsertCriteria) (*Role, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

// Permissions is the realm catalog of stored permission triples.
type Permissions interface {
	repository.Repository[*Permission]

	ListByRealmID(ctx context.Context, realmID uuid.UUID) ([]*Permission, error)
	Create(ctx context.Context, record *Permission, criteria ...repository.InsertCriteria) (*Permission, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Permission, criteria ...repository.InsertCriteria) (*Permission, error)
}

type permissions struct {
	repository.Repository[*Permission]
	db *bun.DB
}

var _ Permissions = (*permissions)(nil)

func NewPermissionsRepository(db *bun.DB) Permissions {
	repo := repository.NewRepository[*Permission](db, repository.ModelHandlers[*Permission]{
		NewRecord: func() *Permission { return &Permission{} },
		GetID: func(p *Permission) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Permission, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &permissions{
		Repository: repo,
		db:         db,
	}
}

func (a *permissions) ListByRealmID(ctx context.Context, realmID uuid.UUID) ([]*Permission, error) {
	var records []*Permission

	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.realm_id = ?", realmID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *permissions) Create(ctx context.Context, record *Permission, criteria ...repository.InsertCriteria) (*Permission, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *permissions) CreateTx(ctx context.Context, tx bun.IDB, record *Permission, criteria ...repository.InsertCriteria) (*Permission, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}
