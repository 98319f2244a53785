package authority

import (
	"context"
	"database/sql"
	"errors"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Authorities interface {
	repository.Repository[*Authority]

	GetByClientKey(ctx context.Context, clientKey uuid.UUID) (*Authority, error)
	GetByClientKeyTx(ctx context.Context, tx bun.IDB, clientKey uuid.UUID) (*Authority, error)
	ListByRealmID(ctx context.Context, realmID uuid.UUID) ([]*Authority, error)
	Create(ctx context.Context, record *Authority, criteria ...repository.InsertCriteria) (*Authority, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Authority, criteria ...repository.InsertCriteria) (*Authority, error)
}

type authorities struct {
	repository.Repository[*Authority]
	db *bun.DB
}

var _ Authorities = (*authorities)(nil)

func NewAuthoritiesRepository(db *bun.DB) Authorities {
	repo := repository.NewRepository[*Authority](db, repository.ModelHandlers[*Authority]{
		NewRecord: func() *Authority { return &Authority{} },
		GetID: func(a *Authority) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Authority, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	return &authorities{
		Repository: repo,
		db:         db,
	}
}

func (a *authorities) GetByClientKey(ctx context.Context, clientKey uuid.UUID) (*Authority, error) {
	return a.GetByClientKeyTx(ctx, a.db, clientKey)
}

func (a *authorities) GetByClientKeyTx(ctx context.Context, tx bun.IDB, clientKey uuid.UUID) (*Authority, error) {
	record := &Authority{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.client_key = ?", clientKey).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuthorityNotFound
		}
		return nil, err
	}

	return record, nil
}

func (a *authorities) ListByRealmID(ctx context.Context, realmID uuid.UUID) ([]*Authority, error) {
	var records []*Authority

	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.realm_id = ?", realmID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *authorities) Create(ctx context.Context, record *Authority, criteria ...repository.InsertCriteria) (*Authority, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *authorities) CreateTx(ctx context.Context, tx bun.IDB, record *Authority, criteria ...repository.InsertCriteria) (*Authority, error) {
	prepareAuthorityDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func prepareAuthorityDefaults(record *Authority) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	// the client key is the externally presented handle; callers may supply
	// their own, everyone else gets a random one
	if record.ClientKey == uuid.Nil {
		record.ClientKey = uuid.New()
	}

	if record.Status == "" {
		record.Status = "enabled"
	}
}

type UserAuthorities interface {
	repository.Repository[*UserAuthority]

	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*UserAuthority, error)
	Create(ctx context.Context, record *UserAuthority, criteria ...repository.InsertCriteria) (*UserAuthority, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *UserAuthority, criteria ...repository.InsertCriteria) (*UserAuthority, error)
}

type userAuthorities struct {
	repository.Repository[*UserAuthority]
	db *bun.DB
}

var _ UserAuthorities = (*userAuthorities)(nil)

func NewUserAuthoritiesRepository(db *bun.DB) UserAuthorities {
	repo := repository.NewRepository[*UserAuthority](db, repository.ModelHandlers[*UserAuthority]{
		NewRecord: func() *UserAuthority { return &UserAuthority{} },
		GetID: func(ua *UserAuthority) uuid.UUID {
			if ua == nil {
				return uuid.Nil
			}
			return ua.ID
		},
		SetID: func(ua *UserAuthority, id uuid.UUID) {
			if ua != nil {
				ua.ID = id
			}
		},
	})

	return &userAuthorities{
		Repository: repo,
		db:         db,
	}
}

func (a *userAuthorities) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*UserAuthority, error) {
	var records []*UserAuthority

	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *userAuthorities) Create(ctx context.Context, record *UserAuthority, criteria ...repository.InsertCriteria) (*UserAuthority, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *userAuthorities) CreateTx(ctx context.Context, tx bun.IDB, record *UserAuthority, criteria ...repository.InsertCriteria) (*UserAuthority, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}
