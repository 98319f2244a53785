package authority

import (
	"context"
	"database/sql"
	"errors"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Realms interface {
	repository.Repository[*Realm]

	GetByID(ctx context.Context, id uuid.UUID) (*Realm, error)
	// CreateWithKeyPair inserts a realm and its first signing key pair in
	// one transaction. A realm without key material cannot issue tokens.
	CreateWithKeyPair(ctx context.Context, record *Realm, bits int) (*Realm, error)
	// RotateKeyPair appends a new signing pair. Existing pairs are
	// retained so outstanding tokens keep verifying.
	RotateKeyPair(ctx context.Context, realmID uuid.UUID, bits int) (*KeyPair, error)
	KeyPairsByRealmID(ctx context.Context, realmID uuid.UUID) ([]*KeyPair, error)
	// PublicKeysByClientKey resolves the verification key set for the
	// realm behind an authority client key, oldest pair first.
	PublicKeysByClientKey(ctx context.Context, clientKey uuid.UUID) ([]PublicKey, error)
}

type realms struct {
	repository.Repository[*Realm]
	db *bun.DB
}

var (
	_ Realms    = (*realms)(nil)
	_ KeySource = (*realms)(nil)
)

func NewRealmsRepository(db *bun.DB) Realms {
	repo := repository.NewRepository[*Realm](db, repository.ModelHandlers[*Realm]{
		NewRecord: func() *Realm { return &Realm{} },
		GetID: func(r *Realm) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Realm, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
	})

	return &realms{
		Repository: repo,
		db:         db,
	}
}

func (a *realms) GetByID(ctx context.Context, id uuid.UUID) (*Realm, error) {
	record := &Realm{}

	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRealmNotFound
		}
		return nil, err
	}

	return record, nil
}

func (a *realms) CreateWithKeyPair(ctx context.Context, record *Realm, bits int) (*Realm, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := a.Repository.CreateTx(ctx, tx, record)
		if err != nil {
			return err
		}

		pair, err := NewKeyPair(created.ID, bits)
		if err != nil {
			return err
		}

		_, err = tx.NewInsert().Model(pair).Exec(ctx)
		return err
	})

	if err != nil {
		return nil, err
	}

	return record, nil
}

func (a *realms) RotateKeyPair(ctx context.Context, realmID uuid.UUID, bits int) (*KeyPair, error) {
	if _, err := a.GetByID(ctx, realmID); err != nil {
		return nil, err
	}

	pair, err := NewKeyPair(realmID, bits)
	if err != nil {
		return nil, err
	}

	if _, err := a.db.NewInsert().Model(pair).Exec(ctx); err != nil {
		return nil, err
	}

	return pair, nil
}

func (a *realms) KeyPairsByRealmID(ctx context.Context, realmID uuid.UUID) ([]*KeyPair, error) {
	var pairs []*KeyPair

	err := a.db.NewSelect().
		Model(&pairs).
		Where("?TableAlias.realm_id = ?", realmID).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return pairs, nil
}

func (a *realms) PublicKeysByClientKey(ctx context.Context, clientKey uuid.UUID) ([]PublicKey, error) {
	var pairs []*KeyPair

	err := a.db.NewSelect().
		Model(&pairs).
		Join("JOIN realms AS rlm ON rlm.id = ?TableAlias.realm_id").
		Join("JOIN authorities AS ath ON ath.realm_id = rlm.id").
		Where("ath.client_key = ?", clientKey).
		Order("kp.created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return PublicKeys(pairs), nil
}
