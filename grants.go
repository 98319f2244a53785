package authority

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// GrantStore is the read surface the resolver needs: the principal row
// plus every edge and catalog table of a realm. All reads are scoped to
// one tenant, so the resolver never sees another realm's rows.
type GrantStore interface {
	UserByID(ctx context.Context, userID uuid.UUID) (*User, error)
	UserPermissions(ctx context.Context, realmID, userID uuid.UUID) ([]*UserPermission, error)
	UserRoles(ctx context.Context, realmID, userID uuid.UUID) ([]*UserRole, error)
	RealmPermissions(ctx context.Context, realmID uuid.UUID) ([]*Permission, error)
	RealmRoles(ctx context.Context, realmID uuid.UUID) ([]*Role, error)
	RolePermissions(ctx context.Context, realmID uuid.UUID) ([]*RolePermission, error)
	RoleRoles(ctx context.Context, realmID uuid.UUID) ([]*RoleRole, error)
}

// Grants manages the four grant edge kinds and implements the read side
// consumed by the resolver.
type Grants interface {
	GrantStore

	GrantPermissionToUser(ctx context.Context, realmID, userID, permissionID uuid.UUID) (*UserPermission, error)
	GrantRoleToUser(ctx context.Context, realmID, userID, roleID uuid.UUID) (*UserRole, error)
	GrantPermissionToRole(ctx context.Context, realmID, roleID, permissionID uuid.UUID) (*RolePermission, error)
	GrantRoleToRole(ctx context.Context, realmID, parentID, childID uuid.UUID) (*RoleRole, error)
}

type grants struct {
	db *bun.DB
}

var (
	_ Grants     = (*grants)(nil)
	_ GrantStore = (*grants)(nil)
)

func NewGrantsRepository(db *bun.DB) Grants {
	return &grants{db: db}
}

func (g *grants) GrantPermissionToUser(ctx context.Context, realmID, userID, permissionID uuid.UUID) (*UserPermission, error) {
	edge := &UserPermission{
		ID:           uuid.New(),
		RealmID:      realmID,
		UserID:       userID,
		PermissionID: permissionID,
	}

	if _, err := g.db.NewInsert().Model(edge).Exec(ctx); err != nil {
		return nil, err
	}

	return edge, nil
}

func (g *grants) GrantRoleToUser(ctx context.Context, realmID, userID, roleID uuid.UUID) (*UserRole, error) {
	edge := &UserRole{
		ID:      uuid.New(),
		RealmID: realmID,
		UserID:  userID,
		RoleID:  roleID,
	}

	if _, err := g.db.NewInsert().Model(edge).Exec(ctx); err != nil {
		return nil, err
	}

	return edge, nil
}

func (g *grants) GrantPermissionToRole(ctx context.Context, realmID, roleID, permissionID uuid.UUID) (*RolePermission, error) {
	edge := &RolePermission{
		ID:           uuid.New(),
		RealmID:      realmID,
		RoleID:       roleID,
		PermissionID: permissionID,
	}

	if _, err := g.db.NewInsert().Model(edge).Exec(ctx); err != nil {
		return nil, err
	}

	return edge, nil
}

func (g *grants) GrantRoleToRole(ctx context.Context, realmID, parentID, childID uuid.UUID) (*RoleRole, error) {
	edge := &RoleRole{
		ID:       uuid.New(),
		RealmID:  realmID,
		ParentID: parentID,
		ChildID:  childID,
	}

	if _, err := g.db.NewInsert().Model(edge).Exec(ctx); err != nil {
		return nil, err
	}

	return edge, nil
}

func (g *grants) UserByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	record := &User{}

	err := g.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return record, nil
}

func (g *grants) UserPermissions(ctx context.Context, realmID, userID uuid.UUID) ([]*UserPermission, error) {
	var edges []*UserPermission

	err := g.db.NewSelect().
		Model(&edges).
		Where("?TableAlias.realm_id = ?", realmID).
		Where("?TableAlias.user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return edges, nil
}

func (g *grants) UserRoles(ctx context.Context, realmID, userID uuid.UUID) ([]*UserRole, error) {
	var edges []*UserRole

	err := g.db.NewSelect().
		Model(&edges).
		Where("?TableAlias.realm_id = ?", realmID).
		Where("?TableAlias.user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return edges, nil
}

func (g *grants) RealmPermissions(ctx context.Context, realmID uuid.UUID) ([]*Permission, error) {
	var records []*Permission

	err := g.db.NewSelect().
		Model(&records).
		Where("?TableAlias.realm_id = ?", realmID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (g *grants) RealmRoles(ctx context.Context, realmID uuid.UUID) ([]*Role, error) {
	var records []*Role

	err := g.db.NewSelect().
		Model(&records).
		Where("?TableAlias.realm_id = ?", realmID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (g *grants) RolePermissions(ctx context.Context, realmID uuid.UUID) ([]*RolePermission, error) {
	var edges []*RolePermission

	err := g.db.NewSelect().
		Model(&edges).
		Where("?TableAlias.realm_id = ?", realmID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return edges, nil
}

func (g *grants) RoleRoles(ctx context.Context, realmID uuid.UUID) ([]*RoleRole, error) {
	var edges []*RoleRole

	err := g.db.NewSelect().
		Model(&edges).
		Where("?TableAlias.realm_id = ?", realmID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return edges, nil
}
