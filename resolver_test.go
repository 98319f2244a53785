package authority_test

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-authority"
)

type grantFixture struct {
	realmID uuid.UUID
	user    *authority.User

	pDirect *authority.Permission
	pRole   *authority.Permission
	pNested *authority.Permission

	roleQ *authority.Role
	roleR *authority.Role

	directEdge   *authority.UserPermission
	userRoleEdge *authority.UserRole
	rolePermQ    *authority.RolePermission
	rolePermR    *authority.RolePermission
	nestedEdge   *authority.RoleRole
}

func newGrantFixture() *grantFixture {
	realmID := uuid.New()
	userID := uuid.New()

	f := &grantFixture{
		realmID: realmID,
		user:    &authority.User{ID: userID, Username: "ada"},
		pDirect: &authority.Permission{ID: uuid.New(), RealmID: realmID, Realm: "app", Resource: "direct", Action: "read"},
		pRole:   &authority.Permission{ID: uuid.New(), RealmID: realmID, Realm: "app", Resource: "role", Action: "read"},
		pNested: &authority.Permission{ID: uuid.New(), RealmID: realmID, Realm: "app", Resource: "nested", Action: "read"},
		roleQ:   &authority.Role{ID: uuid.New(), RealmID: realmID, Name: "editor"},
		roleR:   &authority.Role{ID: uuid.New(), RealmID: realmID, Name: "viewer"},
	}

	f.directEdge = &authority.UserPermission{ID: uuid.New(), RealmID: realmID, UserID: userID, PermissionID: f.pDirect.ID}
	f.userRoleEdge = &authority.UserRole{ID: uuid.New(), RealmID: realmID, UserID: userID, RoleID: f.roleQ.ID}
	f.rolePermQ = &authority.RolePermission{ID: uuid.New(), RealmID: realmID, RoleID: f.roleQ.ID, PermissionID: f.pRole.ID}
	f.rolePermR = &authority.RolePermission{ID: uuid.New(), RealmID: realmID, RoleID: f.roleR.ID, PermissionID: f.pNested.ID}
	f.nestedEdge = &authority.RoleRole{ID: uuid.New(), RealmID: realmID, ParentID: f.roleQ.ID, ChildID: f.roleR.ID}

	return f
}

func (f *grantFixture) store(nested []*authority.RoleRole) *MockGrantStore {
	store := new(MockGrantStore)
	store.On("UserByID", mock.Anything, f.user.ID).Return(f.user, nil)
	store.On("UserPermissions", mock.Anything, f.realmID, f.user.ID).
		Return([]*authority.UserPermission{f.directEdge}, nil)
	store.On("UserRoles", mock.Anything, f.realmID, f.user.ID).
		Return([]*authority.UserRole{f.userRoleEdge}, nil)
	store.On("RealmPermissions", mock.Anything, f.realmID).
		Return([]*authority.Permission{f.pDirect, f.pRole, f.pNested}, nil)
	store.On("RealmRoles", mock.Anything, f.realmID).
		Return([]*authority.Role{f.roleQ, f.roleR}, nil)
	store.On("RolePermissions", mock.Anything, f.realmID).
		Return([]*authority.RolePermission{f.rolePermQ, f.rolePermR}, nil)
	store.On("RoleRoles", mock.Anything, f.realmID).Return(nested, nil)
	return store
}

func TestGrantResolverByUserID(t *testing.T) {
	f := newGrantFixture()
	store := f.store([]*authority.RoleRole{f.nestedEdge})

	resolver := authority.NewGrantResolver(store, nil)

	tree, err := resolver.ByUserID(context.Background(), f.realmID, f.user.ID)
	require.NoError(t, err)
	require.NotNil(t, tree)

	assert.Equal(t, f.realmID, tree.RealmID)
	assert.Equal(t, f.user, tree.User.User)

	require.Len(t, tree.User.Permissions, 1)
	assert.Equal(t, f.directEdge.ID, tree.User.Permissions[0].GrantID)
	assert.Equal(t, "app:direct:read", tree.User.Permissions[0].Permission.String())

	require.Len(t, tree.User.Roles, 1)
	roleNode := tree.User.Roles[0]
	assert.Equal(t, f.userRoleEdge.ID, roleNode.GrantID)
	assert.Equal(t, "editor", roleNode.Role.Name)
	require.Len(t, roleNode.Permissions, 1)
	assert.Equal(t, f.rolePermQ.ID, roleNode.Permissions[0].GrantID)

	// role reached through the editor role keeps its producing edge
	require.Len(t, roleNode.Roles, 1)
	nested := roleNode.Roles[0]
	assert.Equal(t, f.nestedEdge.ID, nested.GrantID)
	assert.Equal(t, "viewer", nested.Role.Name)
	require.Len(t, nested.Permissions, 1)
	assert.Equal(t, "app:nested:read", nested.Permissions[0].Permission.String())

	assert.Equal(t, []string{
		"app:direct:read",
		"app:role:read",
		"app:nested:read",
	}, tree.Permissions())

	store.AssertExpectations(t)
}

func TestGrantResolverRoleCycleTerminates(t *testing.T) {
	f := newGrantFixture()
	cycleBack := &authority.RoleRole{
		ID:       uuid.New(),
		RealmID:  f.realmID,
		ParentID: f.roleR.ID,
		ChildID:  f.roleQ.ID,
	}
	store := f.store([]*authority.RoleRole{f.nestedEdge, cycleBack})

	resolver := authority.NewGrantResolver(store, nil)

	tree, err := resolver.ByUserID(context.Background(), f.realmID, f.user.ID)
	require.NoError(t, err)

	// the cycle edge is dropped, everything reachable stays
	flat := tree.Permissions()
	assert.ElementsMatch(t, []string{
		"app:direct:read",
		"app:role:read",
		"app:nested:read",
	}, flat)

	require.Len(t, tree.User.Roles, 1)
	require.Len(t, tree.User.Roles[0].Roles, 1)
	assert.Empty(t, tree.User.Roles[0].Roles[0].Roles)
}

func TestGrantResolverReadFailureAborts(t *testing.T) {
	f := newGrantFixture()
	boom := errors.New("connection reset")

	store := new(MockGrantStore)
	store.On("UserByID", mock.Anything, f.user.ID).Return(f.user, nil).Maybe()
	store.On("UserPermissions", mock.Anything, f.realmID, f.user.ID).
		Return([]*authority.UserPermission{}, nil).Maybe()
	store.On("UserRoles", mock.Anything, f.realmID, f.user.ID).
		Return([]*authority.UserRole{}, nil).Maybe()
	store.On("RealmPermissions", mock.Anything, f.realmID).
		Return([]*authority.Permission{}, nil).Maybe()
	store.On("RealmRoles", mock.Anything, f.realmID).
		Return(nil, boom)
	store.On("RolePermissions", mock.Anything, f.realmID).
		Return([]*authority.RolePermission{}, nil).Maybe()
	store.On("RoleRoles", mock.Anything, f.realmID).
		Return([]*authority.RoleRole{}, nil).Maybe()

	resolver := authority.NewGrantResolver(store, nil)

	tree, err := resolver.ByUserID(context.Background(), f.realmID, f.user.ID)
	require.Error(t, err)
	assert.Nil(t, tree)
	assert.ErrorIs(t, err, boom)
}

func TestGrantResolverDanglingEdgesSkipped(t *testing.T) {
	f := newGrantFixture()
	// point the direct edge at a permission the catalog no longer has
	f.directEdge.PermissionID = uuid.New()
	// and the user-role edge at a deleted role
	f.userRoleEdge.RoleID = uuid.New()

	store := f.store(nil)
	resolver := authority.NewGrantResolver(store, nil)

	tree, err := resolver.ByUserID(context.Background(), f.realmID, f.user.ID)
	require.NoError(t, err)

	assert.Empty(t, tree.User.Permissions)
	assert.Empty(t, tree.User.Roles)
	assert.Empty(t, tree.Permissions())
}

func TestGrantResolverByRoleIDUnsupported(t *testing.T) {
	resolver := authority.NewGrantResolver(new(MockGrantStore), nil)

	tree, err := resolver.ByRoleID(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Nil(t, tree)
	assert.True(t, goerrors.Is(err, authority.ErrRoleResolutionUnsupported))
}
