package authority_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/goliatone/go-authority"
)

// MockGrantStore implements authority.GrantStore
type MockGrantStore struct {
	mock.Mock
}

func (m *MockGrantStore) UserByID(ctx context.Context, userID uuid.UUID) (*authority.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*authority.User)
	return user, args.Error(1)
}

func (m *MockGrantStore) UserPermissions(ctx context.Context, realmID, userID uuid.UUID) ([]*authority.UserPermission, error) {
	args := m.Called(ctx, realmID, userID)
	edges, _ := args.Get(0).([]*authority.UserPermission)
	return edges, args.Error(1)
}

func (m *MockGrantStore) UserRoles(ctx context.Context, realmID, userID uuid.UUID) ([]*authority.UserRole, error) {
	args := m.Called(ctx, realmID, userID)
	edges, _ := args.Get(0).([]*authority.UserRole)
	return edges, args.Error(1)
}

func (m *MockGrantStore) RealmPermissions(ctx context.Context, realmID uuid.UUID) ([]*authority.Permission, error) {
	args := m.Called(ctx, realmID)
	records, _ := args.Get(0).([]*authority.Permission)
	return records, args.Error(1)
}

func (m *MockGrantStore) RealmRoles(ctx context.Context, realmID uuid.UUID) ([]*authority.Role, error) {
	args := m.Called(ctx, realmID)
	records, _ := args.Get(0).([]*authority.Role)
	return records, args.Error(1)
}

func (m *MockGrantStore) RolePermissions(ctx context.Context, realmID uuid.UUID) ([]*authority.RolePermission, error) {
	args := m.Called(ctx, realmID)
	edges, _ := args.Get(0).([]*authority.RolePermission)
	return edges, args.Error(1)
}

func (m *MockGrantStore) RoleRoles(ctx context.Context, realmID uuid.UUID) ([]*authority.RoleRole, error) {
	args := m.Called(ctx, realmID)
	edges, _ := args.Get(0).([]*authority.RoleRole)
	return edges, args.Error(1)
}

// MockKeySource implements authority.KeySource
type MockKeySource struct {
	mock.Mock
}

func (m *MockKeySource) PublicKeysByClientKey(ctx context.Context, clientKey uuid.UUID) ([]authority.PublicKey, error) {
	args := m.Called(ctx, clientKey)
	keys, _ := args.Get(0).([]authority.PublicKey)
	return keys, args.Error(1)
}
