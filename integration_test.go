package authority_test

import (
	"context"
	"database/sql"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-authority"
)

func newTestDB(t *testing.T, models ...any) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	db := bun.NewDB(sqldb, sqlitedialect.New())

	for _, model := range models {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(context.Background())
		require.NoError(t, err)
	}

	return db
}

func allModels() []any {
	return []any{
		(*authority.Realm)(nil),
		(*authority.KeyPair)(nil),
		(*authority.User)(nil),
		(*authority.Authority)(nil),
		(*authority.UserAuthority)(nil),
		(*authority.Role)(nil),
		(*authority.Permission)(nil),
		(*authority.UserPermission)(nil),
		(*authority.UserRole)(nil),
		(*authority.RolePermission)(nil),
		(*authority.RoleRole)(nil),
	}
}

type testRealm struct {
	repo      authority.RepositoryManager
	realm     *authority.Realm
	auth      *authority.Authority
	clientKey uuid.UUID
}

func seedRealm(t *testing.T, db *bun.DB) *testRealm {
	t.Helper()
	ctx := context.Background()

	repo := authority.NewRepositoryManager(db)
	require.NoError(t, repo.Validate())

	realm, err := repo.Realms().CreateWithKeyPair(ctx, &authority.Realm{Name: "acme"}, 1024)
	require.NoError(t, err)

	auth, err := repo.Authorities().Create(ctx, &authority.Authority{
		RealmID:  realm.ID,
		Name:     "acme password login",
		Strategy: authority.StrategyUsernamePassword,
		Params:   map[string]any{"password_salt": "acme-salt"},
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, auth.ClientKey)

	return &testRealm{
		repo:      repo,
		realm:     realm,
		auth:      auth,
		clientKey: auth.ClientKey,
	}
}

func TestRegisterAndLoginEndToEnd(t *testing.T) {
	db := newTestDB(t, allModels()...)
	fixture := seedRealm(t, db)
	ctx := context.Background()

	auther := authority.NewAuthenticator(fixture.repo)

	user, err := auther.Register(ctx, authority.RegisterParams{
		ClientKey: fixture.clientKey,
		Username:  "ada",
		Password:  "correct horse battery",
		Email:     "ada@example.com",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, authority.UserStatusEnabled, user.Status)
	assert.Equal(t, authority.UserKindHuman, user.Kind)

	// grant a direct permission and a role-carried one
	grants := fixture.repo.Grants()
	perms := fixture.repo.Permissions()

	direct, err := perms.Create(ctx, &authority.Permission{
		RealmID: fixture.realm.ID, Realm: "acme", Resource: "reports", Action: "read",
	})
	require.NoError(t, err)

	viaRole, err := perms.Create(ctx, &authority.Permission{
		RealmID: fixture.realm.ID, Realm: "acme", Resource: "users", Action: "list",
	})
	require.NoError(t, err)

	role, err := fixture.repo.Roles().Create(ctx, &authority.Role{
		RealmID: fixture.realm.ID, Name: "admin",
	})
	require.NoError(t, err)

	_, err = grants.GrantPermissionToUser(ctx, fixture.realm.ID, user.ID, direct.ID)
	require.NoError(t, err)
	_, err = grants.GrantRoleToUser(ctx, fixture.realm.ID, user.ID, role.ID)
	require.NoError(t, err)
	_, err = grants.GrantPermissionToRole(ctx, fixture.realm.ID, role.ID, viaRole.ID)
	require.NoError(t, err)

	token, err := auther.Login(ctx, fixture.clientKey, "ada", "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// token grants carry exactly the resolver's flattened view
	resolver := authority.NewGrantResolver(grants, nil)
	tree, err := resolver.ByUserID(ctx, fixture.realm.ID, user.ID)
	require.NoError(t, err)

	keys, err := fixture.repo.Realms().PublicKeysByClientKey(ctx, fixture.clientKey)
	require.NoError(t, err)
	require.NotEmpty(t, keys)

	claims, err := auther.TokenService().Verify(token, keys)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.ElementsMatch(t, tree.Permissions(), claims.Grants)
	assert.Contains(t, claims.Grants, "acme:reports:read")
	assert.Contains(t, claims.Grants, "acme:users:list")

	ok, err := claims.Can("acme:reports:read")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = claims.Can("acme:reports:delete")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginFailures(t *testing.T) {
	db := newTestDB(t, allModels()...)
	fixture := seedRealm(t, db)
	ctx := context.Background()

	auther := authority.NewAuthenticator(fixture.repo)

	_, err := auther.Register(ctx, authority.RegisterParams{
		ClientKey: fixture.clientKey,
		Username:  "ada",
		Password:  "correct horse battery",
	})
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := auther.Login(ctx, fixture.clientKey, "ada", "wrong password")
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, authority.ErrAuthenticationFailed))
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := auther.Login(ctx, fixture.clientKey, "nobody", "correct horse battery")
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, authority.ErrIdentityNotFound))
	})

	t.Run("unknown client key", func(t *testing.T) {
		_, err := auther.Login(ctx, uuid.New(), "ada", "correct horse battery")
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, authority.ErrAuthorityNotFound))
	})
}

func TestKeyRotationKeepsOldTokensValid(t *testing.T) {
	db := newTestDB(t, allModels()...)
	fixture := seedRealm(t, db)
	ctx := context.Background()

	auther := authority.NewAuthenticator(fixture.repo)

	_, err := auther.Register(ctx, authority.RegisterParams{
		ClientKey: fixture.clientKey,
		Username:  "ada",
		Password:  "correct horse battery",
	})
	require.NoError(t, err)

	before, err := auther.Login(ctx, fixture.clientKey, "ada", "correct horse battery")
	require.NoError(t, err)

	_, err = fixture.repo.Realms().RotateKeyPair(ctx, fixture.realm.ID, 1024)
	require.NoError(t, err)

	after, err := auther.Login(ctx, fixture.clientKey, "ada", "correct horse battery")
	require.NoError(t, err)

	keys, err := fixture.repo.Realms().PublicKeysByClientKey(ctx, fixture.clientKey)
	require.NoError(t, err)
	require.Len(t, keys, 2)

	_, err = auther.TokenService().Verify(before, keys)
	require.NoError(t, err)

	_, err = auther.TokenService().Verify(after, keys)
	require.NoError(t, err)
}

func TestRegistrationRollsBackWithoutCredential(t *testing.T) {
	// no user_authorities table, so the credential insert must fail and
	// take the principal insert down with it
	db := newTestDB(t,
		(*authority.Realm)(nil),
		(*authority.KeyPair)(nil),
		(*authority.User)(nil),
		(*authority.Authority)(nil),
	)
	fixture := seedRealm(t, db)
	ctx := context.Background()

	auther := authority.NewAuthenticator(fixture.repo)

	_, err := auther.Register(ctx, authority.RegisterParams{
		ClientKey: fixture.clientKey,
		Username:  "ada",
		Password:  "correct horse battery",
	})
	require.Error(t, err)

	count, err := db.NewSelect().Model((*authority.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRegisterUserHandlerHashid(t *testing.T) {
	db := newTestDB(t, allModels()...)
	fixture := seedRealm(t, db)
	ctx := context.Background()

	registry := authority.NewStrategyRegistry()
	resolver := authority.NewGrantResolver(fixture.repo.Grants(), nil)
	registry.Register(
		authority.StrategyUsernamePassword,
		authority.NewUserPasswordStrategy(fixture.repo, resolver, nil),
	)

	handler := authority.NewRegisterUserHandler(fixture.repo, registry)

	err := handler.Execute(ctx, authority.RegisterUserMessage{
		ClientKey: fixture.clientKey,
		Email:     "grace@example.com",
		Password:  "correct horse battery",
		UseHashid: true,
	})
	require.NoError(t, err)

	// username derives from the email local part, id from the email hash
	user, err := fixture.repo.Users().GetByUsername(ctx, "grace")
	require.NoError(t, err)

	expectedID, err := hashid.NewUUID("grace@example.com")
	require.NoError(t, err)
	assert.Equal(t, expectedID, user.ID)
}
