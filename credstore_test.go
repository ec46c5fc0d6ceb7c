package apiclient_test

import (
	"context"
	"path/filepath"
	"testing"

	apiclient "github.com/goliatone/go-apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseCredentialStore runs the CredentialStore contract both
// implementations must satisfy.
func exerciseCredentialStore(t *testing.T, store apiclient.CredentialStore) {
	t.Helper()
	ctx := context.Background()

	// empty store answers zero values, not errors
	token, err := store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	identity, err := store.Identity(ctx)
	require.NoError(t, err)
	assert.Nil(t, identity)

	department, err := store.Department(ctx)
	require.NoError(t, err)
	assert.Nil(t, department)

	require.NoError(t, store.SetTokens(ctx, "access-1", "refresh-1"))
	require.NoError(t, store.SetIdentity(ctx, &apiclient.Identity{ID: 7, Username: "ops", DisplayName: "Ops User"}))
	require.NoError(t, store.SetPermissions(ctx, []string{"inventory:view", "inventory:edit"}))
	require.NoError(t, store.SetRoles(ctx, []string{"operator"}))
	require.NoError(t, store.SetMenus(ctx, []apiclient.MenuNode{{Key: "inv", Label: "Inventory", Path: "/inventory"}}))
	require.NoError(t, store.SetDepartment(ctx, &apiclient.Department{ID: 3, Name: "Warehouse"}))

	token, err = store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)

	refresh, err := store.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", refresh)

	identity, err = store.Identity(ctx)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "ops", identity.Username)
	assert.Equal(t, "Ops User", identity.DisplayName)

	permissions, err := store.Permissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"inventory:view", "inventory:edit"}, permissions)

	roles, err := store.Roles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"operator"}, roles)

	menus, err := store.Menus(ctx)
	require.NoError(t, err)
	require.Len(t, menus, 1)
	assert.Equal(t, "Inventory", menus[0].Label)

	department, err = store.Department(ctx)
	require.NoError(t, err)
	require.NotNil(t, department)
	assert.Equal(t, "Warehouse", department.Name)

	// rotating only the access token keeps the stored refresh token
	require.NoError(t, store.SetAccessToken(ctx, "access-2"))
	token, err = store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-2", token)

	refresh, err = store.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", refresh)

	// SetTokens with an empty refresh leaves the stored one in place
	require.NoError(t, store.SetTokens(ctx, "access-3", ""))
	refresh, err = store.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", refresh)

	// ClearAll removes every field together
	require.NoError(t, store.ClearAll(ctx))

	token, err = store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	refresh, err = store.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, refresh)

	identity, err = store.Identity(ctx)
	require.NoError(t, err)
	assert.Nil(t, identity)

	permissions, err = store.Permissions(ctx)
	require.NoError(t, err)
	assert.Empty(t, permissions)

	roles, err = store.Roles(ctx)
	require.NoError(t, err)
	assert.Empty(t, roles)

	menus, err = store.Menus(ctx)
	require.NoError(t, err)
	assert.Empty(t, menus)

	department, err = store.Department(ctx)
	require.NoError(t, err)
	assert.Nil(t, department)
}

func TestMemoryCredentials(t *testing.T) {
	exerciseCredentialStore(t, apiclient.NewMemoryCredentials())
}

func TestBunCredentials(t *testing.T) {
	store, err := apiclient.OpenSQLiteCredentials(context.Background(), filepath.Join(t.TempDir(), "creds.db"))
	require.NoError(t, err)
	defer store.DB().Close()

	exerciseCredentialStore(t, store)
}

func TestBunCredentials_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "creds.db")

	first, err := apiclient.OpenSQLiteCredentials(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.SetTokens(ctx, "access-1", "refresh-1"))
	require.NoError(t, first.SetIdentity(ctx, &apiclient.Identity{ID: 7, Username: "ops"}))
	require.NoError(t, first.DB().Close())

	second, err := apiclient.OpenSQLiteCredentials(ctx, path)
	require.NoError(t, err)
	defer second.DB().Close()

	token, err := second.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)

	identity, err := second.Identity(ctx)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "ops", identity.Username)
}
