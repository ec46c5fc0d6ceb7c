package apiclient_test

import (
	"context"
	"net/http"
	"testing"

	apiclient "github.com/goliatone/go-apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_LoginEmbeddedIdentitySkipsProfileFetch(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("/api/auth/login/", loginHandler("token-abc", "refresh-xyz"))

	env, err := h.runtime.Session.Login(context.Background(), apiclient.LoginPayload{
		Username: "ops",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "signed in", env.Message)

	assert.True(t, h.runtime.Session.IsLoggedIn())
	assert.Equal(t, "token-abc", h.runtime.Session.Token())
	assert.Equal(t, "ops", h.runtime.Session.Username())
	assert.Equal(t, "Ops User", h.runtime.Session.DisplayName())

	// embedded identity was adequate: no separate profile round-trip
	assert.Zero(t, h.backend.hitCount("/api/auth/userinfo/"))

	refresh, err := h.runtime.Credentials.RefreshToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refresh-xyz", refresh)
}

func TestSessionStore_LoginWithoutEmbeddedIdentityFetchesProfile(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, "signed in", map[string]any{
			"token":   "token-alt",
			"refresh": "refresh-alt",
		})
	})
	h.backend.handle("/api/auth/userinfo/", profileHandler())

	_, err := h.runtime.Session.Login(context.Background(), apiclient.LoginPayload{
		Username: "ops",
		Password: "secret",
	})
	require.NoError(t, err)

	// alternate field naming was detected
	assert.Equal(t, "token-alt", h.runtime.Session.Token())
	assert.Equal(t, 1, h.backend.hitCount("/api/auth/userinfo/"))
	assert.Equal(t, "Ops User", h.runtime.Session.DisplayName())
	assert.True(t, h.runtime.Session.HasPermission("inventory:view"))
	assert.True(t, h.runtime.Session.HasRole("operator"))

	department := h.runtime.Session.Department()
	require.NotNil(t, department)
	assert.Equal(t, "Warehouse", department.Name)
}

func TestSessionStore_LoginFailurePropagates(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 400, "bad credentials", nil)
	})

	_, err := h.runtime.Session.Login(context.Background(), apiclient.LoginPayload{
		Username: "ops",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad credentials")
	assert.False(t, h.runtime.Session.IsLoggedIn())
}

func TestSessionStore_LoginValidatesPayload(t *testing.T) {
	h := newHarness(t)

	_, err := h.runtime.Session.Login(context.Background(), apiclient.LoginPayload{})
	require.Error(t, err)
	assert.True(t, apiclient.IsConfigError(err))
	assert.Zero(t, h.backend.hitCount("/api/auth/login/"))
}

func TestSessionStore_LoginResponseWithoutToken(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, "ok", map[string]any{"user": map[string]any{"id": 7}})
	})

	_, err := h.runtime.Session.Login(context.Background(), apiclient.LoginPayload{
		Username: "ops",
		Password: "secret",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no access token")
}

func TestSessionStore_LogoutClearsStateEvenWhenRevokeFails(t *testing.T) {
	h := newHarness(t)
	mustLogin(t, h)

	h.backend.handle("/api/auth/logout/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	require.NoError(t, h.runtime.Session.Logout(context.Background()))

	assert.False(t, h.runtime.Session.IsLoggedIn())
	assert.Nil(t, h.runtime.Session.Identity())

	token, err := h.runtime.Credentials.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)

	identity, err := h.runtime.Credentials.Identity(context.Background())
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestSessionStore_LogoutTwiceIsIdempotent(t *testing.T) {
	h := newHarness(t)
	mustLogin(t, h)

	require.NoError(t, h.runtime.Session.Logout(context.Background()))
	require.NoError(t, h.runtime.Session.Logout(context.Background()))

	assert.False(t, h.runtime.Session.IsLoggedIn())
	assert.Nil(t, h.runtime.Session.Identity())
	assert.Empty(t, h.runtime.Session.Permissions())
	assert.Empty(t, h.runtime.Session.Roles())
}

func TestSessionStore_ResetTokenIsLocalOnly(t *testing.T) {
	h := newHarness(t)
	mustLogin(t, h)

	logoutHits := h.backend.hitCount("/api/auth/logout/")
	h.runtime.Session.ResetToken()

	assert.False(t, h.runtime.Session.IsLoggedIn())
	assert.Equal(t, logoutHits, h.backend.hitCount("/api/auth/logout/"))
}

func TestSessionStore_RefreshAccessToken(t *testing.T) {
	h := newHarness(t)
	mustLogin(t, h)

	h.backend.handle("/api/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, "ok", map[string]any{"access": "token-new"})
	})

	require.NoError(t, h.runtime.Session.RefreshAccessToken(context.Background()))

	assert.Equal(t, "token-new", h.runtime.Session.Token())
	token, err := h.runtime.Credentials.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-new", token)

	// refresh credential is kept when the backend does not rotate it
	refresh, err := h.runtime.Credentials.RefreshToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refresh-xyz", refresh)
}

func TestSessionStore_RefreshWithoutCredential(t *testing.T) {
	h := newHarness(t)

	err := h.runtime.Session.RefreshAccessToken(context.Background())
	require.Error(t, err)
	assert.True(t, apiclient.IsAuthExpiredError(err))
}

func TestSessionStore_RestoreSurvivesRestart(t *testing.T) {
	creds := apiclient.NewMemoryCredentials()
	ctx := context.Background()

	b := newBackend()
	defer b.close()
	b.handle("/api/auth/login/", loginHandler("token-abc", "refresh-xyz"))

	first, err := apiclient.NewRuntime(ctx, newTestConfig(b.server.URL),
		apiclient.WithCredentials(creds),
		apiclient.WithLogger(quietLogger{}),
		apiclient.WithNotifier(newRecordingNotifier()),
	)
	require.NoError(t, err)

	_, err = first.Session.Login(ctx, apiclient.LoginPayload{Username: "ops", Password: "secret"})
	require.NoError(t, err)

	// a second runtime over the same store sees the session without any
	// network round-trip
	second, err := apiclient.NewRuntime(ctx, newTestConfig(b.server.URL),
		apiclient.WithCredentials(creds),
		apiclient.WithLogger(quietLogger{}),
		apiclient.WithNotifier(newRecordingNotifier()),
	)
	require.NoError(t, err)

	assert.True(t, second.Session.IsLoggedIn())
	assert.Equal(t, "token-abc", second.Session.Token())
	assert.Equal(t, "ops", second.Session.Username())
}
