package sessions_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-shop-admin/apiclient"
	apperrors "github.com/jrsteele09/go-shop-admin/internal/errors"
	"github.com/jrsteele09/go-shop-admin/internal/fakeapi"
	"github.com/jrsteele09/go-shop-admin/sessions"
	"github.com/jrsteele09/go-shop-admin/token"
	tokenfakerepo "github.com/jrsteele09/go-shop-admin/token/repofake"
	"github.com/jrsteele09/go-shop-admin/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "Secret#1"
)

type mockNavigator struct {
	mock.Mock
}

func (m *mockNavigator) Navigate(path string) {
	m.Called(path)
}

type testFixture struct {
	api     *fakeapi.Server
	store   *tokenfakerepo.FakeTokenStore
	client  *apiclient.Client
	nav     *mockNavigator
	manager *sessions.Manager
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		api:   fakeapi.New(),
		store: tokenfakerepo.NewFakeTokenStore(),
		nav:   &mockNavigator{},
	}
	t.Cleanup(f.api.Close)

	f.api.AddAccount(testEmail, testPassword, fakeapi.Profile{
		ID:        "u-1",
		Email:     testEmail,
		FirstName: "Ann",
		Roles:     []string{"admin"},
		IsActive:  true,
	})
	f.client = apiclient.New(f.api.BaseURL(), f.store, apiclient.WithLogger(zerolog.Nop()))
	f.manager = sessions.New(f.store, f.client, f.nav, sessions.WithLogger(zerolog.Nop()))
	return f
}

func (f *testFixture) issue(t *testing.T) token.Pair {
	t.Helper()
	access, refresh := f.api.Issue(testEmail)
	pair := token.Pair{AccessToken: access, RefreshToken: refresh}
	require.NoError(t, f.store.Set(context.Background(), pair))
	return pair
}

func signedToken(t *testing.T, claims token.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return signed
}

func TestManager_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("stores pair and sets placeholder user", func(t *testing.T) {
		f := setupTestFixture(t)
		f.nav.On("Navigate", sessions.PathHome).Return().Once()

		access := signedToken(t, token.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
			Email:            testEmail,
			Role:             "admin",
		})
		require.NoError(t, f.manager.Login(ctx, token.Pair{AccessToken: access, RefreshToken: "r"}))

		stored, err := f.store.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, token.Pair{AccessToken: access, RefreshToken: "r"}, stored)

		user := f.manager.User()
		require.NotNil(t, user)
		assert.Equal(t, "u-1", user.ID)
		assert.Equal(t, testEmail, user.Email)
		assert.True(t, user.IsAdmin())
		f.nav.AssertExpectations(t)
	})

	t.Run("opaque tokens give an empty placeholder", func(t *testing.T) {
		f := setupTestFixture(t)
		f.nav.On("Navigate", sessions.PathHome).Return().Once()

		require.NoError(t, f.manager.Login(ctx, token.Pair{AccessToken: "opaque", RefreshToken: "r"}))
		require.NotNil(t, f.manager.User())
		require.Empty(t, f.manager.User().Email)
	})

	t.Run("rejects a pair without access token", func(t *testing.T) {
		f := setupTestFixture(t)

		err := f.manager.Login(ctx, token.Pair{RefreshToken: "r"})
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
		require.Nil(t, f.manager.User())
		f.nav.AssertNotCalled(t, "Navigate", mock.Anything)
	})
}

func TestManager_LoginWithCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		f := setupTestFixture(t)
		f.nav.On("Navigate", sessions.PathHome).Return().Once()

		require.NoError(t, f.manager.LoginWithCredentials(ctx, testEmail, testPassword))

		stored, err := f.store.Get(ctx)
		require.NoError(t, err)
		require.True(t, stored.HasAccess())
		require.True(t, stored.HasRefresh())
		require.NotNil(t, f.manager.User())
		f.nav.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := setupTestFixture(t)

		err := f.manager.LoginWithCredentials(ctx, testEmail, "nope")
		require.ErrorIs(t, err, apiclient.ErrUnauthorized)

		var apiErr *apiclient.Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "Invalid email or password", apiErr.Message)
		require.Zero(t, f.api.Count(http.MethodPost, apiclient.RouteAuthRefresh))

		stored, err := f.store.Get(ctx)
		require.NoError(t, err)
		require.True(t, stored.IsZero())
		f.nav.AssertNotCalled(t, "Navigate", mock.Anything)
	})
}

func TestManager_LogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.issue(t)
	f.nav.On("Navigate", sessions.PathLogin).Return().Twice()

	require.NoError(t, f.manager.Logout(ctx))
	require.NoError(t, f.manager.Logout(ctx))

	stored, err := f.store.Get(ctx)
	require.NoError(t, err)
	require.True(t, stored.IsZero())
	require.Nil(t, f.manager.User())
	f.nav.AssertExpectations(t)
}

func TestManager_FetchCurrentUser(t *testing.T) {
	ctx := context.Background()

	t.Run("no token means anonymous without a network call", func(t *testing.T) {
		f := setupTestFixture(t)
		require.True(t, f.manager.IsLoading())

		require.NoError(t, f.manager.FetchCurrentUser(ctx))
		require.False(t, f.manager.IsLoading())
		require.Nil(t, f.manager.User())
		require.Empty(t, f.api.Requests())
		f.nav.AssertNotCalled(t, "Navigate", mock.Anything)
	})

	t.Run("valid token resolves the profile", func(t *testing.T) {
		f := setupTestFixture(t)
		pair := f.issue(t)

		require.NoError(t, f.manager.FetchCurrentUser(ctx))
		require.False(t, f.manager.IsLoading())

		user := f.manager.User()
		require.NotNil(t, user)
		assert.Equal(t, "u-1", user.ID)
		assert.Equal(t, "Ann", user.DisplayName())

		reqs := f.api.Requests()
		require.Len(t, reqs, 1)
		require.Equal(t, "Bearer "+pair.AccessToken, reqs[0].Authorization)
	})

	t.Run("expired access token is refreshed", func(t *testing.T) {
		f := setupTestFixture(t)
		pair := f.issue(t)
		f.api.ExpireAccess(pair.AccessToken)

		require.NoError(t, f.manager.FetchCurrentUser(ctx))
		require.NotNil(t, f.manager.User())
		require.Equal(t, 1, f.api.Count(http.MethodPost, apiclient.RouteAuthRefresh))
	})

	t.Run("any failure logs out", func(t *testing.T) {
		f := setupTestFixture(t)
		pair := f.issue(t)
		f.api.ExpireAccess(pair.AccessToken)
		f.api.RevokeRefresh(pair.RefreshToken)
		f.nav.On("Navigate", sessions.PathLogin).Return()

		err := f.manager.FetchCurrentUser(ctx)
		require.ErrorIs(t, err, apiclient.ErrRefreshFailed)
		require.False(t, f.manager.IsLoading())
		require.Nil(t, f.manager.User())

		stored, err := f.store.Get(ctx)
		require.NoError(t, err)
		require.True(t, stored.IsZero())
		f.nav.AssertCalled(t, "Navigate", sessions.PathLogin)
	})

	t.Run("logout then fetch makes no network call", func(t *testing.T) {
		f := setupTestFixture(t)
		f.issue(t)
		f.nav.On("Navigate", sessions.PathLogin).Return().Once()

		require.NoError(t, f.manager.Logout(ctx))
		require.NoError(t, f.manager.FetchCurrentUser(ctx))
		require.Empty(t, f.api.Requests())
		require.Nil(t, f.manager.User())
	})
}

func TestManager_LoadingClearsOnce(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.nav.On("Navigate", mock.Anything).Return()

	require.True(t, f.manager.IsLoading())
	require.NoError(t, f.manager.FetchCurrentUser(ctx))
	require.False(t, f.manager.IsLoading())

	f.issue(t)
	require.NoError(t, f.manager.FetchCurrentUser(ctx))
	require.False(t, f.manager.IsLoading())
	require.NoError(t, f.manager.Logout(ctx))
	require.False(t, f.manager.IsLoading())
}

func TestManager_RequireUser(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.nav.On("Navigate", sessions.PathLogin).Return().Once()
	f.nav.On("Navigate", sessions.PathHome).Return().Once()

	_, err := f.manager.RequireUser()
	require.ErrorIs(t, err, apperrors.ErrSessionLoading)
	f.nav.AssertNotCalled(t, "Navigate", mock.Anything)

	require.NoError(t, f.manager.FetchCurrentUser(ctx))
	_, err = f.manager.RequireUser()
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	require.NoError(t, f.manager.LoginWithCredentials(ctx, testEmail, testPassword))
	user, err := f.manager.RequireUser()
	require.NoError(t, err)
	require.NotNil(t, user)
	f.nav.AssertExpectations(t)
}

func TestManager_RefreshFailureDuringBusinessCallLogsOut(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.nav.On("Navigate", sessions.PathLogin).Return().Once()

	pair := f.issue(t)
	require.NoError(t, f.manager.FetchCurrentUser(ctx))
	require.NotNil(t, f.manager.User())

	f.api.ExpireAccess(pair.AccessToken)
	f.api.RevokeRefresh(pair.RefreshToken)

	err := f.client.Get(ctx, apiclient.RouteProducts, nil, nil)
	require.ErrorIs(t, err, apiclient.ErrRefreshFailed)
	require.Nil(t, f.manager.User())

	stored, err := f.store.Get(ctx)
	require.NoError(t, err)
	require.True(t, stored.IsZero())
	f.nav.AssertExpectations(t)
}

func TestManager_Snapshot(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	s, err := f.manager.Snapshot(ctx)
	require.NoError(t, err)
	require.True(t, s.IsLoading)
	require.Nil(t, s.AccessToken)
	require.Nil(t, s.RefreshToken)
	require.False(t, s.Authenticated())

	pair := f.issue(t)
	require.NoError(t, f.manager.FetchCurrentUser(ctx))

	s, err = f.manager.Snapshot(ctx)
	require.NoError(t, err)
	require.False(t, s.IsLoading)
	require.Equal(t, pair.AccessToken, *s.AccessToken)
	require.Equal(t, pair.RefreshToken, *s.RefreshToken)
	require.Equal(t, []users.RoleType{users.RoleAdmin}, s.User.Roles)
}

// blockingAPI holds /auth/me until release is closed.
type blockingAPI struct {
	entered chan struct{}
	release chan struct{}
}

func (a *blockingAPI) Get(_ context.Context, _ string, _ url.Values, out any) error {
	close(a.entered)
	<-a.release
	*out.(*users.User) = users.User{ID: "u-1", Email: testEmail}
	return nil
}

func (a *blockingAPI) Post(context.Context, string, any, any) error { return nil }

func (a *blockingAPI) SetAuthFailureHandler(func(context.Context, error)) {}

func TestManager_LogoutWinsOverInFlightFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("profile arriving after logout is dropped", func(t *testing.T) {
		store := tokenfakerepo.NewFakeTokenStoreWith(token.Pair{AccessToken: "a", RefreshToken: "r"})
		api := &blockingAPI{entered: make(chan struct{}), release: make(chan struct{})}
		nav := &mockNavigator{}
		nav.On("Navigate", sessions.PathLogin).Return().Once()
		m := sessions.New(store, api, nav, sessions.WithLogger(zerolog.Nop()))

		done := make(chan error, 1)
		go func() { done <- m.FetchCurrentUser(ctx) }()
		<-api.entered
		require.NoError(t, m.Logout(ctx))
		close(api.release)

		require.NoError(t, <-done)
		require.Nil(t, m.User())
		s, err := m.Snapshot(ctx)
		require.NoError(t, err)
		require.Nil(t, s.AccessToken)
		require.Nil(t, s.User)
		nav.AssertExpectations(t)
	})

	t.Run("refresh finishing after logout does not restore tokens", func(t *testing.T) {
		f := setupTestFixture(t)
		f.nav.On("Navigate", sessions.PathLogin).Return().Once()
		pair := f.issue(t)
		f.api.ExpireAccess(pair.AccessToken)
		f.api.SetRefreshDelay(300 * time.Millisecond)

		done := make(chan error, 1)
		go func() { done <- f.manager.FetchCurrentUser(ctx) }()
		time.Sleep(50 * time.Millisecond)
		require.NoError(t, f.manager.Logout(ctx))

		require.ErrorIs(t, <-done, apiclient.ErrRefreshFailed)
		require.Nil(t, f.manager.User())
		stored, err := f.store.Get(ctx)
		require.NoError(t, err)
		require.True(t, stored.IsZero())
		f.nav.AssertExpectations(t)
	})
}
