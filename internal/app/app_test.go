package app_test

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-shop-admin/apiclient"
	"github.com/jrsteele09/go-shop-admin/feedback"
	"github.com/jrsteele09/go-shop-admin/internal/app"
	"github.com/jrsteele09/go-shop-admin/internal/config"
	apperrors "github.com/jrsteele09/go-shop-admin/internal/errors"
	"github.com/jrsteele09/go-shop-admin/internal/fakeapi"
	"github.com/jrsteele09/go-shop-admin/sessions"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "Secret#1"
	testKey      = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

// recorder is both the navigator and the notifier of the app under test.
type recorder struct {
	lock          sync.Mutex
	paths         []string
	notifications []feedback.Notification
}

func (r *recorder) Navigate(path string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) Notify(n feedback.Notification) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recorder) navigated() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]string(nil), r.paths...)
}

type testFixture struct {
	api *fakeapi.Server
	rec *recorder
}

func setupTestFixture(t *testing.T, env map[string]string) *testFixture {
	t.Helper()
	f := &testFixture{api: fakeapi.New(), rec: &recorder{}}
	t.Cleanup(f.api.Close)

	f.api.AddAccount(testEmail, testPassword, fakeapi.Profile{ID: "u-1", FirstName: "Ann", Roles: []string{"admin"}})
	f.api.SetProducts([]fakeapi.Product{
		{ID: "p1", Name: "Red Shoe", Price: 10, ImageURL: "p1/red.png"},
		{ID: "p2", Name: "Hat", Price: 5},
	})

	t.Setenv("BASE_URL", f.api.BaseURL())
	t.Setenv("TOKEN_STORE", "memory")
	t.Setenv("ENV", "TEST")
	for _, unset := range []string{"REFRESH_PATH", "DEFAULT_PAGE_SIZE", "MEDIA_URL", "MEDIA_BUCKET"} {
		t.Setenv(unset, "")
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
	return f
}

func (f *testFixture) newApp(t *testing.T, opts ...app.Option) *app.App {
	t.Helper()
	opts = append([]app.Option{
		app.WithNavigator(f.rec),
		app.WithNotifier(f.rec),
		app.WithLogger(zerolog.Nop()),
	}, opts...)
	a, err := app.New(context.Background(), config.New(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestLoginThenListProducts(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, nil)
	a := f.newApp(t)

	require.NoError(t, a.Session.LoginWithCredentials(ctx, testEmail, testPassword))
	user, err := a.Authenticate(ctx)
	require.NoError(t, err)
	require.Equal(t, "Ann", user.DisplayName())

	_, query, err := a.ListQuery("/products")
	require.NoError(t, err)
	page, err := a.Products.List(ctx, query.PageSize(), query.Page(), query.SearchText())
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	require.Equal(t, "http://localhost:9000/products/p1/red.png", a.ImageURL(page.Data[0].ImageURL))

	reqs := f.api.Requests()
	require.Len(t, reqs, 3)
	require.Equal(t, "/api"+apiclient.RouteAuthLogin, reqs[0].Path)
	require.Empty(t, reqs[0].Authorization)
	require.Equal(t, "/api"+apiclient.RouteAuthMe, reqs[1].Path)
	require.True(t, strings.HasPrefix(reqs[1].Authorization, "Bearer "))
	require.Equal(t, reqs[1].Authorization, reqs[2].Authorization)
	require.Equal(t, "Limit=10&Page=0&SearchText=", reqs[2].RawQuery)
	require.Equal(t, "application/json", reqs[2].ContentType)
	require.Equal(t, []string{sessions.PathHome}, f.rec.navigated())
}

func TestExpiredAccessIsRefreshedAndRetried(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, nil)
	a := f.newApp(t)

	require.NoError(t, a.Session.LoginWithCredentials(ctx, testEmail, testPassword))
	stale, err := a.Store.Get(ctx)
	require.NoError(t, err)
	f.api.ExpireAccess(stale.AccessToken)

	page, err := a.Products.List(ctx, 10, 0, "shoe")
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	fresh, err := a.Store.Get(ctx)
	require.NoError(t, err)
	require.NotEqual(t, stale, fresh)
	require.Equal(t, 2, f.api.Count(http.MethodGet, apiclient.RouteProducts))
	require.Equal(t, 1, f.api.Count(http.MethodPost, apiclient.RouteAuthRefresh))
	require.Empty(t, f.rec.notifications)
}

func TestRefreshFailureEndsSession(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, nil)
	a := f.newApp(t)

	require.NoError(t, a.Session.LoginWithCredentials(ctx, testEmail, testPassword))
	pair, err := a.Store.Get(ctx)
	require.NoError(t, err)
	f.api.ExpireAccess(pair.AccessToken)
	f.api.RevokeRefresh(pair.RefreshToken)

	_, err = a.Products.List(ctx, 10, 0, "")
	require.ErrorIs(t, err, apiclient.ErrRefreshFailed)
	n, shown := a.Reporter.Report(err)
	require.True(t, shown)
	require.Equal(t, "Invalid refresh token", n.Message)

	require.Nil(t, a.Session.User())
	_, err = a.Session.RequireUser()
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	require.Equal(t, sessions.PathLogin, f.rec.navigated()[len(f.rec.navigated())-1])
}

func TestFileStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := setupTestFixture(t, map[string]string{"TOKEN_STORE": "file", "FOLDER": dir, "TOKEN_STORE_KEY": testKey})

	first := f.newApp(t)
	require.NoError(t, first.Session.LoginWithCredentials(ctx, testEmail, testPassword))
	require.NoError(t, first.Close())

	second := f.newApp(t)
	user, err := second.Authenticate(ctx)
	require.NoError(t, err)
	require.Equal(t, "u-1", user.ID)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	f := setupTestFixture(t, map[string]string{"TOKEN_STORE": "redis", "REDIS_URL": "redis://" + mr.Addr()})

	a := f.newApp(t)
	require.NoError(t, a.Session.LoginWithCredentials(ctx, testEmail, testPassword))
	require.True(t, mr.Exists("shop-admin:tokens"))

	require.NoError(t, a.Session.Logout(ctx))
	require.False(t, mr.Exists("shop-admin:tokens"))
}

func TestDevRequestLog(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, map[string]string{"ENV": "DEV"})

	var buf bytes.Buffer
	a := f.newApp(t, app.WithRequestLog(&buf))
	require.NoError(t, a.Session.LoginWithCredentials(ctx, testEmail, testPassword))
	require.Contains(t, buf.String(), apiclient.RouteAuthLogin)
}

func TestNew_InvalidStoreKey(t *testing.T) {
	setupTestFixture(t, map[string]string{"TOKEN_STORE": "file", "FOLDER": t.TempDir(), "TOKEN_STORE_KEY": "not-hex"})

	_, err := app.New(context.Background(), config.New(), app.WithLogger(zerolog.Nop()))
	require.ErrorIs(t, err, apperrors.ErrInvalidConfig)
}

func TestListQueryDeepLink(t *testing.T) {
	setupTestFixture(t, map[string]string{"DEFAULT_PAGE_SIZE": "25"})
	a, err := app.New(context.Background(), config.New(), app.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	_, q, err := a.ListQuery("/products?Page=2&SearchText=shoe")
	require.NoError(t, err)
	require.Equal(t, 2, q.Page())
	require.Equal(t, 25, q.PageSize())
	require.Equal(t, "shoe", q.SearchText())
}
