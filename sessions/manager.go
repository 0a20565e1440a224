package sessions

import (
	"context"
	"net/url"
	"sync"

	"github.com/jrsteele09/go-shop-admin/apiclient"
	apperrors "github.com/jrsteele09/go-shop-admin/internal/errors"
	"github.com/jrsteele09/go-shop-admin/internal/utils"
	"github.com/jrsteele09/go-shop-admin/token"
	"github.com/jrsteele09/go-shop-admin/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Navigation targets.
const (
	PathHome  = "/"
	PathLogin = "/login"
)

// Navigator moves the user interface to path.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// API is the part of apiclient.Client the session needs.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	SetAuthFailureHandler(handler func(ctx context.Context, err error))
}

var _ API = (*apiclient.Client)(nil)

// Session is a point in time copy of the session state.
type Session struct {
	AccessToken  *string
	RefreshToken *string
	User         *users.User
	IsLoading    bool
}

// Authenticated reports whether a user is known.
func (s Session) Authenticated() bool {
	return s.User != nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Manager owns the token pair and the current user.
// It is the only writer of the token store apart from the client's refresh.
type Manager struct {
	store     token.Store
	api       API
	navigator Navigator
	logger    zerolog.Logger

	lock    sync.RWMutex
	user    *users.User
	loading bool
	loaded  sync.Once
	// generation moves on every login and logout; a user fetched under an
	// older generation is dropped.
	generation uint64
}

type ManagerOption func(*Manager)

func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New creates a Manager in the loading state and registers it as api's auth failure handler.
// A nil navigator discards navigation.
func New(store token.Store, api API, navigator Navigator, options ...ManagerOption) *Manager {
	if navigator == nil {
		navigator = NavigatorFunc(func(string) {})
	}
	m := &Manager{
		store:     store,
		api:       api,
		navigator: navigator,
		logger:    log.Logger,
		loading:   true,
	}
	for _, opt := range options {
		opt(m)
	}
	api.SetAuthFailureHandler(m.onAuthFailure)
	return m
}

// Login stores pair, sets a placeholder user built from the token's claims and navigates home.
func (m *Manager) Login(ctx context.Context, pair token.Pair) error {
	if !pair.HasAccess() {
		return errors.Wrap(apperrors.ErrInvalidToken, "[Manager.Login] missing access token")
	}
	if err := m.store.Set(ctx, pair); err != nil {
		return errors.Wrap(err, "[Manager.Login] store.Set")
	}

	user := placeholderUser(pair.AccessToken)
	m.lock.Lock()
	m.generation++
	m.user = user
	m.lock.Unlock()

	m.logger.Info().Str("email", user.Email).Msg("logged in")
	m.navigator.Navigate(PathHome)
	return nil
}

// LoginWithCredentials exchanges email and password for a token pair, then calls Login.
func (m *Manager) LoginWithCredentials(ctx context.Context, email, password string) error {
	var issued token.Response
	if err := m.api.Post(ctx, apiclient.RouteAuthLogin, credentials{Email: email, Password: password}, &issued); err != nil {
		return errors.Wrap(err, "[Manager.LoginWithCredentials]")
	}
	return m.Login(ctx, issued.Pair())
}

// Logout clears the stored tokens and the user, then navigates to the login screen.
// Calling it when already logged out is harmless.
func (m *Manager) Logout(ctx context.Context) error {
	m.lock.Lock()
	m.generation++
	m.user = nil
	m.lock.Unlock()

	err := m.store.Clear(ctx)

	m.navigator.Navigate(PathLogin)
	if err != nil {
		return errors.Wrap(err, "[Manager.Logout] store.Clear")
	}
	return nil
}

// FetchCurrentUser resolves the user behind the stored access token.
// Without a token it does no network call. Any failure logs the session out.
// The loading flag is cleared when it returns, whatever the outcome.
func (m *Manager) FetchCurrentUser(ctx context.Context) error {
	defer m.finishLoading()

	m.lock.RLock()
	generation := m.generation
	m.lock.RUnlock()

	pair, err := m.store.Get(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to read stored tokens")
		_ = m.Logout(ctx)
		return errors.Wrap(err, "[Manager.FetchCurrentUser] store.Get")
	}
	if !pair.HasAccess() {
		return nil
	}

	var user users.User
	if err := m.api.Get(ctx, apiclient.RouteAuthMe, nil, &user); err != nil {
		if m.generationIs(generation) {
			m.logger.Info().Err(err).Msg("token not valid or expired")
			_ = m.Logout(ctx)
		}
		return errors.Wrap(err, "[Manager.FetchCurrentUser]")
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	if m.generation != generation {
		m.logger.Debug().Msg("session changed while fetching the user, result dropped")
		return nil
	}
	m.user = &user
	return nil
}

// IsLoading is true until the first FetchCurrentUser finishes.
func (m *Manager) IsLoading() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.loading
}

// User returns a copy of the current user, or nil.
func (m *Manager) User() *users.User {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Snapshot returns the current session state, tokens included.
func (m *Manager) Snapshot(ctx context.Context) (Session, error) {
	pair, err := m.store.Get(ctx)
	if err != nil {
		return Session{}, errors.Wrap(err, "[Manager.Snapshot] store.Get")
	}

	s := Session{User: m.User(), IsLoading: m.IsLoading()}
	if pair.HasAccess() {
		s.AccessToken = utils.Ptr(pair.AccessToken)
	}
	if pair.HasRefresh() {
		s.RefreshToken = utils.Ptr(pair.RefreshToken)
	}
	return s, nil
}

// RequireUser guards screens that need a signed in user.
// It returns ErrSessionLoading while loading, and navigates to the login screen when there is no user.
func (m *Manager) RequireUser() (*users.User, error) {
	if m.IsLoading() {
		return nil, apperrors.ErrSessionLoading
	}
	user := m.User()
	if user == nil {
		m.navigator.Navigate(PathLogin)
		return nil, apperrors.ErrNotAuthenticated
	}
	return user, nil
}

func (m *Manager) generationIs(generation uint64) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.generation == generation
}

func (m *Manager) finishLoading() {
	m.loaded.Do(func() {
		m.lock.Lock()
		m.loading = false
		m.lock.Unlock()
	})
}

func (m *Manager) onAuthFailure(ctx context.Context, err error) {
	m.logger.Warn().Err(err).Msg("session expired")
	if logoutErr := m.Logout(ctx); logoutErr != nil {
		m.logger.Error().Err(logoutErr).Msg("failed to clear session")
	}
}

func placeholderUser(accessToken string) *users.User {
	claims := token.PeekClaims(accessToken)
	user := &users.User{
		ID:        claims.Subject,
		Email:     claims.Email,
		FirstName: claims.Name,
	}
	if claims.Role != "" {
		user.Roles = []users.RoleType{users.RoleType(claims.Role)}
	}
	return user
}
