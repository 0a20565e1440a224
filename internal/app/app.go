package app

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-shop-admin/apiclient"
	"github.com/jrsteele09/go-shop-admin/catalog"
	"github.com/jrsteele09/go-shop-admin/feedback"
	"github.com/jrsteele09/go-shop-admin/internal/config"
	apperrors "github.com/jrsteele09/go-shop-admin/internal/errors"
	"github.com/jrsteele09/go-shop-admin/internal/ui"
	"github.com/jrsteele09/go-shop-admin/listquery"
	"github.com/jrsteele09/go-shop-admin/orders"
	"github.com/jrsteele09/go-shop-admin/sessions"
	"github.com/jrsteele09/go-shop-admin/token"
	"github.com/jrsteele09/go-shop-admin/token/filestore"
	"github.com/jrsteele09/go-shop-admin/token/redisstore"
	tokenfakerepo "github.com/jrsteele09/go-shop-admin/token/repofake"
	"github.com/jrsteele09/go-shop-admin/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// App holds every service of the admin client, wired to one token store and API client.
type App struct {
	Config     config.Config
	Store      token.Store
	Client     *apiclient.Client
	Session    *sessions.Manager
	Products   *catalog.Products
	Categories *catalog.Categories
	Users      *users.Service
	Orders     *orders.Service
	Reporter   *feedback.Reporter

	closers []func() error
}

type options struct {
	store      token.Store
	navigator  sessions.Navigator
	notifier   feedback.Notifier
	logger     zerolog.Logger
	requestLog io.Writer
}

type Option func(*options)

// WithStore bypasses the configured token store.
func WithStore(store token.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

func WithNavigator(navigator sessions.Navigator) Option {
	return func(o *options) {
		o.navigator = navigator
	}
}

func WithNotifier(notifier feedback.Notifier) Option {
	return func(o *options) {
		o.notifier = notifier
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRequestLog overrides where DEV request lines go (stderr by default).
func WithRequestLog(w io.Writer) Option {
	return func(o *options) {
		o.requestLog = w
	}
}

// New wires the admin client from c.
func New(ctx context.Context, c config.Config, opts ...Option) (*App, error) {
	o := options{logger: log.Logger, requestLog: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}
	if c.GetBaseURL() == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidConfig, "[app.New] BASE_URL is empty")
	}

	a := &App{Config: c}
	store := o.store
	if store == nil {
		var (
			closer func() error
			err    error
		)
		store, closer, err = OpenStore(ctx, c)
		if err != nil {
			return nil, errors.Wrap(err, "[app.New] OpenStore")
		}
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
	}
	a.Store = store

	clientOpts := []apiclient.ClientOption{
		apiclient.WithLogger(o.logger),
		apiclient.WithTimeout(c.GetHTTPTimeout()),
		apiclient.WithRefreshPath(c.GetRefreshPath()),
	}
	if c.GetEnv() == "DEV" && o.requestLog != nil {
		clientOpts = append(clientOpts, apiclient.WithObserver(ui.RequestLogger(o.requestLog)))
	}
	a.Client = apiclient.New(c.GetBaseURL(), store, clientOpts...)

	navigator := o.navigator
	if navigator == nil {
		navigator = logNavigator(o.logger)
	}
	notifier := o.notifier
	if notifier == nil {
		notifier = feedback.NewLogNotifier(o.logger)
	}

	a.Session = sessions.New(store, a.Client, navigator, sessions.WithLogger(o.logger))
	a.Products = catalog.NewProducts(a.Client)
	a.Categories = catalog.NewCategories(a.Client)
	a.Users = users.NewService(a.Client)
	a.Orders = orders.NewService(a.Client)
	a.Reporter = feedback.NewReporter(notifier, navigator, feedback.WithLogger(o.logger))
	return a, nil
}

// OpenStore builds the token store selected by TOKEN_STORE. The returned closer may be nil.
func OpenStore(ctx context.Context, c config.Config) (token.Store, func() error, error) {
	switch c.GetTokenStore() {
	case config.TokenStoreMemory:
		return tokenfakerepo.NewFakeTokenStore(), nil, nil
	case config.TokenStoreRedis:
		client, err := redisstore.Connect(ctx, c.GetRedisURL())
		if err != nil {
			return nil, nil, err
		}
		return redisstore.New(client, ""), client.Close, nil
	default:
		key, err := filestore.ParseKey(c.GetTokenStoreKey())
		if err != nil {
			return nil, nil, err
		}
		if err := os.MkdirAll(c.GetDataFolder(), 0o700); err != nil {
			return nil, nil, errors.Wrap(err, "failed to create data folder")
		}
		store, err := filestore.New(filepath.Join(c.GetDataFolder(), filestore.DefaultFileName), key)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}

// ListQuery returns a synchronizer over rawURL using the configured page defaults.
func (a *App) ListQuery(rawURL string) (*listquery.Location, *listquery.Synchronizer, error) {
	loc, err := listquery.NewLocation(rawURL)
	if err != nil {
		return nil, nil, err
	}
	defaults := listquery.Defaults{Page: a.Config.GetDefaultPage(), PageSize: a.Config.GetDefaultPageSize()}
	return loc, listquery.New(loc, defaults), nil
}

// ImageURL resolves a stored product image path against the configured media server.
func (a *App) ImageURL(imagePath string) string {
	return catalog.ImageURL(a.Config.GetMediaURL(), a.Config.GetMediaBucket(), imagePath)
}

// Authenticate resolves the current user the way a protected screen does on first load.
func (a *App) Authenticate(ctx context.Context) (*users.User, error) {
	if err := a.Session.FetchCurrentUser(ctx); err != nil {
		return nil, err
	}
	return a.Session.RequireUser()
}

func (a *App) Close() error {
	var firstErr error
	for _, closer := range a.closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

func logNavigator(logger zerolog.Logger) sessions.Navigator {
	return sessions.NavigatorFunc(func(path string) {
		if path == sessions.PathLogin {
			logger.Info().Msg("not signed in, run the login command")
			return
		}
		logger.Debug().Str("path", path).Msg("navigate")
	})
}
