// Package app wires the client together. An App is constructed once at
// startup and passed explicitly to every view; nothing here is global.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/rechargex-dev/rechargex/internal/cli/auth"
	"github.com/rechargex-dev/rechargex/internal/cli/client"
	"github.com/rechargex-dev/rechargex/internal/cli/routes"
	"github.com/rechargex-dev/rechargex/internal/cli/session"
	"github.com/rechargex-dev/rechargex/internal/cli/theme"
	"github.com/rechargex-dev/rechargex/internal/config"
)

// App is the context object shared by the views
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Storage   auth.Storage
	Nav       *routes.Navigator
	Transport *client.AuthTransport
	API       *client.Client
	Session   *session.Store
	Theme     *theme.Manager

	In          io.Reader
	Out         io.Writer
	Err         io.Writer
	Interactive bool

	ctx    context.Context
	cancel context.CancelFunc
}

type options struct {
	storage     auth.Storage
	base        http.RoundTripper
	in          io.Reader
	out         io.Writer
	errOut      io.Writer
	interactive *bool
}

// Option customizes New
type Option func(*options)

// WithStorage overrides the configured storage backend
func WithStorage(s auth.Storage) Option {
	return func(o *options) { o.storage = s }
}

// WithRoundTripper sets the transport under the auth layer
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithIO replaces stdin/stdout/stderr
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(o *options) {
		o.in = in
		o.out = out
		o.errOut = errOut
	}
}

// WithInteractive forces prompt support on or off
func WithInteractive(v bool) Option {
	return func(o *options) { o.interactive = &v }
}

// New constructs the application. The session is not initialized yet;
// call Start for that.
func New(cfg *config.Config, logger zerolog.Logger, opts ...Option) (*App, error) {
	o := options{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	storage := o.storage
	if storage == nil {
		s, err := NewStorage(cfg.Storage)
		if err != nil {
			return nil, err
		}
		storage = s
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if o.interactive != nil {
		interactive = *o.interactive
	}

	nav := routes.NewNavigator(routes.Home)
	transport := client.NewAuthTransport(cfg.API.BaseURL, o.base, storage, nav, logger)
	api := client.New(cfg.API.BaseURL, transport, cfg.API.Timeout)
	store := session.New(api, storage, logger)
	transport.OnUnauthorized(store.HandleUnauthorized)

	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		Config:      cfg,
		Logger:      logger,
		Storage:     storage,
		Nav:         nav,
		Transport:   transport,
		API:         api,
		Session:     store,
		Theme:       theme.NewManager(storage),
		In:          o.in,
		Out:         o.out,
		Err:         o.errOut,
		Interactive: interactive,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start rehydrates the persisted session in the background
func (a *App) Start() {
	a.Session.Initialize(a.ctx)
}

// Context is cancelled by Close
func (a *App) Context() context.Context {
	return a.ctx
}

// Close cancels in-flight background work
func (a *App) Close() {
	a.cancel()
}

// NewStorage opens the configured storage backend
func NewStorage(cfg config.StorageConfig) (auth.Storage, error) {
	switch cfg.Backend {
	case config.StorageKeyring:
		return auth.NewKeyringStorage(), nil
	case config.StorageFile:
		return auth.NewFileStorage(cfg.ConfigDir), nil
	case config.StorageMemory:
		return auth.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
