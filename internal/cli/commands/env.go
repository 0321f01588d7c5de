package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rechargex-dev/rechargex/internal/cli/app"
	"github.com/rechargex-dev/rechargex/internal/cli/auth"
	"github.com/rechargex-dev/rechargex/internal/cli/client"
	"github.com/rechargex-dev/rechargex/internal/cli/forms"
	"github.com/rechargex-dev/rechargex/internal/cli/routes"
	"github.com/rechargex-dev/rechargex/internal/config"
	"github.com/rechargex-dev/rechargex/internal/logger"
)

// routeAnnotation binds a command to the view it renders
const routeAnnotation = "route"

// ErrLoginRequired is returned when a protected view is requested without a
// session and no prompt is possible
var ErrLoginRequired = errors.New("login required")

// errSessionExpired is shown once the backend has rejected the stored credential
var errSessionExpired = errors.New("your session has expired or is invalid. Run 'rechargex login' to sign in again")

// Env is what every command runs against. App is filled in by the root
// command before any RunE executes.
type Env struct {
	App    *app.App
	Prompt Prompter
	Now    func() time.Time

	// Config and Options are used to build App; a nil Config is loaded
	// from the environment
	Config  *config.Config
	Options []app.Option

	landing map[string]func(ctx context.Context) error
}

// NewEnv creates an empty environment using terminal prompts
func NewEnv() *Env {
	return &Env{
		Prompt: promptuiPrompter{},
		Now:    time.Now,
	}
}

// Open builds the App and starts rehydrating the stored session
func (e *Env) Open() error {
	cfg := e.Config
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	a, err := app.New(cfg, logger.GetLogger(), e.Options...)
	if err != nil {
		return err
	}
	a.Start()
	e.App = a
	return nil
}

// Close stops background work started by Open
func (e *Env) Close() {
	if e.App != nil {
		e.App.Close()
	}
}

// withRoute tags a command with its view path
func withRoute(cmd *cobra.Command, path string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[routeAnnotation] = path
	return cmd
}

// RouteOf returns the view path a command renders, if any
func RouteOf(cmd *cobra.Command) (string, bool) {
	path, ok := cmd.Annotations[routeAnnotation]
	return path, ok
}

// registerLanding makes a view available as a redirect target
func (e *Env) registerLanding(path string, render func(ctx context.Context) error) {
	if e.landing == nil {
		e.landing = map[string]func(ctx context.Context) error{}
	}
	e.landing[path] = render
}

// show guards navigation to path and runs render if the session allows it.
// A redirect to another role's home renders that view instead.
func (e *Env) show(ctx context.Context, path string, render func(ctx context.Context) error) error {
	route, err := e.enter(ctx, path)
	if err != nil {
		return err
	}

	if route.Path != path {
		fmt.Fprintf(e.App.Err, "Redirecting to %s\n", route.Path)
		landing, ok := e.landing[route.Path]
		if !ok {
			return fmt.Errorf("no view registered for %s", route.Path)
		}
		render = landing
	}

	if err := render(ctx); err != nil {
		return e.explain(err)
	}
	return nil
}

// enter runs the guard until it settles on a route to render
func (e *Env) enter(ctx context.Context, path string) (routes.Route, error) {
	route := routes.Resolve(path)
	waited := false

	for {
		d := routes.Decide(e.App.Session.GuardState(), route)
		switch d.Outcome {
		case routes.Render:
			e.App.Nav.Navigate(route.Path)
			return route, nil

		case routes.Wait:
			if !waited {
				e.App.Logger.Debug().Str("route", route.Path).Msg("Waiting for session to load")
				fmt.Fprintln(e.App.Err, "Loading session...")
				waited = true
			}
			if err := e.App.Session.WaitReady(ctx); err != nil {
				return routes.Route{}, err
			}

		case routes.Redirect:
			if d.To != routes.Login {
				e.App.Nav.Navigate(d.To)
				return routes.Resolve(d.To), nil
			}

			e.App.Nav.NavigateFrom(routes.Login, d.From)
			if !e.App.Interactive {
				return routes.Route{}, fmt.Errorf("%w: %s is only available after logging in. Run 'rechargex login' first", ErrLoginRequired, d.From)
			}

			fmt.Fprintf(e.App.Err, "Please log in to continue to %s\n", d.From)
			user, err := e.interactiveLogin(ctx, "", "")
			if err != nil {
				return routes.Route{}, err
			}
			route = routes.Resolve(afterLogin(user, d.From))
		}
	}
}

// afterLogin is where a successful login lands: admins always go to their
// dashboard, everyone else back to the location they asked for
func afterLogin(user *client.User, from string) string {
	role, err := auth.ParseRole(user.Role)
	if err == nil && role == auth.RoleAdmin {
		return routes.AdminDashboard
	}
	if from == "" || from == routes.Login || from == routes.Signup {
		return routes.Dashboard
	}
	return from
}

// interactiveLogin prompts for missing credentials and logs in
func (e *Env) interactiveLogin(ctx context.Context, email, password string) (*client.User, error) {
	var err error
	if email == "" {
		email, err = e.Prompt.Input("Email", nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read email: %w", err)
		}
	}
	if password == "" {
		password, err = e.Prompt.Password("Password")
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
	}

	form := forms.LoginForm{Email: email, Password: password}
	if err := forms.Validate(&form); err != nil {
		return nil, err
	}

	user, err := e.App.Session.Login(ctx, form.Email, form.Password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return user, nil
}

// explain turns an authorization failure into guidance. The transport has
// already cleared the session and moved the navigator to login.
func (e *Env) explain(err error) error {
	if client.IsStatus(err, http.StatusUnauthorized) {
		return errSessionExpired
	}
	if errors.Is(err, client.ErrNetwork) {
		return fmt.Errorf("could not reach the server at %s. Please try again: %w", e.App.API.BaseURL(), err)
	}
	return err
}

// currentProfile refreshes the profile, falling back to the one the session
// holds. A session cleared meanwhile by a rejected credential is reported as expired.
func (e *Env) currentProfile(ctx context.Context) (*client.User, error) {
	if user := e.App.Session.RefreshProfile(ctx); user != nil {
		return user, nil
	}
	snap := e.App.Session.Snapshot()
	if !snap.LoggedIn() {
		return nil, errSessionExpired
	}
	if snap.Profile == nil {
		return nil, fmt.Errorf("failed to load profile")
	}
	return snap.Profile, nil
}

// userID returns the id of the logged-in principal, preferring the profile
func (e *Env) userID() string {
	snap := e.App.Session.Snapshot()
	if snap.Profile != nil && snap.Profile.ID != "" {
		return snap.Profile.ID
	}
	return snap.UserID
}

func envOr(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}

// commandFor is the command line that renders the view at path
func commandFor(path string) string {
	if path == routes.Home {
		return "home"
	}
	return strings.ReplaceAll(strings.Trim(path, "/"), "/", " ")
}
