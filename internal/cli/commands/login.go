package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rechargex-dev/rechargex/internal/cli/forms"
	"github.com/rechargex-dev/rechargex/internal/cli/routes"
	"github.com/rechargex-dev/rechargex/internal/cli/session"
	"github.com/rechargex-dev/rechargex/internal/cli/theme"
)

// NewLoginCmd creates the login command
func NewLoginCmd(env *Env) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to your RechargeX account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.runLogin(cmd, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set RECHARGEX_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set RECHARGEX_PASSWORD, will prompt if not provided)")

	return withRoute(cmd, routes.Login)
}

func (e *Env) runLogin(cmd *cobra.Command, email, password string) error {
	ctx := cmd.Context()

	// Check for environment variables (useful for CI/CD)
	email = envOr(email, "RECHARGEX_EMAIL")
	password = envOr(password, "RECHARGEX_PASSWORD")

	if !e.App.Interactive {
		if email == "" {
			return fmt.Errorf("email is required in non-interactive mode (use --email flag or RECHARGEX_EMAIL env var)")
		}
		if password == "" {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or RECHARGEX_PASSWORD env var)")
		}
	}

	// A rehydrating session is replaced, not raced
	if err := e.App.Session.WaitReady(ctx); err != nil {
		return err
	}

	from := e.App.Nav.Current().From
	e.App.Nav.Navigate(routes.Login)

	user, err := e.interactiveLogin(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintln(e.App.Out, theme.Success.Render(fmt.Sprintf("✓ Logged in as %s (%s)", user.Name, user.Email)))

	next := afterLogin(user, from)
	e.App.Nav.Navigate(next)
	fmt.Fprintf(e.App.Out, "Continue with 'rechargex %s'\n", commandFor(next))
	return nil
}

// NewSignupCmd creates the signup command
func NewSignupCmd(env *Env) *cobra.Command {
	var form forms.SignupForm

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a new RechargeX account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.runSignup(cmd, form)
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "10-digit mobile number")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password (will prompt if not provided)")

	return withRoute(cmd, routes.Signup)
}

func (e *Env) runSignup(cmd *cobra.Command, form forms.SignupForm) error {
	ctx := cmd.Context()
	e.App.Nav.Navigate(routes.Signup)

	var err error
	ask := func(value *string, label string) error {
		if *value != "" {
			return nil
		}
		if !e.App.Interactive {
			return fmt.Errorf("%s is required in non-interactive mode", label)
		}
		*value, err = e.Prompt.Input(label, nil)
		return err
	}

	if err := ask(&form.Name, "Name"); err != nil {
		return err
	}
	if err := ask(&form.Email, "Email"); err != nil {
		return err
	}
	if err := ask(&form.Phone, "Phone"); err != nil {
		return err
	}

	if form.Password == "" {
		if !e.App.Interactive {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag)")
		}
		if form.Password, err = e.Prompt.Password("Password"); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if form.ConfirmPassword, err = e.Prompt.Password("Confirm password"); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	} else if form.ConfirmPassword == "" {
		form.ConfirmPassword = form.Password
	}

	if err := forms.Validate(&form); err != nil {
		return err
	}

	user, err := e.App.Session.Signup(ctx, session.SignupData{
		Name:     form.Name,
		Email:    form.Email,
		Phone:    form.Phone,
		Password: form.Password,
	})
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}

	e.App.Nav.Navigate(routes.Dashboard)
	fmt.Fprintln(e.App.Out, theme.Success.Render(fmt.Sprintf("✓ Welcome to RechargeX, %s!", user.Name)))
	fmt.Fprintln(e.App.Out, "Continue with 'rechargex dashboard'")
	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Let an in-flight rehydrate settle so it can't resurrect the session
			if err := env.App.Session.WaitReady(cmd.Context()); err != nil {
				return err
			}
			env.App.Session.Logout()
			env.App.Nav.Navigate(routes.Login)
			fmt.Fprintln(env.App.Out, "✓ Logged out")
			return nil
		},
	}
}
