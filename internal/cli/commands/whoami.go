package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rechargex-dev/rechargex/internal/cli/auth"
	"github.com/rechargex-dev/rechargex/internal/cli/theme"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.runWhoami(cmd)
		},
	}
}

func (e *Env) runWhoami(cmd *cobra.Command) error {
	if err := e.App.Session.WaitReady(cmd.Context()); err != nil {
		return err
	}

	snap := e.App.Session.Snapshot()
	if !snap.LoggedIn() {
		fmt.Fprintln(e.App.Out, "Not logged in. Run 'rechargex login' to sign in.")
		return nil
	}

	out := e.App.Out
	if snap.Profile != nil {
		fmt.Fprintf(out, "Name:   %s\n", snap.Profile.Name)
		fmt.Fprintf(out, "Email:  %s\n", snap.Profile.Email)
	}
	fmt.Fprintf(out, "User:   %s\n", snap.UserID)
	fmt.Fprintf(out, "Role:   %s\n", snap.Role)

	if exp, ok := auth.TokenExpiry(snap.Token); ok {
		remaining := exp.Sub(e.Now())
		if remaining <= 0 {
			fmt.Fprintln(out, theme.Warning.Render("Token:  expired"))
		} else {
			fmt.Fprintf(out, "Token:  expires %s (in %s)\n", exp.Local().Format(time.RFC1123), remaining.Round(time.Minute))
		}
	}
	return nil
}
