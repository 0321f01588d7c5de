package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rechargex-dev/rechargex/internal/cli/client"
	"github.com/rechargex-dev/rechargex/internal/cli/query"
	"github.com/rechargex-dev/rechargex/internal/cli/routes"
	"github.com/rechargex-dev/rechargex/internal/cli/theme"
)

// NewHomeCmd creates the home command, the public landing view
func NewHomeCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "home",
		Short: "Show the RechargeX landing page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.Home, env.renderHome)
		},
	}
	env.registerLanding(routes.Home, env.renderHome)
	return withRoute(cmd, routes.Home)
}

func (e *Env) renderHome(ctx context.Context) error {
	var (
		plans     []client.Plan
		feedbacks []client.Feedback
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		plans, err = e.App.API.ListPlans(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		feedbacks, err = e.App.API.ApprovedFeedbacks(gctx)
		if err != nil {
			// Testimonials are decoration; the page works without them
			e.App.Logger.Warn().Err(err).Msg("Failed to load testimonials")
			feedbacks = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	out := e.App.Out
	fmt.Fprintln(out, theme.Title.Render("RechargeX"))
	fmt.Fprintln(out, "Fast, secure mobile recharges for every operator.")
	fmt.Fprintln(out)

	providers := query.Providers(plans)[1:]
	fmt.Fprintf(out, "%d plans available from %s\n", len(plans), strings.Join(providers, ", "))

	if len(feedbacks) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, theme.Title.Render("What our customers say"))
		for _, f := range feedbacks {
			fmt.Fprintf(out, "  %s %s\n", stars(f.Rating), theme.Muted.Render(f.Name))
			fmt.Fprintf(out, "    %q\n", f.Feedback)
		}
	}

	fmt.Fprintln(out)
	if e.App.Session.Snapshot().LoggedIn() {
		fmt.Fprintln(out, "Run 'rechargex dashboard' to see your account.")
	} else {
		fmt.Fprintln(out, "Run 'rechargex plans' to browse, or 'rechargex signup' to get started.")
	}
	return nil
}

func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}
