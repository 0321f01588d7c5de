package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rechargex-dev/rechargex/internal/cli/client"
	"github.com/rechargex-dev/rechargex/internal/cli/query"
	"github.com/rechargex-dev/rechargex/internal/cli/routes"
	"github.com/rechargex-dev/rechargex/internal/cli/theme"
)

const recentLimit = 5

// NewDashboardCmd creates the dashboard command
func NewDashboardCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show your account overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.Dashboard, env.renderDashboard)
		},
	}
	env.registerLanding(routes.Dashboard, env.renderDashboard)
	return withRoute(cmd, routes.Dashboard)
}

func (e *Env) renderDashboard(ctx context.Context) error {
	txs, err := e.App.API.UserTransactions(ctx, e.userID())
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}

	out := e.App.Out
	name := "there"
	if p := e.App.Session.Snapshot().Profile; p != nil && p.Name != "" {
		name = p.Name
	}
	fmt.Fprintln(out, theme.Title.Render(fmt.Sprintf("Welcome back, %s!", name)))
	fmt.Fprintln(out)

	s := query.Summarize(txs)
	fmt.Fprintf(out, "Total recharges:  %d\n", s.Count)
	fmt.Fprintf(out, "Total spent:      %s\n", theme.Amount.Render(rupees(s.Total)))
	last := "never"
	if !s.Last.IsZero() {
		last = s.Last.Local().Format("02 Jan 2006")
	}
	fmt.Fprintf(out, "Last recharge:    %s\n", last)
	fmt.Fprintln(out)

	recent := query.Recent(txs, recentLimit)
	if len(recent) == 0 {
		fmt.Fprintln(out, "No recharges yet. Run 'rechargex recharge' to make your first one.")
		return nil
	}
	fmt.Fprintln(out, theme.Title.Render("Recent recharges"))
	printTransactions(e, recent, false)
	return nil
}

// printTransactions renders txs as a table; withUser adds the account columns
func printTransactions(e *Env, txs []client.Transaction, withUser bool) {
	w := tabwriter.NewWriter(e.App.Out, 0, 0, 2, ' ', 0)
	if withUser {
		fmt.Fprintln(w, "ID\tUSER\tMOBILE\tOPERATOR\tPLAN\tAMOUNT\tSTATUS\tDATE")
	} else {
		fmt.Fprintln(w, "ID\tMOBILE\tOPERATOR\tPLAN\tAMOUNT\tSTATUS\tDATE")
	}
	for _, t := range txs {
		date := t.CreatedAt.Local().Format("02 Jan 2006 15:04")
		plan := t.Plan.Name()
		if plan == "" {
			plan = "-"
		}
		if withUser {
			user := "N/A"
			if t.User.User != nil {
				user = t.User.User.Name
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				t.ID, user, t.MobileNumber, t.Provider, plan, rupees(t.Amount), theme.Status(t.Status), date)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.MobileNumber, t.Provider, plan, rupees(t.Amount), theme.Status(t.Status), date)
	}
	w.Flush()
}
