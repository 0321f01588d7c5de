package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rechargex-dev/rechargex/internal/cli/client"
	"github.com/rechargex-dev/rechargex/internal/cli/query"
	"github.com/rechargex-dev/rechargex/internal/cli/routes"
	"github.com/rechargex-dev/rechargex/internal/cli/theme"
)

// NewPlansCmd creates the plans command
func NewPlansCmd(env *Env) *cobra.Command {
	var filter query.PlanFilter

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Browse recharge plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.Plans, func(ctx context.Context) error {
				return env.renderPlans(ctx, filter)
			})
		},
	}

	cmd.Flags().StringVar(&filter.Provider, "provider", query.AllProviders, "Only show plans of this operator")
	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "Search plan name, price or add-ons")

	return withRoute(cmd, routes.Plans)
}

func (e *Env) renderPlans(ctx context.Context, filter query.PlanFilter) error {
	plans, err := e.App.API.ListPlans(ctx)
	if err != nil {
		return fmt.Errorf("failed to load plans: %w", err)
	}

	fmt.Fprintln(e.App.Out, theme.Muted.Render("Operators: "+strings.Join(query.Providers(plans), ", ")))

	matched := query.FilterPlans(plans, filter)
	if len(matched) == 0 {
		fmt.Fprintln(e.App.Out, "No plans found")
		return nil
	}
	printPlans(e, matched)
	return nil
}

func printPlans(e *Env, plans []client.Plan) {
	w := tabwriter.NewWriter(e.App.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tOPERATOR\tPLAN\tPRICE\tDATA\tVALIDITY\tADD-ONS")
	for _, p := range plans {
		addOns := p.AddOns
		if addOns == "" {
			addOns = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Provider, p.PlanName, rupees(p.Price), p.Data, p.Validity, addOns)
	}
	w.Flush()
}

func rupees(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("₹%d", int64(v))
	}
	return fmt.Sprintf("₹%.2f", v)
}
