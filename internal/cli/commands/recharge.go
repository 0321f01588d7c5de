package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rechargex-dev/rechargex/internal/cli/client"
	"github.com/rechargex-dev/rechargex/internal/cli/forms"
	"github.com/rechargex-dev/rechargex/internal/cli/query"
	"github.com/rechargex-dev/rechargex/internal/cli/routes"
	"github.com/rechargex-dev/rechargex/internal/cli/theme"
)

// rechargeOptions are the recharge view's inputs
type rechargeOptions struct {
	Phone    string
	Operator string
	PlanID   string
	Search   string
	Yes      bool
}

// NewRechargeCmd creates the recharge command
func NewRechargeCmd(env *Env) *cobra.Command {
	var opts rechargeOptions

	cmd := &cobra.Command{
		Use:   "recharge",
		Short: "Recharge a mobile number",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.Recharge, func(ctx context.Context) error {
				return env.runRecharge(ctx, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Phone, "phone", "", "10-digit mobile number")
	cmd.Flags().StringVar(&opts.Operator, "operator", "", "Operator (Airtel, Jio, Vi, BSNL)")
	cmd.Flags().StringVar(&opts.PlanID, "plan", "", "Plan ID (will prompt if not provided)")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "Narrow the plan list")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Skip confirmation prompt")

	return withRoute(cmd, routes.Recharge)
}

func (e *Env) runRecharge(ctx context.Context, opts rechargeOptions) error {
	form := forms.RechargeForm{Phone: opts.Phone, Operator: opts.Operator}

	var err error
	if form.Phone == "" && e.App.Interactive {
		form.Phone, err = e.Prompt.Input("Mobile number", func(s string) error {
			return forms.Validate(&forms.RechargeForm{Phone: s, Operator: forms.Operators[0]})
		})
		if err != nil {
			return err
		}
	}
	if form.Operator == "" && e.App.Interactive {
		idx, err := e.Prompt.Select("Operator", forms.Operators)
		if err != nil {
			return err
		}
		form.Operator = forms.Operators[idx]
	}
	if err := forms.Validate(&form); err != nil {
		return err
	}
	for _, op := range forms.Operators {
		if strings.EqualFold(op, form.Operator) {
			form.Operator = op
		}
	}

	plans, err := e.App.API.ListPlans(ctx)
	if err != nil {
		return fmt.Errorf("failed to load plans: %w", err)
	}
	candidates := query.FilterPlans(plans, query.PlanFilter{Provider: form.Operator, Search: opts.Search})

	plan, err := e.pickPlan(candidates, opts.PlanID)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.App.Out, "Recharge %s (%s) with %s for %s\n",
		form.Phone, form.Operator, plan.PlanName, theme.Amount.Render(rupees(plan.Price)))

	if !opts.Yes {
		if !e.App.Interactive {
			return fmt.Errorf("confirmation required in non-interactive mode (use --yes)")
		}
		ok, err := e.Prompt.Confirm("Pay now")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(e.App.Out, "Recharge cancelled")
			return nil
		}
	}

	tx, err := e.App.API.CreateTransaction(ctx, client.TransactionInput{
		UserID:        e.userID(),
		MobileNumber:  form.Phone,
		Provider:      form.Operator,
		PlanID:        plan.ID,
		Amount:        plan.Price,
		PaymentMethod: "UPI",
		Status:        "SUCCESS",
	})
	if err != nil {
		return fmt.Errorf("recharge failed: %w", err)
	}

	fmt.Fprintln(e.App.Out, theme.Success.Render(fmt.Sprintf("✓ Recharge successful! Transaction %s", tx.ID)))
	return nil
}

// pickPlan resolves the plan by id, or asks the user to choose one
func (e *Env) pickPlan(plans []client.Plan, id string) (*client.Plan, error) {
	if id != "" {
		for i := range plans {
			if plans[i].ID == id {
				return &plans[i], nil
			}
		}
		return nil, fmt.Errorf("plan %q not found for this operator", id)
	}

	if len(plans) == 0 {
		return nil, errors.New("no plans available for this operator")
	}
	if !e.App.Interactive {
		return nil, fmt.Errorf("plan is required in non-interactive mode (use --plan, see 'rechargex plans')")
	}

	items := make([]string, len(plans))
	for i, p := range plans {
		items[i] = fmt.Sprintf("%s  %s  %s / %s", p.PlanName, rupees(p.Price), p.Data, p.Validity)
	}
	idx, err := e.Prompt.Select("Select a plan", items)
	if err != nil {
		return nil, err
	}
	return &plans[idx], nil
}
