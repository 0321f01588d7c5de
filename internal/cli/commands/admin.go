package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rechargex-dev/rechargex/internal/cli/client"
	"github.com/rechargex-dev/rechargex/internal/cli/export"
	"github.com/rechargex-dev/rechargex/internal/cli/forms"
	"github.com/rechargex-dev/rechargex/internal/cli/query"
	"github.com/rechargex-dev/rechargex/internal/cli/routes"
	"github.com/rechargex-dev/rechargex/internal/cli/theme"
)

// NewAdminCmd creates the admin command group
func NewAdminCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer plans, users and transactions",
	}

	cmd.AddCommand(newAdminDashboardCmd(env))
	cmd.AddCommand(newAdminPlansCmd(env))
	cmd.AddCommand(newAdminUsersCmd(env))
	cmd.AddCommand(newAdminTransactionsCmd(env))

	return cmd
}

func newAdminDashboardCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show platform statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.AdminDashboard, env.renderAdminDashboard)
		},
	}
	env.registerLanding(routes.AdminDashboard, env.renderAdminDashboard)
	return withRoute(cmd, routes.AdminDashboard)
}

func (e *Env) renderAdminDashboard(ctx context.Context) error {
	var (
		users []client.User
		plans []client.Plan
		txs   []client.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = e.App.API.ListUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		plans, err = e.App.API.ListPlans(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = e.App.API.ListTransactions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load statistics: %w", err)
	}

	s := query.Summarize(txs)
	out := e.App.Out
	fmt.Fprintln(out, theme.Title.Render("Admin dashboard"))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Users:          %d (%d new this month)\n", len(users), query.NewThisMonth(users, e.Now()))
	fmt.Fprintf(out, "Plans:          %d\n", len(plans))
	fmt.Fprintf(out, "Transactions:   %d (%d successful, %d failed)\n", s.Count, s.Success, s.Failed)
	fmt.Fprintf(out, "Revenue:        %s\n", theme.Amount.Render(rupees(s.Total)))

	recent := query.Recent(txs, recentLimit)
	if len(recent) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, theme.Title.Render("Latest transactions"))
		printTransactions(e, recent, true)
	}
	return nil
}

func newAdminPlansCmd(env *Env) *cobra.Command {
	var filter query.PlanFilter

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage recharge plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.AdminPlans, func(ctx context.Context) error {
				return env.renderPlans(ctx, filter)
			})
		},
	}

	cmd.Flags().StringVar(&filter.Provider, "provider", query.AllProviders, "Only show plans of this operator")
	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "Search plan name, price or add-ons")

	cmd.AddCommand(newAdminPlanAddCmd(env))
	cmd.AddCommand(newAdminPlanEditCmd(env))
	cmd.AddCommand(newAdminPlanDeleteCmd(env))

	return withRoute(cmd, routes.AdminPlans)
}

func newAdminPlanAddCmd(env *Env) *cobra.Command {
	var form planFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a plan to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.AdminPlans, func(ctx context.Context) error {
				in, err := form.input(nil)
				if err != nil {
					return err
				}
				plan, err := env.App.API.CreatePlan(ctx, in)
				if err != nil {
					return fmt.Errorf("failed to create plan: %w", err)
				}
				fmt.Fprintln(env.App.Out, theme.Success.Render(fmt.Sprintf("✓ Plan created: %s (%s)", plan.PlanName, plan.ID)))
				return nil
			})
		},
	}

	form.bind(cmd)
	return cmd
}

func newAdminPlanEditCmd(env *Env) *cobra.Command {
	var form planFlags

	cmd := &cobra.Command{
		Use:   "edit <plan-id>",
		Short: "Change a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.AdminPlans, func(ctx context.Context) error {
				plans, err := env.App.API.ListPlans(ctx)
				if err != nil {
					return fmt.Errorf("failed to load plans: %w", err)
				}
				var current *client.Plan
				for i := range plans {
					if plans[i].ID == args[0] {
						current = &plans[i]
					}
				}
				if current == nil {
					return fmt.Errorf("plan %q not found", args[0])
				}

				in, err := form.input(current)
				if err != nil {
					return err
				}
				plan, err := env.App.API.UpdatePlan(ctx, current.ID, in)
				if err != nil {
					return fmt.Errorf("failed to update plan: %w", err)
				}
				fmt.Fprintln(env.App.Out, theme.Success.Render(fmt.Sprintf("✓ Plan updated: %s", plan.PlanName)))
				return nil
			})
		},
	}

	form.bind(cmd)
	return cmd
}

func newAdminPlanDeleteCmd(env *Env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <plan-id>",
		Short: "Remove a plan from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.AdminPlans, func(ctx context.Context) error {
				ok, err := env.confirm(yes, fmt.Sprintf("Delete plan %s", args[0]))
				if err != nil || !ok {
					return err
				}
				if err := env.App.API.DeletePlan(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete plan: %w", err)
				}
				fmt.Fprintln(env.App.Out, theme.Success.Render("✓ Plan deleted"))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func newAdminUsersCmd(env *Env) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.AdminUsers, func(ctx context.Context) error {
				users, err := env.App.API.ListUsers(ctx)
				if err != nil {
					return fmt.Errorf("failed to load users: %w", err)
				}
				matched := query.SearchUsers(users, search)
				if len(matched) == 0 {
					fmt.Fprintln(env.App.Out, "No users found")
					return nil
				}

				w := tabwriter.NewWriter(env.App.Out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tROLE\tJOINED")
				for _, u := range matched {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						u.ID, u.Name, u.Email, u.Phone, u.Role, u.CreatedAt.Local().Format("02 Jan 2006"))
				}
				w.Flush()
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Search name, email or phone")

	cmd.AddCommand(newAdminUserShowCmd(env))
	cmd.AddCommand(newAdminUserDeleteCmd(env))

	return withRoute(cmd, routes.AdminUsers)
}

func newAdminUserShowCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user and their recharges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.AdminUsers, func(ctx context.Context) error {
				var (
					users []client.User
					txs   []client.Transaction
				)
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					var err error
					users, err = env.App.API.ListUsers(gctx)
					return err
				})
				g.Go(func() error {
					var err error
					txs, err = env.App.API.UserTransactions(gctx, args[0])
					return err
				})
				if err := g.Wait(); err != nil {
					return fmt.Errorf("failed to load user: %w", err)
				}

				var user *client.User
				for i := range users {
					if users[i].ID == args[0] {
						user = &users[i]
					}
				}
				if user == nil {
					return fmt.Errorf("user %q not found", args[0])
				}

				out := env.App.Out
				fmt.Fprintln(out, theme.Title.Render(user.Name))
				fmt.Fprintf(out, "Email: %s\nPhone: %s\nRole:  %s\n", user.Email, user.Phone, user.Role)
				s := query.Summarize(txs)
				fmt.Fprintf(out, "%d recharges, %s total\n\n", s.Count, rupees(s.Total))
				if len(txs) > 0 {
					printTransactions(env, query.FilterTransactions(txs, query.TransactionFilter{Order: query.Newest}), false)
				}
				return nil
			})
		},
	}
}

func newAdminUserDeleteCmd(env *Env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.AdminUsers, func(ctx context.Context) error {
				if args[0] == env.userID() {
					return fmt.Errorf("you cannot delete your own account")
				}
				ok, err := env.confirm(yes, fmt.Sprintf("Delete user %s", args[0]))
				if err != nil || !ok {
					return err
				}
				if err := env.App.API.DeleteUser(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete user: %w", err)
				}
				fmt.Fprintln(env.App.Out, theme.Success.Render("✓ User deleted"))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func newAdminTransactionsCmd(env *Env) *cobra.Command {
	var (
		filter     query.TransactionFilter
		exportPath string
	)

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List all transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.AdminTransactions, func(ctx context.Context) error {
				txs, err := env.App.API.ListTransactions(ctx)
				if err != nil {
					return fmt.Errorf("failed to load transactions: %w", err)
				}
				filter.Now = env.Now()
				matched := query.FilterTransactions(txs, filter)

				if cmd.Flags().Changed("export") {
					return env.exportTransactions(exportPath, matched)
				}

				if len(matched) == 0 {
					fmt.Fprintln(env.App.Out, "No transactions found")
					return nil
				}
				printTransactions(env, matched, true)
				s := query.Summarize(matched)
				fmt.Fprintf(env.App.Out, "\n%d of %d transactions, %s total\n", len(matched), len(txs), rupees(s.Total))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "Search user, mobile number, operator or plan")
	cmd.Flags().StringVar(&filter.Status, "status", query.StatusAll, "Filter by status (all, success, failed, pending)")
	cmd.Flags().StringVar(&filter.Date, "date", query.DateAll, "Filter by date (all, today, week, month)")
	cmd.Flags().StringVar(&filter.Order, "sort", query.Newest, "Sort order (newest, oldest)")
	cmd.Flags().StringVar(&exportPath, "export", "", "Write the filtered list as CSV (default transactions_<date>.csv, - for stdout)")
	cmd.Flags().Lookup("export").NoOptDefVal = " "

	return withRoute(cmd, routes.AdminTransactions)
}

func (e *Env) exportTransactions(path string, txs []client.Transaction) error {
	if path == "-" {
		return export.WriteTransactions(e.App.Out, txs)
	}
	if path == "" || path == " " {
		path = export.DefaultFilename(e.Now())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := export.WriteTransactions(f, txs); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	fmt.Fprintln(e.App.Out, theme.Success.Render(fmt.Sprintf("✓ Exported %d transactions to %s", len(txs), path)))
	return nil
}

// confirm asks before a destructive action unless yes is set
func (e *Env) confirm(yes bool, label string) (bool, error) {
	if yes {
		return true, nil
	}
	if !e.App.Interactive {
		return false, fmt.Errorf("confirmation required in non-interactive mode (use --yes)")
	}
	ok, err := e.Prompt.Confirm(label)
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Fprintln(e.App.Out, "Cancelled")
	}
	return ok, nil
}

// planFlags are the plan editor's fields
type planFlags struct {
	forms.PlanForm
}

func (p *planFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.Provider, "provider", "", "Operator (Airtel, Jio, Vi, BSNL)")
	cmd.Flags().StringVar(&p.PlanName, "name", "", "Plan name")
	cmd.Flags().Float64Var(&p.Price, "price", 0, "Price in rupees")
	cmd.Flags().StringVar(&p.Data, "data", "", "Data allowance, e.g. 2GB/day")
	cmd.Flags().StringVar(&p.Validity, "validity", "", "Validity, e.g. 28 days")
	cmd.Flags().StringVar(&p.AddOns, "addons", "", "Extra benefits")
}

// input validates the flags as a plan body. Fields left unset keep the
// values of current, when editing.
func (p *planFlags) input(current *client.Plan) (client.PlanInput, error) {
	form := p.PlanForm
	if current != nil {
		if form.Provider == "" {
			form.Provider = current.Provider
		}
		if form.PlanName == "" {
			form.PlanName = current.PlanName
		}
		if form.Price == 0 {
			form.Price = current.Price
		}
		if form.Data == "" {
			form.Data = current.Data
		}
		if form.Validity == "" {
			form.Validity = current.Validity
		}
		if form.AddOns == "" {
			form.AddOns = current.AddOns
		}
	}

	if err := forms.Validate(&form); err != nil {
		return client.PlanInput{}, err
	}
	return client.PlanInput{
		Provider: form.Provider,
		PlanName: form.PlanName,
		Price:    form.Price,
		Data:     form.Data,
		Validity: form.Validity,
		AddOns:   form.AddOns,
	}, nil
}
