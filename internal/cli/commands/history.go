package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rechargex-dev/rechargex/internal/cli/query"
	"github.com/rechargex-dev/rechargex/internal/cli/routes"
)

// NewHistoryCmd creates the history command
func NewHistoryCmd(env *Env) *cobra.Command {
	var filter query.TransactionFilter

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your recharges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.show(cmd.Context(), routes.History, func(ctx context.Context) error {
				return env.renderHistory(ctx, filter)
			})
		},
	}

	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "Search mobile number, operator or plan")
	cmd.Flags().StringVar(&filter.Status, "status", query.StatusAll, "Filter by status (all, success, failed, pending)")
	cmd.Flags().StringVar(&filter.Order, "sort", query.Newest, "Sort order (newest, oldest)")

	return withRoute(cmd, routes.History)
}

func (e *Env) renderHistory(ctx context.Context, filter query.TransactionFilter) error {
	txs, err := e.App.API.UserTransactions(ctx, e.userID())
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}

	matched := query.FilterTransactions(txs, filter)
	if len(matched) == 0 {
		fmt.Fprintln(e.App.Out, "No transactions found")
		return nil
	}

	printTransactions(e, matched, false)
	fmt.Fprintf(e.App.Out, "\n%d of %d transactions\n", len(matched), len(txs))
	return nil
}
