package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rechargex-dev/rechargex/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree around env
func NewRootCmd(env *commands.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rechargex",
		Short: "RechargeX - Mobile recharges from your terminal",
		Long: `RechargeX CLI - Browse plans, recharge any mobile number and keep track
of your recharges.

Administrators can manage the plan catalog, users and the transaction log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// version needs no session
			if cmd.Name() == "version" {
				return nil
			}
			return env.Open()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			env.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rechargex version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewHomeCmd(env))
	rootCmd.AddCommand(commands.NewLoginCmd(env))
	rootCmd.AddCommand(commands.NewSignupCmd(env))
	rootCmd.AddCommand(commands.NewLogoutCmd(env))
	rootCmd.AddCommand(commands.NewWhoamiCmd(env))
	rootCmd.AddCommand(commands.NewPlansCmd(env))
	rootCmd.AddCommand(commands.NewDashboardCmd(env))
	rootCmd.AddCommand(commands.NewRechargeCmd(env))
	rootCmd.AddCommand(commands.NewHistoryCmd(env))
	rootCmd.AddCommand(commands.NewProfileCmd(env))
	rootCmd.AddCommand(commands.NewAdminCmd(env))
	rootCmd.AddCommand(commands.NewThemeCmd(env))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd(commands.NewEnv()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
