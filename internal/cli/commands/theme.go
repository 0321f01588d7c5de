package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rechargex-dev/rechargex/internal/cli/theme"
)

// NewThemeCmd creates the theme command
func NewThemeCmd(env *Env) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the color theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			m := env.App.Theme

			switch {
			case reset:
				if err := m.Reset(); err != nil {
					return err
				}
			case len(args) == 0:
			case args[0] == "toggle":
				if _, err := m.Toggle(); err != nil {
					return err
				}
			default:
				t, err := theme.Parse(args[0])
				if err != nil {
					return err
				}
				if err := m.Set(t); err != nil {
					return err
				}
			}

			fmt.Fprintf(env.App.Out, "Theme: %s\n", theme.Title.Render(string(m.Current())))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Forget the preference and follow the terminal background")
	return cmd
}
