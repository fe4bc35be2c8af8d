package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magnusknutas/genesis/internal/render"
)

func newThemeCmd(a *app) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show the active colour theme",
		Long: `Show the active colour theme as a legend with one styled sample per token
category. With --yaml the theme is printed in the format accepted by
theme.file, which makes a good starting point for a custom theme.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := a.host.theme
			out := cmd.OutOrStdout()
			if asYAML {
				return t.WriteYAML(out)
			}
			if _, err := fmt.Fprintf(out, "%s (base %s)\n\n", t.Name, t.Base); err != nil {
				return err
			}
			_, err := fmt.Fprint(out, render.StylesFromTheme(t).Legend())
			return err
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the theme as YAML")
	return cmd
}
