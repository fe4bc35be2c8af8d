package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magnusknutas/genesis/internal/config"
)

func newInitCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Long:  "Write the default configuration to path (default .genesis/config.yaml). An existing file is never overwritten.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefaultConfig(path); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "config: %s\n", path)
			return err
		},
	}
}
