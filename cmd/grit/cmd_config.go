package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/grit/pkg/repo"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config <key> [value]",
		Short: "Get or set repository configuration",
		Long:  "Get or set repository configuration. Supported keys: user.name, user.email.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			if len(args) == 1 {
				value, err := r.ConfigGet(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			}

			return r.ConfigSet(args[0], args[1])
		},
	}
}
