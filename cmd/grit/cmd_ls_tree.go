package main

import (
	"github.com/spf13/cobra"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
)

func newLsTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls-tree <tree-hash>",
		Short: "List the entries of a tree object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			h, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}

			tree, err := r.Store.ReadTree(h)
			if err != nil {
				return err
			}
			printTreeEntries(cmd.OutOrStdout(), tree)
			return nil
		},
	}
}
