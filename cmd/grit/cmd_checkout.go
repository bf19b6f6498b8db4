package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/grit/pkg/repo"
)

func newCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <branch|commit>",
		Short: "Switch branches or restore a commit's tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			if err := r.Checkout(args[0]); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if branch, err := r.CurrentBranch(); err == nil && branch != "" {
				fmt.Fprintf(out, "switched to branch '%s'\n", branch)
				return nil
			}

			head, err := r.ResolveRef("HEAD")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "HEAD is now at %s\n", shortHash(head))
			return nil
		},
	}
}
