package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
)

func newHashObjectCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "hash-object <file>",
		Short: "Compute the blob hash for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			blob, err := object.NewBlobFromBytes(data)
			if err != nil {
				return fmt.Errorf("hash-object %q: %w", args[0], err)
			}

			if write {
				r, err := repo.Open(".")
				if err != nil {
					return err
				}
				h, err := r.Store.Write(blob)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), h)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), object.ObjectID(blob))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the object into the store")
	return cmd
}
