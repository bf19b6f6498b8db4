package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
)

func newCatFileCmd() *cobra.Command {
	var showType bool
	var showSize bool
	var prettyPrint bool

	cmd := &cobra.Command{
		Use:   "cat-file (-t | -s | -p) <hash>",
		Short: "Show object type, size, or content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := 0
			for _, set := range []bool{showType, showSize, prettyPrint} {
				if set {
					modes++
				}
			}
			if modes != 1 {
				return fmt.Errorf("exactly one of -t, -s, -p is required")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			h, err := object.ParseHash(args[0])
			if err != nil {
				return err
			}

			if prettyPrint {
				return prettyPrintObject(cmd.OutOrStdout(), r, h)
			}

			objType, body, err := r.Store.Read(h)
			if err != nil {
				return err
			}
			if showType {
				fmt.Fprintln(cmd.OutOrStdout(), objType)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), len(body))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showType, "type", "t", false, "show the object type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "show the object body size")
	cmd.Flags().BoolVarP(&prettyPrint, "pretty", "p", false, "pretty-print the object content")
	return cmd
}

func prettyPrintObject(out io.Writer, r *repo.Repo, h object.Hash) error {
	o, err := r.Store.ReadObject(h)
	if err != nil {
		return err
	}
	switch v := o.(type) {
	case *object.Blob:
		fmt.Fprint(out, v.Content)
	case *object.Tree:
		printTreeEntries(out, v)
	case *object.Commit:
		fmt.Fprint(out, string(object.MarshalCommit(v)))
	}
	return nil
}

func printTreeEntries(out io.Writer, tree *object.Tree) {
	for _, e := range tree.Entries {
		fmt.Fprintf(out, "%d %s %s\t%s\n", e.Mode, entryTypeName(e), e.Hash, e.Name)
	}
}

func entryTypeName(e object.TreeEntry) string {
	if e.IsDir() {
		return "tree"
	}
	return "blob"
}
