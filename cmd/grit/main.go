package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odvcencio/grit/pkg/object"
)

func main() {
	root := &cobra.Command{
		Use:   "grit",
		Short: "Content-addressed version control in the git mold",
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newHashObjectCmd())
	root.AddCommand(newCatFileCmd())
	root.AddCommand(newLsTreeCmd())
	root.AddCommand(newWriteTreeCmd())
	root.AddCommand(newCommitCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newBranchCmd())
	root.AddCommand(newTagCmd())
	root.AddCommand(newCheckoutCmd())
	root.AddCommand(newReflogCmd())
	root.AddCommand(newConfigCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("grit 0.1.0-dev")
		},
	}
}

// shortHash renders the 8-character abbreviated form used in human output.
func shortHash(h object.Hash) string {
	return h.String()[:8]
}
