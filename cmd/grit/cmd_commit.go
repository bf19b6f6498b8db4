package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
)

func newCommitCmd() *cobra.Command {
	var message string
	var author string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record a snapshot of the working directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			sig, err := commitIdentity(r, author)
			if err != nil {
				return err
			}

			h, err := r.Commit(message, sig)
			if err != nil {
				return err
			}

			// Determine current branch name for output.
			branch := "HEAD"
			head, err := r.Head()
			if err == nil && strings.HasPrefix(head, "refs/heads/") {
				branch = strings.TrimPrefix(head, "refs/heads/")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, shortHash(h), strings.TrimRight(message, "\n"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", `override author ("Name <email>")`)

	return cmd
}

// commitIdentity resolves the identity to stamp into the commit: an explicit
// --author wins, otherwise the configured user.
func commitIdentity(r *repo.Repo, author string) (object.Signature, error) {
	if strings.TrimSpace(author) == "" {
		return r.UserSignature()
	}
	name, email, ok := splitAuthor(author)
	if !ok {
		return object.Signature{}, fmt.Errorf(`invalid --author %q, want "Name <email>"`, author)
	}
	return object.NewSignature(name, email), nil
}

func splitAuthor(s string) (name, email string, ok bool) {
	lt := strings.IndexByte(s, '<')
	gt := strings.LastIndexByte(s, '>')
	if lt < 0 || gt < lt {
		return "", "", false
	}
	return strings.TrimSpace(s[:lt]), strings.TrimSpace(s[lt+1 : gt]), true
}
