package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
)

func newLogCmd() *cobra.Command {
	var oneline bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit history",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			headHash, err := r.ResolveRef("HEAD")
			if err != nil {
				// No commits yet: the branch ref does not exist.
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}

			entries, err := r.Log(headHash, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}

			// Determine the current branch name for decoration.
			branchName := ""
			head, err := r.Head()
			if err == nil && strings.HasPrefix(head, "refs/heads/") {
				branchName = strings.TrimPrefix(head, "refs/heads/")
			}

			out := cmd.OutOrStdout()
			for _, entry := range entries {
				h := entry.Hash
				c := entry.Commit
				decoration := buildDecoration(h, headHash, branchName)

				if oneline {
					subject := strings.SplitN(c.Message, "\n", 2)[0]
					if decoration != "" {
						fmt.Fprintf(out, "%s %s %s\n", shortHash(h), decoration, subject)
					} else {
						fmt.Fprintf(out, "%s %s\n", shortHash(h), subject)
					}
				} else {
					if decoration != "" {
						fmt.Fprintf(out, "commit %s %s\n", h, decoration)
					} else {
						fmt.Fprintf(out, "commit %s\n", h)
					}
					fmt.Fprintf(out, "Author: %s <%s>\n", c.Author.Name, c.Author.Email)
					fmt.Fprintf(out, "Date:   %s\n", formatCommitTime(c.Author))
					fmt.Fprintln(out)
					for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
						fmt.Fprintf(out, "    %s\n", line)
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of commits to show (0 = all)")

	return cmd
}

// buildDecoration returns a string like "(HEAD -> main)" if the commit is
// the current HEAD, or "" otherwise.
func buildDecoration(commitHash, headHash object.Hash, branchName string) string {
	if commitHash != headHash {
		return ""
	}
	if branchName != "" {
		return "(HEAD -> " + branchName + ")"
	}
	return "(HEAD)"
}

// formatCommitTime renders the author timestamp in its recorded UTC offset.
func formatCommitTime(sig object.Signature) string {
	loc := time.FixedZone("", sig.TZOffset*60)
	return time.Unix(sig.Timestamp, 0).In(loc).Format("Mon Jan 2 15:04:05 2006 -0700")
}
