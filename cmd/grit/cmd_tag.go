package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
)

func newTagCmd() *cobra.Command {
	var deleteTag string
	var force bool
	var showHash bool

	cmd := &cobra.Command{
		Use:   "tag [name] [target]",
		Short: "List, create, or delete tags",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			// Delete mode.
			if deleteTag != "" {
				if err := r.DeleteTag(deleteTag); err != nil {
					return err
				}
				fmt.Fprintf(out, "deleted tag '%s'\n", deleteTag)
				return nil
			}

			// List mode.
			if len(args) == 0 {
				if showHash {
					tags, err := r.ListTagsWithHashes()
					if err != nil {
						return err
					}
					names := make([]string, 0, len(tags))
					for name := range tags {
						names = append(names, name)
					}
					sort.Strings(names)
					for _, name := range names {
						fmt.Fprintf(out, "%s %s\n", tags[name], name)
					}
					return nil
				}

				tags, err := r.ListTags()
				if err != nil {
					return err
				}
				for _, name := range tags {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			// Create mode. The target defaults to HEAD.
			name := args[0]
			var target object.Hash
			if len(args) == 2 {
				if resolved, err := r.ResolveRef(args[1]); err == nil {
					target = resolved
				} else if parsed, err := object.ParseHash(args[1]); err == nil {
					target = parsed
				} else {
					return fmt.Errorf("tag: cannot resolve target %q", args[1])
				}
			} else {
				head, err := r.ResolveRef("HEAD")
				if err != nil {
					return fmt.Errorf("cannot resolve HEAD: %w", err)
				}
				target = head
			}

			if err := r.CreateTag(name, target, force); err != nil {
				return err
			}
			fmt.Fprintf(out, "tag '%s' -> %s\n", name, shortHash(target))
			return nil
		},
	}

	cmd.Flags().StringVarP(&deleteTag, "delete", "d", "", "delete the named tag")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace the tag if it already exists")
	cmd.Flags().BoolVar(&showHash, "show-hash", false, "list tags with their target hashes")

	return cmd
}
