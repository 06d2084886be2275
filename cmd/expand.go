// Copyright (c) 2014 Square, Inc

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xlab/handysort"

	"github.com/square/nodeattr/nodes"
)

func newExpandCmd() *cobra.Command {
	var sorted, collapse bool

	cmd := &cobra.Command{
		Use:   "expand PATTERN...",
		Short: "Print the node names a pattern denotes",
		Example: `  nodeattr expand 'node[01-03],login'
  nodeattr expand --sort 'n[10-11],n[1-2]'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var names []string
			for _, pattern := range args {
				expanded, err := nodes.Expand(pattern)
				if err != nil {
					return err
				}
				names = append(names, expanded...)
			}
			if sorted {
				sort.Sort(handysort.Strings(names))
			}
			printNames(cmd.OutOrStdout(), names, collapse)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&sorted, "sort", "s", false, "sort names naturally")
	cmd.Flags().BoolVarP(&collapse, "collapse", "c", false, "print the names as a single pattern")
	return cmd
}

func newCollapseCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "collapse [NAME...]",
		Short: "Fold node names into a pattern",
		Long: `Fold node names into a pattern. Names are taken from the arguments,
or one per line from --file or stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				var r io.Reader = cmd.InOrStdin()
				if file != "" {
					f, err := os.Open(file)
					if err != nil {
						return err
					}
					defer f.Close()
					r = f
				}
				var err error
				if names, err = readNames(r); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), nodes.Collapse(names...))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file to read names from, default stdin")
	return cmd
}

func readNames(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			names = append(names, line)
		}
	}
	return names, scanner.Err()
}

func printNames(w io.Writer, names []string, collapse bool) {
	if collapse {
		if len(names) > 0 {
			fmt.Fprintln(w, nodes.Collapse(names...))
		}
		return
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
}
