// Copyright (c) 2014 Square, Inc

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/square/nodeattr/groups"
)

func newNodeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage the nodes of a cluster",
	}

	var groupNames []string
	add := &cobra.Command{
		Use:     "add PATTERN",
		Short:   "Add nodes, replacing their groups",
		Example: "  nodeattr node add 'node[01-16]' --groups compute,gpu",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd.Context(), v, true, func(c *groups.Config) error {
				return c.AddNodes(args[0], groupNames...)
			})
		},
	}
	add.Flags().StringSliceVarP(&groupNames, "groups", "g", nil, "groups of the nodes, primary first")

	remove := &cobra.Command{
		Use:   "remove PATTERN",
		Short: "Remove nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd.Context(), v, true, func(c *groups.Config) error {
				return c.RemoveNodes(args[0])
			})
		},
	}

	var group string
	var primary, collapse bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List nodes, optionally only those of a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd.Context(), v, false, func(c *groups.Config) error {
				var names []string
				switch {
				case group == "":
					names = c.NodesList()
				case primary:
					names = c.NodesInPrimaryGroup(group)
				default:
					names = c.NodesInGroup(group)
				}
				printNames(cmd.OutOrStdout(), names, collapse)
				return nil
			})
		},
	}
	list.Flags().StringVarP(&group, "group", "g", "", "only list nodes of this group")
	list.Flags().BoolVarP(&primary, "primary", "p", false, "only match the primary group")
	list.Flags().BoolVarP(&collapse, "collapse", "c", false, "print the nodes as a single pattern")

	show := &cobra.Command{
		Use:   "groups NODE",
		Short: "Show the groups of a node, primary first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd.Context(), v, false, func(c *groups.Config) error {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(c.GroupsForNode(args[0]), ","))
				return nil
			})
		},
	}

	orphans := &cobra.Command{
		Use:   "orphans",
		Short: "List nodes without a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd.Context(), v, false, func(c *groups.Config) error {
				printNames(cmd.OutOrStdout(), c.Orphans(), false)
				return nil
			})
		},
	}

	cmd.AddCommand(add, remove, list, show, orphans)
	return cmd
}
