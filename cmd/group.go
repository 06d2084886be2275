// Copyright (c) 2014 Square, Inc

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/square/nodeattr/groups"
)

func newGroupCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage the groups of a cluster",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List groups with their index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd.Context(), v, false, func(c *groups.Config) error {
				for i, g := range c.RawGroups() {
					if g != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i, g)
					}
				}
				return nil
			})
		},
	}

	add := &cobra.Command{
		Use:   "add GROUP...",
		Short: "Add groups",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd.Context(), v, true, func(c *groups.Config) error {
				for _, g := range args {
					if err := c.AddGroup(g); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove GROUP...",
		Short: "Remove groups and the nodes whose primary group they are",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd.Context(), v, true, func(c *groups.Config) error {
				for _, g := range args {
					if err := c.RemoveGroup(g); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

func newClustersCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "clusters",
		Short: "List the clusters in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(v)
			if err != nil {
				return err
			}
			defer st.Close()

			keys, err := st.Keys(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
