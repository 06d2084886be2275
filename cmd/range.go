// Copyright (c) 2014 Square, Inc

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/square/nodeattr/nodes"
)

func newRangeCmd(v *viper.Viper) *cobra.Command {
	var compress, collapse bool

	cmd := &cobra.Command{
		Use:   "range QUERY",
		Short: "Expand a query on the range server",
		Long: `Expand a query on the range server named by --range-host and
--range-port (or RANGE_HOST and RANGE_PORT). --compress prints the result in
range server notation, --collapse in node pattern notation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := rangeClient(v)
			if err != nil {
				return err
			}
			result, err := e.Expand(args[0])
			if err != nil {
				return fmt.Errorf("unable to expand %s: %w", args[0], err)
			}

			if compress {
				fmt.Fprintln(cmd.OutOrStdout(), e.Compress(result))
				return nil
			}
			if collapse {
				fmt.Fprintln(cmd.OutOrStdout(), nodes.Collapse(result...))
				return nil
			}
			printNames(cmd.OutOrStdout(), result, false)
			return nil
		},
	}
	cmd.Flags().BoolVar(&compress, "compress", false, "print range server notation")
	cmd.Flags().BoolVarP(&collapse, "collapse", "c", false, "print node pattern notation")
	return cmd
}
