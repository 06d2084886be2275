// Copyright (c) 2014 Square, Inc

package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shortDescription = "nodeattr expands node ranges and tracks the groups of cluster nodes."

// RootCmd is the main entrypoint for the CLI application.
var RootCmd = NewRootCmd()

// NewRootCmd builds the command tree with its own configuration.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "nodeattr",
		Short: shortDescription,
		Long: `
nodeattr works with compact node range notation such as node[01-10,15].
It expands and collapses ranges, records which groups the nodes of a
cluster belong to, and runs commands over ssh on the nodes a range or a
group names.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if v.GetBool("debug") {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.InfoLevel)
			}
		},
	}

	boolConfig(v, root, "debug", "d", false, "enable debug mode")
	stringConfig(v, root, "cluster", "C", "default", "cluster to operate on")
	stringConfig(v, root, "store", "", "file", "store backend, file or bolt")
	stringConfig(v, root, "path", "", defaultStorePath(), "directory holding the store")
	stringConfig(v, root, "range-host", "", "range", "range server host", "RANGE_HOST")
	intConfig(v, root, "range-port", "", 80, "range server port", "RANGE_PORT")

	root.AddCommand(
		newExpandCmd(),
		newCollapseCmd(),
		newGroupCmd(v),
		newNodeCmd(v),
		newClustersCmd(v),
		newExecCmd(v),
		newRangeCmd(v),
	)
	return root
}
