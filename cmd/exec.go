// Copyright (c) 2014 Square, Inc

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set"
	"github.com/fatih/color"
	cmap "github.com/orcaman/concurrent-map"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/square/erg"
	"github.com/square/gcmd"
	"github.com/xlab/handysort"

	"github.com/square/nodeattr/groups"
	"github.com/square/nodeattr/nodes"
)

const nodeMarker = "__NODE__"

var (
	nodeStyle   = color.New(color.FgCyan, color.Bold)
	stdoutStyle = color.New(color.FgGreen)
	stderrStyle = color.New(color.FgYellow)
	failStyle   = color.New(color.FgRed, color.Bold)
)

type execOptions struct {
	maxflight int
	timeout   int
	collapse  bool
	useRange  bool
	ssh       string
}

func newExecCmd(v *viper.Viper) *cobra.Command {
	var opts execOptions

	cmd := &cobra.Command{
		Use:   "exec TARGET... -- COMMAND...",
		Short: "Run a command over ssh on many nodes",
		Long: `Run a command over ssh on every node the targets name. A target is a
node pattern, @GROUP for the nodes of a group, or with --range a query for
the range server.`,
		Example: `  nodeattr exec 'node[01-16]' -- uptime
  nodeattr exec -c @compute -- cat /etc/redhat-release`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := cmd.ArgsLenAtDash()
			if dash < 1 || dash == len(args) {
				return errors.New("usage: exec TARGET... -- COMMAND...")
			}
			if opts.maxflight < 1 {
				return fmt.Errorf("maxflight must be at least 1, got %d", opts.maxflight)
			}

			targets, err := resolveTargets(cmd.Context(), v, args[:dash], opts.useRange)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				return errors.New("no nodes matched")
			}
			return runOnNodes(cmd.OutOrStdout(), cmd.ErrOrStderr(), targets, args[dash:], opts)
		},
	}
	cmd.Flags().IntVarP(&opts.maxflight, "maxflight", "m", 50, "maximum number of parallel processes")
	cmd.Flags().IntVarP(&opts.timeout, "timeout", "t", 10, "timeout in seconds for initial conn")
	cmd.Flags().BoolVarP(&opts.collapse, "collapse", "c", false,
		"collapse similar output - be careful about memory usage")
	cmd.Flags().BoolVarP(&opts.useRange, "range", "r", false, "resolve targets on the range server")
	cmd.Flags().StringVar(&opts.ssh, "ssh", "ssh", "ssh binary to run")
	return cmd
}

// resolveTargets expands targets in order, dropping repeated nodes.
func resolveTargets(ctx context.Context, v *viper.Viper, targets []string, useRange bool) ([]string, error) {
	seen := mapset.NewSet()
	var resolved []string
	add := func(names []string) {
		for _, n := range names {
			if seen.Add(n) {
				resolved = append(resolved, n)
			}
		}
	}

	for _, target := range targets {
		switch {
		case useRange:
			e, err := rangeClient(v)
			if err != nil {
				return nil, err
			}
			names, err := e.Expand(target)
			if err != nil {
				return nil, fmt.Errorf("unable to expand %s: %w", target, err)
			}
			add(names)
		case strings.HasPrefix(target, "@"):
			err := withConfig(ctx, v, false, func(c *groups.Config) error {
				add(c.NodesInGroup(target[1:]))
				return nil
			})
			if err != nil {
				return nil, err
			}
		default:
			names, err := nodes.Expand(target)
			if err != nil {
				return nil, err
			}
			add(names)
		}
	}
	log.Debugf("Resolved %d nodes", len(resolved))
	return resolved, nil
}

func runOnNodes(stdout, stderr io.Writer, targets, command []string, opts execOptions) error {
	args := []string{nodeMarker, "-n", "-o", fmt.Sprintf("ConnectTimeout=%d", opts.timeout)}
	args = append(args, command...)
	g := gcmd.New(targets, opts.ssh, args...)
	g.Maxflight = opts.maxflight

	var failed int32
	var mu sync.Mutex
	printf := func(format string, a ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(stdout, format, a...)
	}

	var out, errs, exits outputBuckets
	var bar *progressbar.ProgressBar

	if opts.collapse {
		out, errs, exits = newOutputBuckets(), newOutputBuckets(), newOutputBuckets()
		bar = progressbar.NewOptions(len(targets),
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription("exec"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))

		g.StdoutHandler = out.add
		g.StderrHandler = errs.add
		g.ExitHandler = func(node string, exit error) {
			o := "success"
			if exit != nil {
				atomic.AddInt32(&failed, 1)
				o = exit.Error()
			}
			exits.add(node, o)
			bar.Add(1)
		}
	} else {
		g.StdoutHandler = func(node string, o string) {
			printf("%s:%s:%s\n", nodeStyle.Sprint(node), stdoutStyle.Sprint("stdout"), o)
		}
		g.StderrHandler = func(node string, o string) {
			printf("%s:%s:%s\n", nodeStyle.Sprint(node), stderrStyle.Sprint("stderr"), o)
		}
		g.ExitHandler = func(node string, exit error) {
			if exit != nil {
				atomic.AddInt32(&failed, 1)
				printf("%s:%s:%s\n", nodeStyle.Sprint(node), failStyle.Sprint("failed"), exit.Error())
				return
			}
			printf("%s:success\n", nodeStyle.Sprint(node))
		}
	}

	log.Debugf("Running %s on %d nodes, maxflight %d", opts.ssh, len(targets), opts.maxflight)
	g.Run()

	if opts.collapse {
		bar.Finish()
		fmt.Fprintln(stderr)
		out.print(stdout, "STDOUT")
		errs.print(stdout, "STDERR")
		exits.print(stdout, "STATUS")
	}

	if n := atomic.LoadInt32(&failed); n > 0 {
		return fmt.Errorf("%d of %d nodes failed", n, len(targets))
	}
	return nil
}

// outputBuckets groups nodes by identical output lines. gcmd calls the
// handlers from one goroutine per node.
type outputBuckets struct {
	m cmap.ConcurrentMap
}

func newOutputBuckets() outputBuckets {
	return outputBuckets{m: cmap.New()}
}

func (b outputBuckets) add(node string, line string) {
	b.m.Upsert(line, node, func(exist bool, valueInMap interface{}, newValue interface{}) interface{} {
		if !exist {
			return []string{newValue.(string)}
		}
		return append(valueInMap.([]string), newValue.(string))
	})
}

func (b outputBuckets) print(w io.Writer, label string) {
	items := b.m.Items()
	lines := make([]string, 0, len(items))
	for line := range items {
		lines = append(lines, line)
	}
	sort.Strings(lines)

	for _, line := range lines {
		names := items[line].([]string)
		sort.Sort(handysort.Strings(names))
		fmt.Fprintln(w, nodes.Collapse(names...), label, line)
	}
}

func rangeClient(v *viper.Viper) (*erg.Erg, error) {
	port, err := strconv.Atoi(v.GetString("range-port"))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port in RANGE_PORT: %s", v.GetString("range-port"))
	}
	return erg.New(v.GetString("range-host"), port), nil
}
