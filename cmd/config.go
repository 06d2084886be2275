// Copyright (c) 2014 Square, Inc

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/square/nodeattr/groups"
	"github.com/square/nodeattr/store"
)

const envPrefix = "NODEATTR_"

func envName(name string) string {
	return envPrefix + strings.ToUpper(strings.Replace(name, "-", "_", -1))
}

// stringConfig adds a persistent string flag that can also be set from the
// environment.
func stringConfig(v *viper.Viper, cmd *cobra.Command, name, short, value, description string, env ...string) {
	cmd.PersistentFlags().StringP(name, short, value, description)
	bind(v, cmd, name, env)
}

func boolConfig(v *viper.Viper, cmd *cobra.Command, name, short string, value bool, description string) {
	cmd.PersistentFlags().BoolP(name, short, value, description)
	bind(v, cmd, name, nil)
}

func intConfig(v *viper.Viper, cmd *cobra.Command, name, short string, value int, description string, env ...string) {
	cmd.PersistentFlags().IntP(name, short, value, description)
	bind(v, cmd, name, env)
}

func bind(v *viper.Viper, cmd *cobra.Command, name string, env []string) {
	err := v.BindPFlag(name, cmd.PersistentFlags().Lookup(name))
	if err != nil {
		log.Warnf("Could not bind flag to viper: %v", err)
	}
	err = v.BindEnv(append([]string{name, envName(name)}, env...)...)
	if err != nil {
		log.Warnf("Could not bind viper value to env: %v", err)
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nodeattr"
	}
	return filepath.Join(home, ".nodeattr")
}

func openStore(v *viper.Viper) (store.Store, error) {
	kind, path := v.GetString("store"), v.GetString("path")
	if kind == "bolt" {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, err
		}
		path = filepath.Join(path, "nodeattr.db")
	}
	log.Debugf("Opening %s store at %s", kind, path)
	return store.Open(kind, path)
}

// withConfig runs fn on the selected cluster, saving changes when update is
// set.
func withConfig(ctx context.Context, v *viper.Viper, update bool, fn func(*groups.Config) error) error {
	st, err := openStore(v)
	if err != nil {
		return err
	}
	defer st.Close()

	cluster := v.GetString("cluster")
	if update {
		return groups.Update(ctx, st, cluster, fn)
	}
	return groups.View(ctx, st, cluster, fn)
}
