// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

// Package commands holds the zonectl cobra command tree.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/zonevalue/internal/app"
	"github.com/tomtom215/zonevalue/internal/config"
	"github.com/tomtom215/zonevalue/internal/logging"
)

var (
	configPath string
	verbose    bool
	cacheOff   bool

	cfg *config.Config
)

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "zonectl",
		Short:         "Assessed land value lookups from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				if err := os.Setenv(config.ConfigPathEnvVar, configPath); err != nil {
					return err
				}
			}

			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			cfg = loaded

			level := "warn"
			if verbose {
				level = "debug"
			}
			if cmd.Name() == "serve" {
				level = cfg.Logging.Level
			}
			logging.Init(logging.Config{
				Level:     level,
				Format:    "console",
				Timestamp: true,
				Output:    cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or ./config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")
	root.PersistentFlags().BoolVar(&cacheOff, "no-cache", false, "use a private in-memory cache instead of the configured backend")

	root.AddCommand(lookupCmd(), zipCmd(), statusCmd(), configCmd(), serveCmd())
	return root
}

// openApp builds the relay for a one-shot command.
func openApp(cmd *cobra.Command) (*app.App, error) {
	c := *cfg
	if cacheOff {
		c.Cache.Backend = "memory"
	}
	return app.New(cmd.Context(), &c)
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
