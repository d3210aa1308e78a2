// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

// Command r2a converts ROS 2 messages into Apache Arrow data.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/istvan-fodor/r2a/internal/config"
	"github.com/istvan-fodor/r2a/internal/logging"
	"github.com/istvan-fodor/r2a/msgdef"
	"github.com/istvan-fodor/r2a/msgs"
	"github.com/istvan-fodor/r2a/r2a"
)

var version = "0.1.0"

// bindPrefix marks a command annotation that binds a flag to a config key.
const bindPrefix = "config:"

// app is the state shared by every command once configuration is loaded.
type app struct {
	configFile string
	logLevel   string

	cfg      *config.Config
	logger   *zap.Logger
	registry *r2a.Registry
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "r2a",
		Short: "Convert ROS 2 messages to Apache Arrow",
		Long: `r2a maps ROS 2 message types onto Arrow schemas and converts messages
into Arrow record batches, parquet files and IPC streams.

Configuration is read from --config (YAML), then R2A_* environment
variables (R2A_SINK_PATH for sink.path), then command line flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newVersionCommand(),
		newSchemasCommand(a),
		newDescribeCommand(a),
		newConvertCommand(a),
		newRecordCommand(a),
		newServeCommand(a),
	)
	return root
}

// bindFlag records that flag overrides key for cmd.
func bindFlag(cmd *cobra.Command, flag, key string) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[bindPrefix+flag] = key
}

// init loads configuration, builds the logger and the registry.
func (a *app) init(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if err := loader.BindFlag("log.level", cmd.Flags().Lookup("log-level")); err != nil {
		return err
	}
	for k, key := range cmd.Annotations {
		if flag, ok := strings.CutPrefix(k, bindPrefix); ok {
			if err := loader.BindFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return err
			}
		}
	}
	cfg, err := loader.Load(a.configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if a.logger, err = logging.New(cfg.Log); err != nil {
		return err
	}
	r2a.SetLogger(a.logger)

	a.registry = msgs.NewRegistry()
	if len(cfg.Definitions) > 0 {
		defs, err := msgdef.Load(cfg.Definitions...)
		if err != nil {
			return fmt.Errorf("loading definitions: %w", err)
		}
		if err := a.registry.RegisterDefinitions(defs...); err != nil {
			return err
		}
		a.logger.Debug("registered definitions", zap.Int("count", len(defs)))
	}
	return nil
}
