// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command agent runs one Agent Execution Core driver loop for a single
// (agent_kind, session_id, agent_id) triple.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cycleforge/agentcore/internal/log"
	"github.com/cycleforge/agentcore/internal/version"
	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/types"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:     "agent <trading|marketing> <session_id> <agent_id>",
	Short:   "Agent Execution Core driver",
	Long:    "agent runs a single trading or marketing cycle driver loop to completion, reading its back-end configuration from the environment.",
	Version: version.Get(),
	Args:    cobra.ExactArgs(3),
	RunE:    runAgent,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// buildLogger constructs the process-wide zap.Logger for --log-level and
// installs it as internal/log's global logger, so every package that
// logs through log.Debug/log.Info/etc. shares this run's configuration.
func buildLogger() (*zap.Logger, error) {
	var cfg zap.Config
	switch logLevel {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}
	if lvl, err := zap.ParseAtomicLevel(logLevel); err == nil {
		cfg.Level = lvl
	}
	built, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	log.SetLogger(built)
	return built, nil
}

func runAgent(cmd *cobra.Command, args []string) error {
	kindArg, sessionID, agentID := args[0], args[1], args[2]

	var agentKind types.AgentKind
	switch kindArg {
	case "trading":
		agentKind = types.AgentKindTrading
	case "marketing":
		agentKind = types.AgentKindMarketing
	default:
		err := agenterr.New(agenterr.KindConfig, "runAgent", fmt.Errorf("unknown agent kind %q (want trading or marketing)", kindArg))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := buildLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck
	log.Debug("logger initialized", zap.String("log_level", logLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	driver, closeFn, err := buildDriver(ctx, agentKind, sessionID, agentID, logger)
	if err != nil {
		logger.Error("failed to configure driver", zap.Error(err))
		os.Exit(1)
	}
	defer closeFn()

	logger.Info("starting driver loop",
		zap.String("agent_kind", string(agentKind)),
		zap.String("session_id", sessionID),
		zap.String("agent_id", agentID))

	if err := driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("driver loop exited with error", zap.Error(err))
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
