package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brypt-community/brypt-node/internal/config"
	"github.com/brypt-community/brypt-node/internal/logger"
	"github.com/brypt-community/brypt-node/internal/node"
)

var runConfigPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a brypt node",
	Long: `Run loads a node configuration, binds/connects its configured
endpoints, and drives the node's scheduler until interrupted.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to a YAML or JSON node configuration file")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := newLogger(cfg.Logging)

	n, err := node.New(cfg, log)
	if err != nil {
		return fmt.Errorf("construct node: %w", err)
	}

	if err := n.LoadBootstrapCache(); err != nil {
		return fmt.Errorf("load bootstrap cache: %w", err)
	}

	if !n.Router().Init() {
		return fmt.Errorf("router initialization failed")
	}

	if err := n.StartEndpoints(cfg.Endpoints); err != nil {
		return fmt.Errorf("start endpoints: %w", err)
	}

	log.Info("node started", logger.NodeID("id", n.Identity().NodeID()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := n.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("node run loop: %w", err)
	}
	return nil
}

func newLogger(cfg *config.LoggingConfig) logger.Logger {
	if cfg == nil {
		return logger.NewDefaultLogger()
	}

	level := logger.InfoLevel
	switch cfg.Level {
	case "debug":
		level = logger.DebugLevel
	case "warn":
		level = logger.WarnLevel
	case "error":
		level = logger.ErrorLevel
	case "fatal":
		level = logger.FatalLevel
	}

	var output io.Writer = os.Stdout
	if cfg.Output == "file" && cfg.FilePath != "" {
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			output = f
		}
	}

	return logger.NewLogger(output, level)
}
