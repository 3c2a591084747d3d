package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/facekiosk/internal/config"
	"github.com/ayusman/facekiosk/internal/logging"
)

// Version is the application version.
const Version = "0.1.0"

var (
	// cfg is the configuration shared by subcommands, loaded before each runs.
	cfg        *config.Config
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "facekiosk",
	Short:         "Face recognition kiosk",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(configPath)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if err := logging.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		return nil
	},
	// Running without a subcommand starts the kiosk.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// loadConfig reads path when given, else the default locations, then
// resolves paths and checks the result.
func loadConfig(path string) (*config.Config, error) {
	var (
		c   *config.Config
		err error
	)
	if path != "" {
		c, err = config.Load(path)
	} else {
		c, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	c.ExpandPaths()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./facekiosk.yaml or ~/.config/facekiosk/facekiosk.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	addServeFlags(rootCmd)
}
