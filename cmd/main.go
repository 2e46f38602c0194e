package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yakoovad/perftest-admin/internal/config"
	"github.com/yakoovad/perftest-admin/pkg/logger"
	"go.uber.org/zap"
)

var version = "dev"

// app holds what every command needs: the loaded config and a logger.
type app struct {
	configFile string

	cfg    *config.Config
	logger *zap.Logger
}

func (a *app) init(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}

	l, err := logger.NewLogger(logger.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Development(),
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = l
	return nil
}

func (a *app) close(_ *cobra.Command, _ []string) {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "perftest-admin",
		Short:        "Performance test management backend",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "path to a YAML config file")

	for _, cmd := range []*cobra.Command{
		newServeCommand(a),
		newMigrateCommand(a),
		newCreateUserCommand(a),
	} {
		cmd.PreRunE = a.init
		cmd.PostRun = a.close
		root.AddCommand(cmd)
	}
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
