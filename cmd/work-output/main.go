// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the work-output CLI. It serves the
// dashboard API and offers one-shot fetch, summarize, and history commands.
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/work-output/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built in the root PersistentPreRunE and shared by every command.
var logger = zap.NewNop()

// rootCmd is the base command for the work-output CLI.
var rootCmd = &cobra.Command{
	Use:   "work-output",
	Short: "Aggregate your pull requests, docs, tickets, and interviews",
	Long: `work-output collects the work artifacts a person produced in a date range
from GitHub, Confluence, Jira, and Greenhouse, summarizes them, and serves the
result to the dashboard.

Configuration comes from environment variables (GITHUB_TOKEN, ATLASSIAN_URL,
...), a work-output.yaml file, a .env file, and credential files in .secrets/.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := newLogger(viper.GetString("log_level"), verbose)
		if err != nil {
			return err
		}
		logger = l

		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		if applied := secrets.Apply(s, viper.SetDefault); len(applied) > 0 {
			logger.Debug("loaded secrets", zap.Strings("keys", applied))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./work-output.yaml or ~/.config/work-output/work-output.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("work-output")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "work-output"))
		}
	}

	setConfigDefaults(viper.GetViper())
	loadDotEnv(viper.GetViper(), ".env")

	bindEnv(viper.GetViper())

	_ = viper.ReadInConfig()
}

// bindEnv maps every config key to its upper-cased environment variable.
func bindEnv(v *viper.Viper) {
	for _, key := range configKeys {
		_ = v.BindEnv(key, strings.ToUpper(key))
	}
	v.AutomaticEnv()
}

// loadDotEnv merges KEY=value pairs from path as defaults, below environment
// variables and the config file.
func loadDotEnv(v *viper.Viper, path string) {
	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("dotenv")
	if err := env.ReadInConfig(); err != nil {
		return
	}
	for _, key := range env.AllKeys() {
		v.SetDefault(strings.ToLower(key), env.Get(key))
	}
}

// newLogger builds a production JSON logger at level, or debug when verbose.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
