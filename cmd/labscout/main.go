// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the labscout CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/labscout/internal/logging"
	"github.com/pdiddy/labscout/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	logger = zap.NewNop()

	// loadedSecrets is filled from --secrets-dir and the environment before
	// any subcommand runs.
	loadedSecrets secrets.Set

	// configErr records a config file that exists but could not be parsed.
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "labscout",
	Short: "Find and rank academic papers related to your lab's research",
	Long: `labscout turns a free-text research description into a structured query,
searches several academic databases concurrently, and ranks the combined
candidates by semantic similarity, topic overlap, methodology, citations,
recency and DOI verification.

Results can be saved per project and exported for reference managers.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { _ = logger.Sync() },
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./labscout.yaml or ~/.config/labscout/labscout.yaml)")
	flags.String("secrets-dir", ".secrets/", "directory of credential files, one key per file")
	flags.BoolP("verbose", "v", false, "debug logging")
}

// setup builds the logger and loads credentials for every subcommand.
func setup(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	l, err := logging.New(verbose)
	if err != nil {
		return err
	}
	logger = l

	if configErr != nil {
		return configErr
	}
	if f := viper.ConfigFileUsed(); f != "" {
		logger.Debug("config loaded", zap.String("path", f))
	}

	dir, _ := cmd.Flags().GetString("secrets-dir")
	stored, err := secrets.Load(dir, logger)
	if err != nil {
		return err
	}
	loadedSecrets = stored.WithEnv(os.Getenv)
	logger.Debug("credentials available", zap.Strings("keys", loadedSecrets.Keys()))
	return nil
}

func initConfig() {
	v := viper.GetViper()
	if path, _ := rootCmd.PersistentFlags().GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("labscout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "labscout"))
		}
	}

	v.SetEnvPrefix("LABSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		configErr = fmt.Errorf("reading config: %w", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
