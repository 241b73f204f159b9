package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/travelscout/internal/config"
	logpkg "github.com/kailas-cloud/travelscout/internal/logger"
)

// NewRootCmd builds the travelscout command tree.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "travelscout",
		Short:         "Retrieval-augmented travel search",
		Long:          `Answers natural-language travel queries by ranking semantically retrieved catalog items with a generative model.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("env", config.GetEnv(), "Config environment (local|dev|prod), selects config/<env>.yaml")

	rootCmd.AddCommand(
		NewServeCmd(),
		NewSearchCmd(),
	)
	return rootCmd
}

// loadRuntime reads the config for the --env flag and builds the matching logger.
func loadRuntime(cmd *cobra.Command) (string, config.Config, *zap.Logger, error) {
	env, _ := cmd.Flags().GetString("env")

	cfg, err := config.Load(env)
	if err != nil {
		return "", config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return "", config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return env, cfg, logger, nil
}
