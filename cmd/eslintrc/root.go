package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgPath       string
	fragmentsOnly bool
	logLevel      string
	logFormat     string
)

var rootCmd = &cobra.Command{
	Use:   "eslintrc",
	Short: "Resolve cascading linter configuration",
	Long: `eslintrc resolves cascading .eslintrc-style configuration into the
effective configuration for a target file. It flattens extends chains and
overrides blocks, walks directory cascades, and can watch the contributing
config sources for changes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Set up logger
		var level zapcore.Level
		if err := level.Set(logLevel); err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}

		var cfg zap.Config
		if logFormat == "json" {
			cfg = zap.NewProductionConfig()
		} else {
			cfg = zap.NewDevelopmentConfig()
			// More human-readable time format for text logs
			cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		}

		cfg.Level = zap.NewAtomicLevelAt(level)
		logger, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}

		zap.ReplaceGlobals(logger)
		return nil
	},
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "resolve this config file instead of walking the directory cascade")
	rootCmd.PersistentFlags().BoolVar(&fragmentsOnly, "fragments", false, "print the resolved fragment sequence instead of the extracted config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
}
