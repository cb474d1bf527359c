package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"thientai/internal/bootstrap/logging"
	"thientai/internal/errs"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "thientai",
	Short:        "Disaster-risk scoring and alert engine",
	Long:         "Scores weather/storm/terrain inputs into risk levels, clusters hazard alerts and keeps the full decision trail in an embedded SQLite store.",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logger := slog.New(slog.NewTextHandler(rootCmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	ctx = logging.WithLogger(ctx, logger)
	ctx = logging.WithAttrs(ctx, slog.String("app", "thientai"))

	rootCmd.SetContext(ctx)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error(ctx, "command execution failed", slog.Any("err", errs.Loggable(err)))
		return errs.Wrap(err, "execute root command")
	}

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "Config file path")
}
