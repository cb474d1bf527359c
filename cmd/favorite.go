package cmd

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"thientai/internal/bootstrap"
	"thientai/internal/bootstrap/logging"
	"thientai/internal/errs"
	riskuc "thientai/internal/usecase/risk"
)

var favoriteCmd = &cobra.Command{
	Use:   "favorite <id>",
	Short: "Toggle the pinned flag on a history entry",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *riskuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, err := strconv.ParseUint(cmd.Flags().Args()[0], 10, 64)
		if err != nil {
			return errs.Wrap(err, "parse history id")
		}

		pinned, err := svc.ToggleFavorite(ctx, id)
		if err != nil {
			return errs.Wrapf(err, "toggle favorite %d", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "history entry %d favorite=%t\n", id, pinned)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(favoriteCmd)
}
