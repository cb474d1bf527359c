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

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded risk events",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *riskuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		limit, _ := cmd.Flags().GetInt("limit")
		items, err := svc.GetHistory(ctx, limit)
		if err != nil {
			return errs.Wrap(err, "get history")
		}

		for _, item := range items {
			fav := " "
			if item.Favorite {
				fav = "★"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s #%d [%d] %s - %s (%s) %s\n",
				fav, item.HistoryID, item.RiskLevel, item.RiskType, item.Title, item.Province,
				item.CreatedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d entries\n", len(items))
		return nil
	}),
}

var historyDetailCmd = &cobra.Command{
	Use:   "detail <id>",
	Short: "Show one history entry with its full decision trail",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *riskuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, err := strconv.ParseUint(cmd.Flags().Args()[0], 10, 64)
		if err != nil {
			return errs.Wrap(err, "parse history id")
		}

		detail, err := svc.GetHistoryDetail(ctx, id)
		if err != nil {
			return errs.Wrapf(err, "get history detail %d", id)
		}

		h := detail.History
		fmt.Fprintf(cmd.OutOrStdout(), "#%d [%d] %s - %s (%s)\n",
			h.HistoryID, h.RiskLevel, h.RiskType, h.Title, h.Province)
		if detail.Analysis != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "  score=%.1f confidence=%.2f terrain=%s soil=%s\n",
				detail.Analysis.Score, detail.Analysis.Confidence,
				detail.Analysis.TerrainKind, detail.Analysis.SoilKind)
		}
		if detail.Rain != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "  rain: 1h=%.0f 3h=%.0f 24h=%.0f 3d=%.0f (mm)\n",
				detail.Rain.H1, detail.Rain.H3, detail.Rain.H24, detail.Rain.D3)
		}
		for _, reason := range detail.Reasons {
			fmt.Fprintf(cmd.OutOrStdout(), "  - [%s] %s (%.1f)\n", reason.Code, reason.Description, reason.Score)
		}
		return nil
	}),
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one history entry",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *riskuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, err := strconv.ParseUint(cmd.Flags().Args()[0], 10, 64)
		if err != nil {
			return errs.Wrap(err, "parse history id")
		}
		if err := svc.DeleteHistory(ctx, id); err != nil {
			return errs.Wrapf(err, "delete history %d", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "history entry %d deleted\n", id)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyDetailCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.Flags().Int("limit", 50, "Maximum entries to list")
}
