package cmd

import (
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"thientai/internal/bootstrap"
	"thientai/internal/bootstrap/logging"
	"thientai/internal/errs"
	"thientai/internal/infrastructure/filesource"
	"thientai/internal/infrastructure/persistence/schema"
	"thientai/internal/usecase/collector"
	riskuc "thientai/internal/usecase/risk"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one national scan cycle and print the resulting alerts",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *riskuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		watchpoints, err := schema.Watchpoints()
		if err != nil {
			return errs.Wrap(err, "load watchpoints")
		}

		source := filesource.New(app.Config.Collector.DataFile)
		col, err := collector.New(svc, source, source, nil, clockwork.NewRealClock(), watchpoints, collector.Config{
			ScanInterval:      app.Config.Collector.ScanInterval,
			RetentionInterval: app.Config.Collector.RetentionInterval,
		})
		if err != nil {
			return errs.Wrap(err, "build collector")
		}

		if err := col.ScanOnce(ctx); err != nil {
			return errs.Wrap(err, "run scan cycle")
		}

		alerts, err := svc.ListAlerts(ctx)
		if err != nil {
			return errs.Wrap(err, "list alerts")
		}
		for _, a := range alerts {
			marker := " "
			if a.IsCluster {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s [%d] %s (%s) %s\n",
				marker, a.Level, a.LocationName, a.Province, a.Description)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d alert(s)\n", len(alerts))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
