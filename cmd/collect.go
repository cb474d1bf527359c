package cmd

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"thientai/internal/bootstrap"
	"thientai/internal/bootstrap/logging"
	"thientai/internal/errs"
	"thientai/internal/infrastructure/filesource"
	"thientai/internal/infrastructure/persistence/schema"
	"thientai/internal/observability"
	"thientai/internal/usecase/collector"
	riskuc "thientai/internal/usecase/risk"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run the background scan and retention loop until interrupted",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *riskuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		watchpoints, err := schema.Watchpoints()
		if err != nil {
			return errs.Wrap(err, "load watchpoints")
		}

		source := filesource.New(app.Config.Collector.DataFile)
		col, err := collector.New(svc, source, source, observability.NewMetrics(), clockwork.NewRealClock(), watchpoints, collector.Config{
			ScanInterval:      app.Config.Collector.ScanInterval,
			RetentionInterval: app.Config.Collector.RetentionInterval,
		})
		if err != nil {
			return errs.Wrap(err, "build collector")
		}

		runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := col.Start(runCtx); err != nil {
			return errs.Wrap(err, "start collector")
		}
		<-runCtx.Done()
		col.Stop()

		if _, err := fmt.Fprintln(cmd.OutOrStdout(), "collector stopped"); err != nil {
			return errs.Wrap(err, "write collect output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(collectCmd)
}
