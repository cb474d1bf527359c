package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"thientai/internal/bootstrap"
	"thientai/internal/bootstrap/logging"
	domainrisk "thientai/internal/domain/risk"
	"thientai/internal/errs"
	"thientai/internal/infrastructure/filesource"
	"thientai/internal/ports"
	riskuc "thientai/internal/usecase/risk"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score one location and persist the decision trail",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *riskuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		title, _ := cmd.Flags().GetString("title")
		province, _ := cmd.Flags().GetString("province")
		elevation, _ := cmd.Flags().GetFloat64("elevation")

		source := filesource.New(app.Config.Collector.DataFile)
		weather, err := source.FetchWeather(ctx, lat, lon)
		if err != nil {
			return errs.Wrap(err, "fetch weather")
		}

		// Without an explicit title, label the pick from the data set.
		var subtitle string
		if !cmd.Flags().Changed("title") {
			if resolved, sub, gerr := source.ResolveAddress(ctx, lat, lon); gerr == nil {
				title, subtitle = resolved, sub
			} else {
				logging.Warn(ctx, "address resolution failed, keeping default title",
					slog.Any("err", errs.Loggable(gerr)))
			}
		}

		storm := domainrisk.NoStorm()
		if tracks, err := source.FetchStormTracks(ctx); err != nil {
			logging.Warn(ctx, "storm track fetch failed, scoring without storm data",
				slog.Any("err", errs.Loggable(err)))
		} else {
			storm = riskuc.NearestStorm(tracks, lat, lon)
		}

		result, err := svc.Analyze(ctx, riskuc.AnalyzeInput{
			Location: ports.LocationRecord{
				Lat:       lat,
				Lon:       lon,
				Title:     title,
				Subtitle:  subtitle,
				Province:  province,
				Elevation: elevation,
			},
			Weather: weather,
			Storm:   storm,
		})
		if err != nil {
			return errs.Wrap(err, "analyze location")
		}

		a := result.Assessment
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%.4f, %.4f)\n", title, lat, lon)
		fmt.Fprintf(cmd.OutOrStdout(), "  score=%.1f level=%d (%s) confidence=%.2f persisted=%t\n",
			a.Score, a.Level, a.Label, a.Confidence, result.Persisted)
		fmt.Fprintf(cmd.OutOrStdout(), "  weather=%.1f storm=%.1f terrain=%.1f\n",
			a.WeatherScore, a.StormScore, a.TerrainScore)
		for _, reason := range a.Reasons {
			fmt.Fprintf(cmd.OutOrStdout(), "  - [%s] %s (%.1f)\n", reason.Code, reason.Description, reason.Score)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Float64("lat", 0, "Latitude")
	analyzeCmd.Flags().Float64("lon", 0, "Longitude")
	analyzeCmd.Flags().String("title", "Vị trí đã chọn", "Location title")
	analyzeCmd.Flags().String("province", "", "Province label")
	analyzeCmd.Flags().Float64("elevation", 0, "Elevation in metres")
	_ = analyzeCmd.MarkFlagRequired("lat")
	_ = analyzeCmd.MarkFlagRequired("lon")
}
