package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"thientai/internal/bootstrap"
	"thientai/internal/bootstrap/logging"
	"thientai/internal/errs"
	riskuc "thientai/internal/usecase/risk"
)

var sheltersCmd = &cobra.Command{
	Use:   "shelters",
	Short: "List registered evacuation shelters",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *riskuc.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		shelters, err := svc.GetShelters(ctx)
		if err != nil {
			return errs.Wrap(err, "get shelters")
		}

		for _, s := range shelters {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) - sức chứa %d, %.5f,%.5f\n",
				s.Name, s.Province, s.Capacity, s.Lat, s.Lon)
			if s.Address != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", s.Address)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d shelters\n", len(shelters))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(sheltersCmd)
}
