package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/fenixforecast/annualref/config"
	"github.com/fenixforecast/annualref/service"
	"github.com/fenixforecast/annualref/store"
)

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run <building-id>",
		Short: "Train and persist annual references for one building",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buildingID := args[0]

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)

			refStart, refEnd, predStart, predEnd, err := cfg.ParseWindows()
			if err != nil {
				return err
			}

			if cfg.Metrics.Enabled {
				go func() {
					mux := http.NewServeMux()
					mux.Handle("/metrics", promhttp.Handler())
					if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
						logger.Warn().Err(err).Msg("metrics server stopped")
					}
				}()
			}

			st, err := store.New(cmd.Context(), cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer st.Close()

			runner := service.NewRunner(st, logger, cfg.Workers)
			res, err := runner.RunBuilding(cmd.Context(), buildingID, service.Windows{
				RefStart:  refStart,
				RefEnd:    refEnd,
				PredStart: predStart,
				PredEnd:   predEnd,
			})
			if err != nil {
				return err
			}

			for _, r := range res.Results {
				line := fmt.Sprintf("%s %s: %s", r.PDL, r.Fluid, r.Status)
				if r.Model != nil {
					line += fmt.Sprintf(" (annual reference %.2f)", r.Model.AnnualReference)
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d pairs trained\n", res.RunID, len(res.Results))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML configuration")
	return cmd
}
