package main

import (
	"context"
	"log/slog"
	"time"
	"versionhistory/internal/components/chrono"
	"versionhistory/internal/components/serviceutil"
	"versionhistory/internal/components/telemetry"
	"versionhistory/internal/config"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string

	cfg    config.Config
	tel    telemetry.API = telemetry.SlogAPI{}
	clock  chrono.API    = chrono.NewStandardImpl(nil)
	otelrt telemetry.Otel
)

var rootCmd = &cobra.Command{
	Use:           "versionhistory",
	Short:         "versionhistory scrapes release histories into version ordered csv ledgers.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		otelrt, err = telemetry.SetupOtel(cmd.Context(), "versionhistory", cfg.Telemetry)
		if err != nil {
			serviceutil.Fatal("setup otel", err)
		}
		if otelrt.MeterProvider != nil {
			otelApi, err := telemetry.NewOtelAPI(telemetry.SlogAPI{}, otelrt.MeterProvider.Meter("versionhistory"))
			if err != nil {
				serviceutil.Fatal("setup otel metrics", err)
			}
			tel = otelApi
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdown()
	},
}

// shutdown flushes the otel exporters, it is also called before exiting
// on a failed run since PersistentPostRun does not run then.
func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := otelrt.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to shutdown otel", "err", err)
	}
	otelrt = telemetry.Otel{}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging/instrumentation.")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file, "+config.FileName+" is looked up from the cwd by default.")
}
