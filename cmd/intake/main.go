package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chillerops/backend/internal/config"
	"github.com/chillerops/backend/internal/console"
	"github.com/chillerops/backend/internal/logging"
	"github.com/chillerops/backend/internal/metrics"
	"github.com/chillerops/backend/internal/relay"
	"github.com/chillerops/backend/internal/repository/postgres"
	"github.com/chillerops/backend/internal/service"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "intake",
	Short:        "Interactive chiller plant intake wizard",
	SilenceUsage: true,
	Long:         "Collects plant readings step by step, submits them to the prediction service and prints the results with current weather.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		// logs go to stderr and stay quiet unless asked for
		level, _ := cmd.Flags().GetString("log-level")
		logger, err := logging.New(cfg.Env, level)
		if err != nil {
			return err
		}
		zap.ReplaceGlobals(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		prefill, _ := cmd.Flags().GetBool("prefill")
		if url, _ := cmd.Flags().GetString("prediction-url"); url != "" {
			cfg.PredictionServiceURL = url
		}

		ctx := cmd.Context()
		dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		repo, closeDB := postgres.Open(dbCtx, cfg.DatabaseURL)
		cancel()
		defer closeDB()

		m := metrics.New(prometheus.NewRegistry())
		rl := relay.New(cfg.TransferTTL)
		intakeSvc := service.NewIntakeService(
			service.NewPredictionClient(cfg.PredictionServiceURL, cfg.PredictionTimeout),
			rl, repo, m, cfg.SessionTTL,
		)
		resultsSvc := service.NewResultsService(
			rl,
			service.NewWeatherService(cfg.WeatherAPIKey, cfg.WeatherBaseURL, cfg.WeatherRatePerSec, cfg.WeatherTimeout),
			repo, m,
		)

		err := console.New(intakeSvc, resultsSvc, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx, prefill)
		intakeSvc.WaitBackground()
		resultsSvc.WaitBackground()
		return err
	},
}

func init() {
	rootCmd.Flags().Bool("prefill", false, "start from the sample Vellore reading")
	rootCmd.Flags().String("prediction-url", "", "override PREDICTION_SERVICE_URL")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
