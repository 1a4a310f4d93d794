package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scaleworks/libralog/internal/config"
	"github.com/scaleworks/libralog/internal/generator"
	"github.com/scaleworks/libralog/internal/store/postgres"
	"github.com/spf13/cobra"
)

var (
	genMode     string
	genCount    int
	genInterval time.Duration
	genDuration time.Duration
	genDevice   string
	genSeed     int64
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate synthetic scale events",
	Long: `gen writes synthetic events to the store for testing the monitor
and dashboards.

Modes:
  single      insert one event and exit
  batch       insert --count events spread over the last hour
  continuous  insert events every --interval until interrupted
  scenario    simulate one scale weighing an ingredient for --duration`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		gen := generator.New(store, cfg.Devices, genSeed, logger)
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		switch genMode {
		case "single":
			return gen.Single(ctx)
		case "batch":
			return gen.Batch(ctx, genCount, time.Hour)
		case "continuous":
			err := gen.Continuous(ctx, genInterval)
			if err == context.Canceled {
				return nil
			}
			return err
		case "scenario":
			err := gen.Scenario(ctx, genDevice, genDuration)
			if err == context.Canceled {
				return nil
			}
			return err
		default:
			return fmt.Errorf("unknown mode %q (must be single, batch, continuous, or scenario)", genMode)
		}
	},
}

func init() {
	genCmd.Flags().StringVar(&genMode, "mode", "single", "generation mode (single, batch, continuous, scenario)")
	genCmd.Flags().IntVar(&genCount, "count", 100, "number of events for batch mode")
	genCmd.Flags().DurationVar(&genInterval, "interval", 2*time.Second, "interval between events for continuous mode")
	genCmd.Flags().DurationVar(&genDuration, "duration", 5*time.Minute, "scenario duration")
	genCmd.Flags().StringVar(&genDevice, "device", "", "device key for scenario mode (random if empty)")
	genCmd.Flags().Int64Var(&genSeed, "seed", 0, "random seed (0 = time-based)")
}
