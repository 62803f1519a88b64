package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"superfest/internal/config"
	"superfest/internal/storage"
	"superfest/internal/yields"
)

func runYields(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadYields(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	start, err := config.ParseDate(cfg.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	pools, err := config.LoadPools(cfg.Pools)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	began := time.Now()
	rows, failed, err := yields.NewTracker(newClient(cfg.Common, logger), start, logger).Run(ctx, pools)
	if err != nil {
		return err
	}
	if err := storage.WriteLocalCSV(cfg.Out, yields.Table(rows)); err != nil {
		return err
	}

	logger.Info("yields complete",
		zap.Int("rows", len(rows)),
		zap.Strings("failed_pools", failed),
		zap.String("out", cfg.Out),
		zap.Duration("elapsed", time.Since(began)),
	)
	return nil
}
