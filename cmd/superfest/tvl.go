package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"superfest/internal/config"
	"superfest/internal/tvl"
)

func runProtocolTVL(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadTVL(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	start, err := config.ParseDate(cfg.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	legend, err := config.LoadLegend(cfg.Legend)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	began := time.Now()
	tracker := tvl.NewProtocolTracker(newClient(cfg.Common, logger), start.Unix(), logger)
	rows, missing, err := tracker.Run(ctx, legend)
	if err != nil {
		return err
	}

	written, err := tvl.WriteProtocolReport(cfg.OutDir, time.Now(), rows, missing)
	if err != nil {
		return err
	}
	logger.Info("protocol tvl complete",
		zap.Int("legend", len(legend)),
		zap.Int("rows", len(rows)),
		zap.Int("missing", len(missing)),
		zap.Strings("files", written),
		zap.Duration("elapsed", time.Since(began)),
	)
	return nil
}

func runChainTVL(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadTVL(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	start, err := config.ParseDate(cfg.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()

	began := time.Now()
	tracker := tvl.NewChainTracker(newClient(cfg.Common, logger), start.Unix(), logger)
	rows, err := tracker.Run(ctx, cfg.Chains)
	if err != nil {
		return err
	}

	path, err := tvl.WriteChainReport(cfg.OutDir, time.Now(), rows)
	if err != nil {
		return err
	}
	logger.Info("chain tvl complete",
		zap.Strings("chains", cfg.Chains),
		zap.Int("rows", len(rows)),
		zap.String("file", path),
		zap.Duration("elapsed", time.Since(began)),
	)
	return nil
}
