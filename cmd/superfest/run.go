package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"superfest/internal/config"
	"superfest/internal/pipeline"
	"superfest/internal/prices"
	"superfest/internal/storage"
)

func runReport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRun(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	client := newClient(cfg.Common, logger)
	archive := storage.NewArchive(store)
	reconciler := prices.NewReconciler(client, prices.NewCache(archive, cfg.PriceArchive), cfg.FallbackTimestamp, logger)

	runner := pipeline.NewRunner(pipeline.Config{
		Pools:          cfg.Pools,
		Incentives:     cfg.Incentives,
		StartDate:      cfg.StartDate,
		PriceChain:     cfg.PriceChain,
		IncentiveToken: cfg.IncentiveToken,
		ReferenceToken: cfg.ReferenceToken,
		ReportArchive:  cfg.ReportArchive,
		Out:            cfg.Out,
	}, client, reconciler, archive, logger)

	logger.Info("report start",
		zap.String("store", cfg.Store.Kind),
		zap.String("pools", cfg.Pools),
		zap.String("incentives", cfg.Incentives),
		zap.String("price_archive", cfg.PriceArchive),
		zap.String("report_archive", cfg.ReportArchive),
		zap.Duration("cooldown", cfg.Cooldown),
	)

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	for _, skip := range result.Skipped {
		logger.Warn("pool not in report",
			zap.String("protocol", skip.Protocol),
			zap.String("chain", skip.Chain),
			zap.String("pool_type", string(skip.PoolType)),
			zap.Error(skip.Err),
		)
	}
	return nil
}
