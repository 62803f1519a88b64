package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"superfest/internal/config"
	"superfest/internal/incentive"
	"superfest/internal/llama"
	"superfest/internal/model"
	"superfest/internal/prices"
	"superfest/internal/report"
	"superfest/internal/storage"
	"superfest/internal/table"
)

// Config holds runtime settings for a report run.
type Config struct {
	Pools          string
	Incentives     string
	StartDate      string
	PriceChain     string
	IncentiveToken string
	ReferenceToken string
	ReportArchive  string
	Out            string
}

// ProtocolSource fetches protocol TVL histories.
type ProtocolSource interface {
	ProtocolTVL(ctx context.Context, slug string) (*llama.ProtocolPayload, error)
}

// Skip records a tracked pool left out of the report and why.
type Skip struct {
	Protocol string
	Chain    string
	PoolType model.PoolType
	Err      error
}

// Result summarises a finished run.
type Result struct {
	Rows    []model.ReportRow
	Skipped []Skip
}

// Runner builds the incentive report and writes its snapshot.
type Runner struct {
	cfg        Config
	source     ProtocolSource
	reconciler *prices.Reconciler
	archive    *storage.Archive
	logger     *zap.Logger
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg Config, source ProtocolSource, reconciler *prices.Reconciler, archive *storage.Archive, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		source:     source,
		reconciler: reconciler,
		archive:    archive,
		logger:     logger,
	}
}

// Run executes the pipeline end to end. The report archive is written once,
// after every other step has succeeded.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.source == nil {
		return Result{}, fmt.Errorf("protocol source is nil")
	}
	if r.reconciler == nil {
		return Result{}, fmt.Errorf("price reconciler is nil")
	}
	if r.archive == nil {
		return Result{}, fmt.Errorf("archive is nil")
	}

	began := time.Now()
	startTS, err := model.DayStart(r.cfg.StartDate)
	if err != nil {
		return Result{}, fmt.Errorf("start date: %w", err)
	}

	pools, err := config.LoadPools(r.cfg.Pools)
	if err != nil {
		return Result{}, err
	}
	incentives, err := config.LoadIncentives(r.cfg.Incentives)
	if err != nil {
		return Result{}, err
	}
	r.logger.Info("run start",
		zap.String("start_date", r.cfg.StartDate),
		zap.Int("pools", len(pools)),
		zap.Int("incentive_epochs", len(incentives)),
	)

	tvl, skipped, err := r.collectTVL(ctx, pools, startTS)
	if err != nil {
		return Result{}, err
	}
	tvl = report.KeepConfigured(tvl, pools)

	days, err := incentive.Expand(incentives)
	if err != nil {
		return Result{}, err
	}
	incentivePrices, err := r.reconciler.Reconcile(ctx, r.cfg.PriceChain, r.cfg.IncentiveToken, incentive.Dates(days))
	if err != nil {
		return Result{}, fmt.Errorf("incentive prices: %w", err)
	}
	incentive.AttachPrices(days, prices.ForToken(incentivePrices, r.cfg.IncentiveToken))

	combined := report.CombineIncentives(tvl, days)

	referencePrices, err := r.reconciler.Reconcile(ctx, r.cfg.PriceChain, r.cfg.ReferenceToken, report.Dates(tvl))
	if err != nil {
		return Result{}, fmt.Errorf("reference prices: %w", err)
	}
	reference := prices.ReferenceSeries(prices.ForToken(referencePrices, r.cfg.ReferenceToken))

	rows := report.Merge(combined, reference)
	out := report.Table(rows)
	if err := r.archive.WriteCSV(ctx, r.cfg.ReportArchive, out); err != nil {
		return Result{}, fmt.Errorf("write report snapshot: %w", err)
	}
	if r.cfg.Out != "" {
		if err := storage.WriteLocalCSV(r.cfg.Out, out); err != nil {
			return Result{}, fmt.Errorf("write local report: %w", err)
		}
	}

	r.logger.Info("run complete",
		zap.Int("rows", len(rows)),
		zap.Int("skipped", len(skipped)),
		zap.Duration("elapsed", time.Since(began)),
	)
	return Result{Rows: rows, Skipped: skipped}, nil
}

type poolKey struct {
	slug     string
	chain    string
	poolType model.PoolType
}

// collectTVL fetches each protocol once and builds the long token series of
// every distinct (protocol, chain, pool type). A failure drops only the pools
// it affects.
func (r *Runner) collectTVL(ctx context.Context, pools []model.PoolConfig, startTS int64) ([]model.TokenSeriesRow, []Skip, error) {
	payloads := make(map[string]*llama.ProtocolPayload)
	failed := make(map[string]error)
	done := make(map[poolKey]struct{})

	var rows []model.TokenSeriesRow
	var skipped []Skip
	for _, pool := range pools {
		key := poolKey{pool.ProtocolSlug, pool.Chain, pool.PoolType}
		if _, ok := done[key]; ok {
			continue
		}
		done[key] = struct{}{}

		payload, err := r.payload(ctx, pool.ProtocolSlug, payloads, failed)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			skipped = append(skipped, Skip{Protocol: pool.ProtocolSlug, Chain: pool.Chain, PoolType: pool.PoolType, Err: err})
			continue
		}

		series, err := poolRows(payload, pool, startTS)
		if err != nil {
			r.logger.Warn("pool skipped",
				zap.String("protocol", pool.ProtocolSlug),
				zap.String("chain", pool.Chain),
				zap.String("pool_type", string(pool.PoolType)),
				zap.Error(err),
			)
			skipped = append(skipped, Skip{Protocol: pool.ProtocolSlug, Chain: pool.Chain, PoolType: pool.PoolType, Err: err})
			continue
		}
		r.logger.Info("pool series",
			zap.String("protocol", pool.ProtocolSlug),
			zap.String("chain", pool.Chain),
			zap.String("pool_type", string(pool.PoolType)),
			zap.Int("rows", len(series)),
		)
		rows = append(rows, series...)
	}
	return rows, skipped, nil
}

func (r *Runner) payload(ctx context.Context, slug string, payloads map[string]*llama.ProtocolPayload, failed map[string]error) (*llama.ProtocolPayload, error) {
	if payload, ok := payloads[slug]; ok {
		return payload, nil
	}
	if err, ok := failed[slug]; ok {
		return nil, err
	}
	payload, err := r.source.ProtocolTVL(ctx, slug)
	if err != nil {
		r.logger.Warn("protocol fetch failed", zap.String("protocol", slug), zap.Error(err))
		failed[slug] = err
		return nil, err
	}
	payloads[slug] = payload
	return payload, nil
}

func poolRows(payload *llama.ProtocolPayload, pool model.PoolConfig, startTS int64) ([]model.TokenSeriesRow, error) {
	wide, err := table.PoolSeries(payload, pool.Chain, llama.CategoryTokensInUSD, pool.PoolType)
	if err != nil {
		return nil, err
	}
	wide = table.FilterFrom(wide, startTS)
	if len(wide) == 0 {
		return nil, errors.New("no observations after start date")
	}
	rows := table.ApplyBaseline(table.Melt(wide, pool.PoolType))
	table.ApplyDailyTVL(rows)
	for i := range rows {
		rows[i].Protocol = pool.ProtocolSlug
	}
	return rows, nil
}
