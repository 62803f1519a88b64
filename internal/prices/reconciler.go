package prices

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"superfest/internal/model"
)

// WindowSeconds is the width of the price window requested per missing date.
const WindowSeconds = 14400

// Fetcher returns historical prices for a token within [start, end].
type Fetcher interface {
	BatchHistorical(ctx context.Context, chain, address string, start, end int64) ([]model.PriceRow, error)
}

// Reconciler fills the price cache with any dates a series needs but the cache lacks.
type Reconciler struct {
	fetcher  Fetcher
	cache    *Cache
	fallback int64
	logger   *zap.Logger
}

// NewReconciler builds a Reconciler. fallbackTS is queried once per pass when a
// window comes back empty; 0 disables the retry.
func NewReconciler(fetcher Fetcher, cache *Cache, fallbackTS int64, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{fetcher: fetcher, cache: cache, fallback: fallbackTS, logger: logger}
}

// Reconcile makes sure the cache covers every date for the token, persists the
// grown cache and returns it in full. An empty result is returned as nil
// without error.
func (r *Reconciler) Reconcile(ctx context.Context, chain, address string, dates []string) ([]model.PriceRow, error) {
	cached, err := r.cache.Load(ctx)
	switch {
	case errors.Is(err, ErrCacheMiss):
		r.logger.Info("price cache empty", zap.String("archive", r.cache.name))
		cached = nil
	case err != nil:
		return nil, err
	}

	missing, err := missingStarts(cached, address, dates)
	if err != nil {
		return nil, err
	}

	r.logger.Info("price reconcile",
		zap.String("chain", chain),
		zap.String("token", address),
		zap.Int("cached", len(cached)),
		zap.Int("required_dates", len(dates)),
		zap.Int("missing_dates", len(missing)),
	)

	fresh, err := r.fetch(ctx, chain, address, missing)
	if err != nil {
		return nil, err
	}

	merged := Merge(cached, fresh)
	if len(merged) == 0 {
		r.logger.Warn("no prices available", zap.String("token", address))
		return nil, nil
	}
	// Duplicates dropped from the stored cache can hide new rows in a plain
	// length comparison.
	grew := len(merged) > len(Merge(cached, nil))
	if grew || len(merged) != len(cached) {
		if err := r.cache.Save(ctx, merged); err != nil {
			return nil, fmt.Errorf("save price cache: %w", err)
		}
	}
	return merged, nil
}

func (r *Reconciler) fetch(ctx context.Context, chain, address string, starts []int64) ([]model.PriceRow, error) {
	var fresh []model.PriceRow
	fallbackQueued := false
	for i := 0; i < len(starts); i++ {
		start := starts[i]
		rows, err := r.fetcher.BatchHistorical(ctx, chain, address, start, start+WindowSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("price window failed", zap.Int64("start", start), zap.Error(err))
			continue
		}
		if len(rows) == 0 {
			if !fallbackQueued && r.fallback > 0 {
				starts = append(starts, r.fallback)
				fallbackQueued = true
			}
			r.logger.Debug("price window empty", zap.Int64("start", start))
			continue
		}
		fresh = append(fresh, rows...)
	}
	return fresh, nil
}

// missingStarts returns the UTC midnight of every required date the cache has
// no price for, for the given token. With nothing cached for the token every
// date is missing.
func missingStarts(cached []model.PriceRow, address string, dates []string) ([]int64, error) {
	known := ForToken(cached, address)
	have := make(map[string]struct{}, len(known))
	for _, row := range known {
		have[model.DateOf(row.Timestamp)] = struct{}{}
	}

	starts := make([]int64, 0, len(dates))
	queued := make(map[string]struct{}, len(dates))
	for _, date := range dates {
		if _, ok := have[date]; ok {
			continue
		}
		if _, ok := queued[date]; ok {
			continue
		}
		queued[date] = struct{}{}
		ts, err := model.DayStart(date)
		if err != nil {
			return nil, fmt.Errorf("required date %q: %w", date, err)
		}
		starts = append(starts, ts)
	}
	return starts, nil
}
