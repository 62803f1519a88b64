package yields

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"superfest/internal/llama"
	"superfest/internal/model"
	"superfest/internal/storage"
)

// Source fetches yield pool charts.
type Source interface {
	PoolChart(ctx context.Context, poolID string) ([]llama.PoolChartPoint, error)
}

// Tracker follows the TVL of configured yield pools since a start day.
type Tracker struct {
	source Source
	start  time.Time
	logger *zap.Logger
}

func NewTracker(source Source, start time.Time, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{source: source, start: start, logger: logger}
}

// Run charts every distinct pool id once, in configuration order. Pools whose
// chart cannot be fetched are returned separately.
func (t *Tracker) Run(ctx context.Context, pools []model.PoolConfig) ([]model.PoolYieldRow, []string, error) {
	seen := make(map[string]struct{}, len(pools))
	var rows []model.PoolYieldRow
	var failed []string

	for _, pool := range pools {
		if pool.PoolID == "" {
			continue
		}
		if _, ok := seen[pool.PoolID]; ok {
			continue
		}
		seen[pool.PoolID] = struct{}{}

		points, err := t.source.PoolChart(ctx, pool.PoolID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			t.logger.Warn("pool chart failed", zap.String("pool_id", pool.PoolID), zap.Error(err))
			failed = append(failed, pool.PoolID)
			continue
		}
		rows = append(rows, PoolRows(pool.PoolID, points, t.start)...)
	}

	t.logger.Info("pool yields tracked", zap.Int("pools", len(seen)), zap.Int("rows", len(rows)), zap.Int("failed", len(failed)))
	return rows, failed, nil
}

// PoolRows keeps the points at or after start and measures each against the
// TVL at the earliest kept timestamp.
func PoolRows(poolID string, points []llama.PoolChartPoint, start time.Time) []model.PoolYieldRow {
	var kept []llama.PoolChartPoint
	for _, p := range points {
		if !p.Timestamp.Before(start) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	first := kept[0]
	for _, p := range kept[1:] {
		if p.Timestamp.Before(first.Timestamp) || (p.Timestamp.Equal(first.Timestamp) && p.TVLUSD < first.TVLUSD) {
			first = p
		}
	}

	rows := make([]model.PoolYieldRow, 0, len(kept))
	for _, p := range kept {
		ts := p.Timestamp.Unix()
		rows = append(rows, model.PoolYieldRow{
			PoolID:      poolID,
			Timestamp:   ts,
			Date:        model.DateOf(ts),
			TVLUSD:      p.TVLUSD,
			APY:         p.APY,
			StartTVL:    first.TVLUSD,
			ChangeInTVL: p.TVLUSD - first.TVLUSD,
		})
	}
	return rows
}

func Table(rows []model.PoolYieldRow) storage.Table {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.PoolID,
			time.Unix(row.Timestamp, 0).UTC().Format(time.RFC3339),
			row.Date,
			formatFloat(row.TVLUSD),
			formatFloat(row.APY),
			formatFloat(row.StartTVL),
			formatFloat(row.ChangeInTVL),
		})
	}
	return storage.Table{
		Header:  []string{"pool_id", "timestamp", "date", "tvl_usd", "apy", "start_tvl", "change_in_tvl"},
		Records: records,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
