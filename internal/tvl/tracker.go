package tvl

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"superfest/internal/llama"
	"superfest/internal/model"
)

// ProtocolSource fetches protocol TVL histories.
type ProtocolSource interface {
	ProtocolTVL(ctx context.Context, slug string) (*llama.ProtocolPayload, error)
}

// ChainSource fetches chain TVL histories.
type ChainSource interface {
	ChainTVL(ctx context.Context, chain string) ([]llama.TVLPoint, error)
}

// ProtocolTracker follows the liquidity of protocols on specific chains.
type ProtocolTracker struct {
	source ProtocolSource
	start  int64
	logger *zap.Logger
}

func NewProtocolTracker(source ProtocolSource, start int64, logger *zap.Logger) *ProtocolTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProtocolTracker{source: source, start: start, logger: logger}
}

// Run returns the liquidity rows of every legend entry with data on or after
// the start, plus the entries that have none upstream.
func (t *ProtocolTracker) Run(ctx context.Context, legend []model.LegendEntry) ([]model.TVLRow, []model.LegendEntry, error) {
	payloads := make(map[string]*llama.ProtocolPayload)
	var rows []model.TVLRow
	var missing []model.LegendEntry

	for _, entry := range legend {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		payload, ok := payloads[entry.Protocol]
		if !ok {
			var err error
			payload, err = t.source.ProtocolTVL(ctx, entry.Protocol)
			if err != nil {
				if ctx.Err() != nil {
					return nil, nil, ctx.Err()
				}
				t.logger.Warn("protocol fetch failed", zap.String("protocol", entry.Protocol), zap.Error(err))
			}
			payloads[entry.Protocol] = payload
		}

		var points []llama.TVLPoint
		if payload != nil {
			series, err := payload.LiquiditySeries(entry.Chain)
			if err != nil {
				t.logger.Debug("no chain series", zap.String("protocol", entry.Protocol), zap.String("chain", entry.Chain), zap.Error(err))
			}
			points = filterFrom(series, t.start)
		}
		if len(points) == 0 {
			missing = append(missing, entry)
			continue
		}
		for _, p := range points {
			rows = append(rows, model.TVLRow{
				Date:      model.DateOf(p.Date),
				Timestamp: p.Date,
				Protocol:  entry.Protocol,
				Chain:     entry.Chain,
				TVL:       p.TVL,
			})
		}
	}

	ApplyDeltas(rows)
	t.logger.Info("protocol tvl tracked", zap.Int("rows", len(rows)), zap.Int("missing", len(missing)))
	return rows, missing, nil
}

// ChainTracker follows the aggregate liquidity of whole chains.
type ChainTracker struct {
	source ChainSource
	start  int64
	logger *zap.Logger
}

func NewChainTracker(source ChainSource, start int64, logger *zap.Logger) *ChainTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainTracker{source: source, start: start, logger: logger}
}

// Run returns the liquidity rows of every chain. A chain whose fetch fails is
// logged and left out.
func (t *ChainTracker) Run(ctx context.Context, chains []string) ([]model.TVLRow, error) {
	if len(chains) == 0 {
		return nil, fmt.Errorf("at least one chain is required")
	}
	var rows []model.TVLRow
	for _, chain := range chains {
		points, err := t.source.ChainTVL(ctx, chain)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			t.logger.Warn("chain fetch failed", zap.String("chain", chain), zap.Error(err))
			continue
		}
		for _, p := range filterFrom(points, t.start) {
			rows = append(rows, model.TVLRow{
				Date:      model.DateOf(p.Date),
				Timestamp: p.Date,
				Chain:     chain,
				TVL:       p.TVL,
			})
		}
	}

	ApplyDeltas(rows)
	t.logger.Info("chain tvl tracked", zap.Int("chains", len(chains)), zap.Int("rows", len(rows)))
	return rows, nil
}

type seriesKey struct {
	protocol string
	chain    string
}

// ApplyDeltas sets tvl_start to the value at the earliest timestamp and
// tvl_current to the value at the latest one, per (protocol, chain). Ties on a
// timestamp resolve to the smaller value.
func ApplyDeltas(rows []model.TVLRow) {
	type bounds struct {
		firstTS, lastTS int64
		first, last     float64
	}
	groups := make(map[seriesKey]*bounds)
	for _, row := range rows {
		key := seriesKey{row.Protocol, row.Chain}
		b := groups[key]
		if b == nil {
			groups[key] = &bounds{firstTS: row.Timestamp, lastTS: row.Timestamp, first: row.TVL, last: row.TVL}
			continue
		}
		switch {
		case row.Timestamp < b.firstTS:
			b.firstTS, b.first = row.Timestamp, row.TVL
		case row.Timestamp == b.firstTS && row.TVL < b.first:
			b.first = row.TVL
		}
		switch {
		case row.Timestamp > b.lastTS:
			b.lastTS, b.last = row.Timestamp, row.TVL
		case row.Timestamp == b.lastTS && row.TVL < b.last:
			b.last = row.TVL
		}
	}
	for i := range rows {
		b := groups[seriesKey{rows[i].Protocol, rows[i].Chain}]
		rows[i].TVLStart = b.first
		rows[i].TVLCurrent = b.last
		rows[i].TVLDelta = b.last - b.first
	}
}

func filterFrom(points []llama.TVLPoint, start int64) []llama.TVLPoint {
	out := make([]llama.TVLPoint, 0, len(points))
	for _, p := range points {
		if p.Date >= start {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
