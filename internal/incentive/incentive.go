package incentive

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"superfest/internal/model"
	"superfest/internal/table"
)

// EpochDays is the length of an incentive epoch.
const EpochDays = 7

var epochDivisor = decimal.NewFromInt(EpochDays)

// Expand spreads every epoch evenly across EpochDays consecutive days starting
// on the epoch date. Rows are sorted by date, chain, platform, token, pool type.
func Expand(incentives []model.Incentive) ([]model.IncentiveRow, error) {
	out := make([]model.IncentiveRow, 0, len(incentives)*EpochDays)
	for _, inc := range incentives {
		start, err := time.ParseInLocation(model.DateLayout, inc.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("incentive date %q: %w", inc.Date, err)
		}
		perDay := inc.EpochTokenIncentives.Div(epochDivisor)
		for i := 0; i < EpochDays; i++ {
			day := start.AddDate(0, 0, i)
			out = append(out, model.IncentiveRow{
				Date:                 day.Format(model.DateLayout),
				Timestamp:            day.Unix(),
				Chain:                inc.Chain,
				Platform:             inc.Platform,
				Token:                inc.Token,
				PoolType:             inc.PoolType,
				ProtocolSlug:         inc.ProtocolSlug,
				EpochTokenIncentives: inc.EpochTokenIncentives,
				IncentivesPerDay:     perDay,
				IncentivesPerDayUSD:  decimal.Zero,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Date != b.Date:
			return a.Date < b.Date
		case a.Chain != b.Chain:
			return a.Chain < b.Chain
		case a.Platform != b.Platform:
			return a.Platform < b.Platform
		case a.Token != b.Token:
			return a.Token < b.Token
		default:
			return a.PoolType < b.PoolType
		}
	})
	return out, nil
}

// Dates returns the distinct calendar dates covered by rows, ascending.
func Dates(rows []model.IncentiveRow) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0)
	for _, row := range rows {
		if _, ok := seen[row.Date]; ok {
			continue
		}
		seen[row.Date] = struct{}{}
		out = append(out, row.Date)
	}
	sort.Strings(out)
	return out
}

// AttachPrices prices each day with the nearest-in-time observation and
// values the daily incentives in USD. Rows stay in place; without any price
// the USD value stays 0.
func AttachPrices(rows []model.IncentiveRow, prices []model.PriceRow) {
	table.JoinNearest(rows, prices,
		func(r model.IncentiveRow) int64 { return r.Timestamp },
		func(p model.PriceRow) int64 { return p.Timestamp },
		func(r *model.IncentiveRow, p model.PriceRow, ok bool) {
			if !ok {
				r.Price = 0
				r.IncentivesPerDayUSD = decimal.Zero
				return
			}
			r.Price = p.Price
			r.IncentivesPerDayUSD = r.IncentivesPerDay.Mul(decimal.NewFromFloat(p.Price))
		},
	)
}
