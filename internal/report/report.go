package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"superfest/internal/model"
)

// KeepConfigured drops rows whose token is not configured for their protocol,
// and rows of protocols with no configuration at all.
func KeepConfigured(rows []model.TokenSeriesRow, pools []model.PoolConfig) []model.TokenSeriesRow {
	tokens := make(map[string]map[string]struct{})
	for _, pool := range pools {
		set := tokens[pool.ProtocolSlug]
		if set == nil {
			set = make(map[string]struct{})
			tokens[pool.ProtocolSlug] = set
		}
		set[pool.Token] = struct{}{}
	}

	out := make([]model.TokenSeriesRow, 0, len(rows))
	for _, row := range rows {
		if _, ok := tokens[row.Protocol][row.Token]; ok {
			out = append(out, row)
		}
	}
	return out
}

type incentiveKey struct {
	protocol string
	token    string
	poolType model.PoolType
	date     string
}

// CombineIncentives left joins incentive days onto the TVL rows on protocol,
// token, pool type and date. Every TVL row survives; one with no matching
// incentive carries zero incentives. A TVL row matching several incentive
// rows is repeated once per match.
func CombineIncentives(tvl []model.TokenSeriesRow, incentives []model.IncentiveRow) []model.ReportRow {
	byKey := make(map[incentiveKey][]model.IncentiveRow, len(incentives))
	for _, inc := range incentives {
		key := incentiveKey{inc.ProtocolSlug, inc.Token, inc.PoolType, inc.Date}
		byKey[key] = append(byKey[key], inc)
	}

	out := make([]model.ReportRow, 0, len(tvl))
	for _, row := range tvl {
		matches := byKey[incentiveKey{row.Protocol, row.Token, row.PoolType, row.Date}]
		if len(matches) == 0 {
			out = append(out, model.ReportRow{
				TokenSeriesRow:       row,
				EpochTokenIncentives: decimal.Zero,
				IncentivesPerDay:     decimal.Zero,
				IncentivesPerDayUSD:  decimal.Zero,
			})
			continue
		}
		for _, inc := range matches {
			out = append(out, model.ReportRow{
				TokenSeriesRow:       row,
				EpochTokenIncentives: inc.EpochTokenIncentives,
				IncentivesPerDay:     inc.IncentivesPerDay,
				Price:                inc.Price,
				IncentivesPerDayUSD:  inc.IncentivesPerDayUSD,
			})
		}
	}
	return out
}

// Merge attaches the reference price of each row's date, orders the report
// chronologically and forward fills dates the reference series does not
// cover. Rows before the first covered date keep a nil reference.
func Merge(rows []model.ReportRow, reference []model.ReferencePrice) []model.ReportRow {
	byDate := make(map[string]model.ReferencePrice, len(reference))
	for _, ref := range reference {
		if _, ok := byDate[ref.Date]; !ok {
			byDate[ref.Date] = ref
		}
	}

	out := make([]model.ReportRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Timestamp != b.Timestamp:
			return a.Timestamp < b.Timestamp
		case a.Protocol != b.Protocol:
			return a.Protocol < b.Protocol
		case a.Token != b.Token:
			return a.Token < b.Token
		default:
			return a.PoolType < b.PoolType
		}
	})

	var last *model.ReferencePrice
	for i := range out {
		if ref, ok := byDate[out[i].Date]; ok {
			ref := ref
			out[i].Reference = &ref
			last = &ref
			continue
		}
		out[i].Reference = last
	}
	return out
}

// Dates returns the distinct dates of the TVL rows, ascending.
func Dates(rows []model.TokenSeriesRow) []string {
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
