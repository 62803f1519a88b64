package prices

import (
	"sort"

	"superfest/internal/model"
	"superfest/internal/table"
)

// ReferenceSeries summarises one token's prices per calendar day relative to
// its earliest observed price. Days are ordered by their first timestamp.
func ReferenceSeries(rows []model.PriceRow) []model.ReferencePrice {
	if len(rows) == 0 {
		return nil
	}
	sorted := make([]model.PriceRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	start := sorted[0].Price
	for _, row := range sorted[1:] {
		if row.Timestamp != sorted[0].Timestamp {
			break
		}
		if row.Price < start {
			start = row.Price
		}
	}

	type dayAgg struct {
		ref   model.ReferencePrice
		count int
	}
	days := make(map[string]*dayAgg)
	order := make([]string, 0)
	for _, row := range sorted {
		date := model.DateOf(row.Timestamp)
		agg := days[date]
		if agg == nil {
			agg = &dayAgg{ref: model.ReferencePrice{
				Date:         date,
				Symbol:       row.Symbol,
				TokenAddress: row.TokenAddress,
				Timestamp:    row.Timestamp,
				StartPrice:   start,
			}}
			days[date] = agg
			order = append(order, date)
		}
		agg.ref.Price += row.Price
		agg.ref.ChangeInPriceUSD += row.Price - start
		agg.ref.ChangeInPricePercentage += table.RatioChange(row.Price, start)
		agg.count++
	}

	out := make([]model.ReferencePrice, 0, len(order))
	for _, date := range order {
		agg := days[date]
		n := float64(agg.count)
		agg.ref.Price /= n
		agg.ref.ChangeInPriceUSD /= n
		agg.ref.ChangeInPricePercentage /= n
		out = append(out, agg.ref)
	}
	return out
}
