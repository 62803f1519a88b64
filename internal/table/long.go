package table

import (
	"math"
	"sort"

	"superfest/internal/model"
)

// Melt turns a wide table into one row per (timestamp, token) for every token
// column, sorted by timestamp then token. Tokens not observed on a date get a
// NaN amount, which ApplyBaseline later fills with 0.
func Melt(rows []WideRow, poolType model.PoolType) []model.TokenSeriesRow {
	cols := Columns(rows)
	out := make([]model.TokenSeriesRow, 0, len(rows)*len(cols))
	for _, row := range rows {
		for _, token := range cols {
			amount, ok := row.Values[token]
			if !ok {
				amount = math.NaN()
			}
			out = append(out, model.TokenSeriesRow{
				Timestamp:      row.Timestamp,
				Token:          token,
				PoolType:       poolType,
				TokenUSDAmount: amount,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].Token < out[j].Token
	})
	return out
}

type seriesKey struct {
	token    string
	poolType model.PoolType
}

// ApplyBaseline sets the start amount of every (token, pool_type) group to its
// first non-missing amount in time order, fills missing amounts with 0 and
// derives the raw and percentage change. Groups without any observation, and
// groups whose start is 0, report a 0 percentage change.
func ApplyBaseline(rows []model.TokenSeriesRow) []model.TokenSeriesRow {
	out := make([]model.TokenSeriesRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })

	start := make(map[seriesKey]float64)
	for _, row := range out {
		key := seriesKey{row.Token, row.PoolType}
		if _, ok := start[key]; ok || math.IsNaN(row.TokenUSDAmount) {
			continue
		}
		start[key] = row.TokenUSDAmount
	}

	for i := range out {
		row := &out[i]
		if math.IsNaN(row.TokenUSDAmount) {
			row.TokenUSDAmount = 0
		}
		row.StartTokenUSDAmount = start[seriesKey{row.Token, row.PoolType}]
		row.RawChangeInUSD = row.TokenUSDAmount - row.StartTokenUSDAmount
		row.PercentageChangeInUSD = RatioChange(row.TokenUSDAmount, row.StartTokenUSDAmount)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		if a.Token != b.Token {
			return a.Token < b.Token
		}
		return a.PoolType < b.PoolType
	})
	return out
}

// ApplyDailyTVL stamps each row with its UTC date and the sum of all token
// amounts sharing that date and pool type.
func ApplyDailyTVL(rows []model.TokenSeriesRow) {
	type dayKey struct {
		date     string
		poolType model.PoolType
	}
	totals := make(map[dayKey]float64)
	for i := range rows {
		rows[i].Date = model.DateOf(rows[i].Timestamp)
		totals[dayKey{rows[i].Date, rows[i].PoolType}] += rows[i].TokenUSDAmount
	}
	for i := range rows {
		rows[i].DailyTVL = totals[dayKey{rows[i].Date, rows[i].PoolType}]
	}
}

// RatioChange returns value/start - 1, or 0 when that is undefined.
func RatioChange(value, start float64) float64 {
	if start == 0 {
		return 0
	}
	change := value/start - 1
	if math.IsNaN(change) || math.IsInf(change, 0) {
		return 0
	}
	return change
}
