package table

import (
	"fmt"
	"sort"

	"superfest/internal/model"
)

// BorrowedSuffix marks the pseudo-chain that carries borrowed amounts.
const BorrowedSuffix = "-borrowed"

// WideRow is one observed date with one value per token seen on that date.
type WideRow struct {
	Timestamp int64
	Values    map[string]float64
}

// TokenSeriesSource yields per-date token tables for a chain and category.
type TokenSeriesSource interface {
	TokenSeries(chain, category string) ([]WideRow, error)
}

// PoolSeries returns the table backing a pool side. Supply pools add the
// borrowed table to the supplied one to get net exposure; borrow pools use
// the borrowed table alone.
func PoolSeries(src TokenSeriesSource, chain, category string, poolType model.PoolType) ([]WideRow, error) {
	switch poolType {
	case model.PoolSupply:
		supplied, err := src.TokenSeries(chain, category)
		if err != nil {
			return nil, err
		}
		borrowed, err := src.TokenSeries(chain+BorrowedSuffix, category)
		if err != nil {
			return nil, err
		}
		return AddShared(supplied, borrowed), nil
	case model.PoolBorrow:
		return src.TokenSeries(chain+BorrowedSuffix, category)
	default:
		return nil, fmt.Errorf("unknown pool type %q", poolType)
	}
}

// Columns returns the sorted set of tokens observed anywhere in rows.
func Columns(rows []WideRow) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for token := range row.Values {
			seen[token] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for token := range seen {
		cols = append(cols, token)
	}
	sort.Strings(cols)
	return cols
}

// AddShared sums a and b per (timestamp, token), restricted to tokens that
// appear as columns in both tables. A token missing on one side for a
// timestamp contributes 0 from that side; missing on both sides stays missing.
func AddShared(a, b []WideRow) []WideRow {
	shared := intersect(Columns(a), Columns(b))

	left := index(a)
	right := index(b)
	stamps := make([]int64, 0, len(left)+len(right))
	for ts := range left {
		stamps = append(stamps, ts)
	}
	for ts := range right {
		if _, ok := left[ts]; !ok {
			stamps = append(stamps, ts)
		}
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	out := make([]WideRow, 0, len(stamps))
	for _, ts := range stamps {
		values := make(map[string]float64, len(shared))
		for _, token := range shared {
			lv, lok := left[ts][token]
			rv, rok := right[ts][token]
			if !lok && !rok {
				continue
			}
			values[token] = lv + rv
		}
		out = append(out, WideRow{Timestamp: ts, Values: values})
	}
	return out
}

// FilterFrom keeps rows at or after start.
func FilterFrom(rows []WideRow, start int64) []WideRow {
	out := make([]WideRow, 0, len(rows))
	for _, row := range rows {
		if row.Timestamp >= start {
			out = append(out, row)
		}
	}
	return out
}

func index(rows []WideRow) map[int64]map[string]float64 {
	out := make(map[int64]map[string]float64, len(rows))
	for _, row := range rows {
		values := out[row.Timestamp]
		if values == nil {
			values = make(map[string]float64, len(row.Values))
			out[row.Timestamp] = values
		}
		for token, v := range row.Values {
			values[token] = v
		}
	}
	return out
}

func intersect(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, s := range b {
		inB[s] = struct{}{}
	}
	out := make([]string, 0, len(a))
	for _, s := range a {
		if _, ok := inB[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
