package report

import (
	"strconv"

	"superfest/internal/model"
	"superfest/internal/storage"
)

var header = []string{
	"date", "timestamp", "token", "pool_type", "protocol",
	"token_usd_amount", "start_token_usd_amount", "raw_change_in_usd", "percentage_change_in_usd",
	"daily_tvl", "epoch_token_incentives", "incentives_per_day", "price",
	"incentives_per_day_usd", "symbol", "token_address", "timestamp_weth",
	"price_weth", "weth_start_price", "weth_change_in_price_usd", "weth_change_in_price_percentage",
}

// Header returns the report column order. Consumers read columns by position.
func Header() []string {
	out := make([]string, len(header))
	copy(out, header)
	return out
}

// Record encodes a row in Header order. Reference columns are empty when the
// row has no reference price.
func Record(row model.ReportRow) []string {
	rec := []string{
		row.Date,
		strconv.FormatInt(row.Timestamp, 10),
		row.Token,
		string(row.PoolType),
		row.Protocol,
		formatFloat(row.TokenUSDAmount),
		formatFloat(row.StartTokenUSDAmount),
		formatFloat(row.RawChangeInUSD),
		formatFloat(row.PercentageChangeInUSD),
		formatFloat(row.DailyTVL),
		row.EpochTokenIncentives.String(),
		row.IncentivesPerDay.String(),
		formatFloat(row.Price),
		row.IncentivesPerDayUSD.String(),
	}
	ref := row.Reference
	if ref == nil {
		return append(rec, "", "", "", "", "", "", "")
	}
	return append(rec,
		ref.Symbol,
		ref.TokenAddress,
		strconv.FormatInt(ref.Timestamp, 10),
		formatFloat(ref.Price),
		formatFloat(ref.StartPrice),
		formatFloat(ref.ChangeInPriceUSD),
		formatFloat(ref.ChangeInPricePercentage),
	)
}

// Table encodes the whole report.
func Table(rows []model.ReportRow) storage.Table {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record(row))
	}
	return storage.Table{Header: Header(), Records: records}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
