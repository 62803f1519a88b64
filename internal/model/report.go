package model

import "github.com/shopspring/decimal"

// ReportRow is one row of the final wide report.
type ReportRow struct {
	TokenSeriesRow

	EpochTokenIncentives decimal.Decimal `json:"epoch_token_incentives"`
	IncentivesPerDay     decimal.Decimal `json:"incentives_per_day"`
	Price                float64         `json:"price"`
	IncentivesPerDayUSD  decimal.Decimal `json:"incentives_per_day_usd"`

	// Reference is nil until a reference-asset price is joined or forward filled.
	Reference *ReferencePrice `json:"reference,omitempty"`
}
