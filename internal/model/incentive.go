package model

import "github.com/shopspring/decimal"

// Incentive is one epoch of token incentives as read from the history table.
type Incentive struct {
	Date                 string          `json:"date"`
	Chain                string          `json:"chain"`
	Platform             string          `json:"platform"`
	Token                string          `json:"token"`
	PoolType             PoolType        `json:"pool_type"`
	ProtocolSlug         string          `json:"protocol_slug"`
	EpochTokenIncentives decimal.Decimal `json:"epoch_token_incentives"`
}

// IncentiveRow is one day of an epoch after the incentives are spread out.
type IncentiveRow struct {
	Date                 string          `json:"date"`
	Timestamp            int64           `json:"timestamp"`
	Chain                string          `json:"chain"`
	Platform             string          `json:"platform"`
	Token                string          `json:"token"`
	PoolType             PoolType        `json:"pool_type"`
	ProtocolSlug         string          `json:"protocol_slug"`
	EpochTokenIncentives decimal.Decimal `json:"epoch_token_incentives"`
	IncentivesPerDay     decimal.Decimal `json:"incentives_per_day"`
	Price                float64         `json:"price"`
	IncentivesPerDayUSD  decimal.Decimal `json:"incentives_per_day_usd"`
}
