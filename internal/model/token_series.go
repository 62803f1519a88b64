package model

// TokenSeriesRow is the long-format per-token TVL row for one protocol pool side.
type TokenSeriesRow struct {
	Timestamp             int64    `json:"timestamp"`
	Date                  string   `json:"date"`
	Token                 string   `json:"token"`
	PoolType              PoolType `json:"pool_type"`
	Protocol              string   `json:"protocol"`
	TokenUSDAmount        float64  `json:"token_usd_amount"`
	StartTokenUSDAmount   float64  `json:"start_token_usd_amount"`
	RawChangeInUSD        float64  `json:"raw_change_in_usd"`
	PercentageChangeInUSD float64  `json:"percentage_change_in_usd"`
	DailyTVL              float64  `json:"daily_tvl"`
}
