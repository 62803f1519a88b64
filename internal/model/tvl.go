package model

// TVLRow is a protocol- or chain-level TVL observation with start/current deltas.
type TVLRow struct {
	Date       string  `json:"date"`
	Timestamp  int64   `json:"timestamp"`
	Protocol   string  `json:"protocol,omitempty"`
	Chain      string  `json:"chain"`
	TVL        float64 `json:"tvl"`
	TVLStart   float64 `json:"tvl_start"`
	TVLCurrent float64 `json:"tvl_current"`
	TVLDelta   float64 `json:"tvl_delta"`
}

// PoolYieldRow is one point of a yield pool's chart with its change since start.
type PoolYieldRow struct {
	PoolID      string  `json:"pool_id"`
	Timestamp   int64   `json:"timestamp"`
	Date        string  `json:"date"`
	TVLUSD      float64 `json:"tvl_usd"`
	APY         float64 `json:"apy"`
	StartTVL    float64 `json:"start_tvl"`
	ChangeInTVL float64 `json:"change_in_tvl"`
}
