package llama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"
)

// PoolChartPoint is one entry of a yield pool's TVL/APY chart.
type PoolChartPoint struct {
	Timestamp time.Time
	TVLUSD    float64
	APY       float64
}

type poolChartResponse struct {
	Status string `json:"status"`
	Data   []struct {
		Timestamp string   `json:"timestamp"`
		TVLUSD    float64  `json:"tvlUsd"`
		APY       *float64 `json:"apy"`
	} `json:"data"`
}

// PoolChart fetches the TVL and APY history of a yield pool.
func (c *Client) PoolChart(ctx context.Context, poolID string) ([]PoolChartPoint, error) {
	if poolID == "" {
		return nil, fmt.Errorf("pool id is required")
	}
	body, err := c.get(ctx, c.cfg.YieldsURL+"/chart/"+url.PathEscape(poolID))
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", poolID, err)
	}

	var resp poolChartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode pool %s: %w", poolID, err)
	}

	points := make([]PoolChartPoint, 0, len(resp.Data))
	for _, item := range resp.Data {
		ts, err := time.Parse(time.RFC3339Nano, item.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("pool %s timestamp %q: %w", poolID, item.Timestamp, err)
		}
		point := PoolChartPoint{Timestamp: ts.UTC(), TVLUSD: item.TVLUSD}
		if item.APY != nil {
			point.APY = *item.APY
		}
		points = append(points, point)
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
	return points, nil
}
