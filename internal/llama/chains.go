package llama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
)

// ChainTVL fetches the aggregate TVL history of a chain.
func (c *Client) ChainTVL(ctx context.Context, chain string) ([]TVLPoint, error) {
	if chain == "" {
		return nil, fmt.Errorf("chain is required")
	}
	body, err := c.get(ctx, c.cfg.APIURL+"/v2/historicalChainTvl/"+url.PathEscape(chain))
	if err != nil {
		return nil, fmt.Errorf("chain %s: %w", chain, err)
	}

	var points []TVLPoint
	if err := json.Unmarshal(body, &points); err != nil {
		return nil, fmt.Errorf("decode chain %s: %w", chain, err)
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}
