package llama

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"superfest/internal/model"
)

const searchWidth = 600

// BatchHistorical fetches prices for one token around the start and end of a
// window. An empty result is not an error.
func (c *Client) BatchHistorical(ctx context.Context, chain, address string, start, end int64) ([]model.PriceRow, error) {
	coins := fmt.Sprintf(`{"%s:%s":[%d,%d]}`, chain, address, end, start)
	query := url.Values{}
	query.Set("coins", coins)
	query.Set("searchWidth", fmt.Sprint(searchWidth))

	body, err := c.get(ctx, c.cfg.CoinsURL+"/batchHistorical?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("prices %s:%s: %w", chain, address, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("prices %s:%s: invalid json", chain, address)
	}
	return parseBatchHistorical(body), nil
}

func parseBatchHistorical(body []byte) []model.PriceRow {
	var rows []model.PriceRow
	gjson.GetBytes(body, "coins").ForEach(func(key, coin gjson.Result) bool {
		address := key.String()
		if i := strings.LastIndex(address, ":"); i >= 0 {
			address = address[i+1:]
		}
		symbol := coin.Get("symbol").String()
		coin.Get("prices").ForEach(func(_, price gjson.Result) bool {
			ts := price.Get("timestamp").Int()
			rows = append(rows, model.PriceRow{
				Symbol:       symbol,
				TokenAddress: address,
				Timestamp:    ts,
				Date:         model.DateOf(ts),
				Price:        price.Get("price").Float(),
			})
			return true
		})
		return true
	})
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Timestamp < rows[j].Timestamp })
	return rows
}
