package llama

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"superfest/internal/table"
)

const (
	CategoryTokensInUSD = "tokensInUsd"
	CategoryTokens      = "tokens"
	CategoryTVL         = "tvl"
)

// ProtocolPayload is the raw protocol history returned by /protocol/{slug}.
type ProtocolPayload struct {
	Slug string
	raw  []byte
}

// NewProtocolPayload wraps an already fetched protocol document.
func NewProtocolPayload(slug string, raw []byte) *ProtocolPayload {
	return &ProtocolPayload{Slug: slug, raw: raw}
}

// TVLPoint is a single dated liquidity figure.
type TVLPoint struct {
	Date int64   `json:"date"`
	TVL  float64 `json:"tvl"`
}

// ProtocolTVL fetches the full TVL history of a protocol.
func (c *Client) ProtocolTVL(ctx context.Context, slug string) (*ProtocolPayload, error) {
	if slug == "" {
		return nil, fmt.Errorf("protocol slug is required")
	}
	body, err := c.get(ctx, c.cfg.APIURL+"/protocol/"+url.PathEscape(slug))
	if err != nil {
		return nil, fmt.Errorf("protocol %s: %w", slug, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("protocol %s: invalid json", slug)
	}
	return NewProtocolPayload(slug, body), nil
}

// TokenSeries flattens chainTvls.<chain>.<category> into one row per date,
// keyed by token. Tokens with null amounts are left out of that date.
func (p *ProtocolPayload) TokenSeries(chain, category string) ([]table.WideRow, error) {
	series := gjson.GetBytes(p.raw, "chainTvls."+escapePath(chain)+"."+escapePath(category))
	if !series.Exists() || !series.IsArray() {
		return nil, fmt.Errorf("%s %s/%s: %w", p.Slug, chain, category, ErrMissingSeries)
	}

	byDate := make(map[int64]map[string]float64)
	series.ForEach(func(_, entry gjson.Result) bool {
		date := entry.Get("date").Int()
		values := byDate[date]
		if values == nil {
			values = make(map[string]float64)
			byDate[date] = values
		}
		entry.Get("tokens").ForEach(func(token, amount gjson.Result) bool {
			if amount.Type == gjson.Number {
				values[token.String()] = amount.Float()
			}
			return true
		})
		return true
	})

	rows := make([]table.WideRow, 0, len(byDate))
	for date, values := range byDate {
		rows = append(rows, table.WideRow{Timestamp: date, Values: values})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Timestamp < rows[j].Timestamp })
	return rows, nil
}

// LiquiditySeries returns chainTvls.<chain>.tvl sorted by date.
func (p *ProtocolPayload) LiquiditySeries(chain string) ([]TVLPoint, error) {
	series := gjson.GetBytes(p.raw, "chainTvls."+escapePath(chain)+"."+CategoryTVL)
	if !series.Exists() || !series.IsArray() {
		return nil, fmt.Errorf("%s %s/%s: %w", p.Slug, chain, CategoryTVL, ErrMissingSeries)
	}

	points := make([]TVLPoint, 0, len(series.Array()))
	series.ForEach(func(_, entry gjson.Result) bool {
		points = append(points, TVLPoint{
			Date: entry.Get("date").Int(),
			TVL:  entry.Get("totalLiquidityUSD").Float(),
		})
		return true
	})
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}

func escapePath(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
