package llama

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"superfest/internal/model"
)

const protocolDoc = `{
  "name": "Aave V3",
  "chainTvls": {
    "Optimism": {
      "tvl": [{"date": 1720483200, "totalLiquidityUSD": 200}, {"date": 1720396800, "totalLiquidityUSD": 100}],
      "tokensInUsd": [
        {"date": 1720483200, "tokens": {"USDC": 150, "WETH": 10}},
        {"date": 1720396800, "tokens": {"USDC": 100, "OP": null}}
      ]
    },
    "Optimism-borrowed": {
      "tokensInUsd": [{"date": 1720396800, "tokens": {"USDC": 20}}]
    }
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIURL:       srv.URL,
		CoinsURL:     srv.URL,
		YieldsURL:    srv.URL,
		RetryBackoff: time.Millisecond,
	}, zaptest.NewLogger(t))
}

func TestProtocolTVLTokenSeries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/protocol/aave-v3", r.URL.Path)
		w.Write([]byte(protocolDoc))
	})

	payload, err := client.ProtocolTVL(context.Background(), "aave-v3")
	require.NoError(t, err)

	rows, err := payload.TokenSeries("Optimism", CategoryTokensInUSD)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1720396800), rows[0].Timestamp)
	assert.Equal(t, map[string]float64{"USDC": 100}, rows[0].Values)
	assert.Equal(t, map[string]float64{"USDC": 150, "WETH": 10}, rows[1].Values)

	borrowed, err := payload.TokenSeries("Optimism-borrowed", CategoryTokensInUSD)
	require.NoError(t, err)
	require.Len(t, borrowed, 1)

	_, err = payload.TokenSeries("Base", CategoryTokensInUSD)
	assert.True(t, errors.Is(err, ErrMissingSeries))

	points, err := payload.LiquiditySeries("Optimism")
	require.NoError(t, err)
	assert.Equal(t, []TVLPoint{{Date: 1720396800, TVL: 100}, {Date: 1720483200, TVL: 200}}, points)
}

func TestProtocolTVLStatusError(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "protocol not found", http.StatusNotFound)
	})
	client.cfg.MaxRetries = 3

	_, err := client.ProtocolTVL(context.Background(), "nope")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "protocol not found")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx is not retried")
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"date": 1720396800, "tvl": 5}]`))
	})
	client.cfg.MaxRetries = 2

	points, err := client.ChainTVL(context.Background(), "Optimism")
	require.NoError(t, err)
	assert.Equal(t, []TVLPoint{{Date: 1720396800, TVL: 5}}, points)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestBatchHistorical(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/batchHistorical", r.URL.Path)
		assert.Equal(t, `{"optimism:0x42":[1720411200,1720396800]}`, r.URL.Query().Get("coins"))
		assert.Equal(t, "600", r.URL.Query().Get("searchWidth"))
		w.Write([]byte(`{"coins": {"optimism:0x42": {"symbol": "OP", "prices": [
			{"timestamp": 1720411100, "price": 1.6, "confidence": 0.99},
			{"timestamp": 1720396790, "price": 1.5, "confidence": 0.99}
		]}}}`))
	})

	rows, err := client.BatchHistorical(context.Background(), "optimism", "0x42", 1720396800, 1720396800+14400)
	require.NoError(t, err)
	assert.Equal(t, []model.PriceRow{
		{Symbol: "OP", TokenAddress: "0x42", Timestamp: 1720396790, Date: "2024-07-07", Price: 1.5},
		{Symbol: "OP", TokenAddress: "0x42", Timestamp: 1720411100, Date: "2024-07-08", Price: 1.6},
	}, rows)
}

func TestBatchHistoricalEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"coins": {}}`))
	})
	rows, err := client.BatchHistorical(context.Background(), "optimism", "0x42", 0, 14400)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPoolChart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chart/pool-1", r.URL.Path)
		w.Write([]byte(`{"status": "success", "data": [
			{"timestamp": "2024-07-11T23:01:47.402Z", "tvlUsd": 2000, "apy": 4.2},
			{"timestamp": "2024-07-10T23:01:47.402Z", "tvlUsd": 1000, "apy": null}
		]}`))
	})

	points, err := client.PoolChart(context.Background(), "pool-1")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 1000.0, points[0].TVLUSD)
	assert.Equal(t, 0.0, points[0].APY)
	assert.Equal(t, 4.2, points[1].APY)
}

func TestCooldownSpacesCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIURL: srv.URL, Cooldown: 50 * time.Millisecond}, nil)
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.ChainTVL(context.Background(), "Base")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestEscapePath(t *testing.T) {
	assert.Equal(t, `zk\.sync`, escapePath("zk.sync"))
	assert.Equal(t, "Optimism-borrowed", escapePath("Optimism-borrowed"))
}
