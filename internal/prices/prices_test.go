package prices

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"superfest/internal/model"
	"superfest/internal/storage"
)

const (
	opAddress   = "0x4200000000000000000000000000000000000042"
	wethAddress = "0x4200000000000000000000000000000000000006"
	july8       = int64(1720396800)
	day         = int64(86400)
)

type fakeFetcher struct {
	mu     sync.Mutex
	calls  []int64
	prices map[int64][]model.PriceRow
	fail   map[int64]error
}

func (f *fakeFetcher) BatchHistorical(_ context.Context, chain, address string, start, end int64) ([]model.PriceRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, start)
	if end-start != WindowSeconds {
		return nil, errors.New("unexpected window")
	}
	if err := f.fail[start]; err != nil {
		return nil, err
	}
	return f.prices[start], nil
}

func opPrice(ts int64, price float64) model.PriceRow {
	return model.PriceRow{Symbol: "OP", TokenAddress: opAddress, Timestamp: ts, Date: model.DateOf(ts), Price: price}
}

func newReconciler(t *testing.T, store storage.BlobStore, fetcher Fetcher, fallback int64) (*Reconciler, *Cache) {
	cache := NewCache(storage.NewArchive(store), "token_prices.zip")
	return NewReconciler(fetcher, cache, fallback, zaptest.NewLogger(t)), cache
}

func TestReconcileColdCache(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	fetcher := &fakeFetcher{prices: map[int64][]model.PriceRow{
		july8:       {opPrice(july8+60, 1.5)},
		july8 + day: {opPrice(july8+day+60, 1.6)},
	}}
	r, cache := newReconciler(t, store, fetcher, 0)

	got, err := r.Reconcile(ctx, "optimism", opAddress, []string{"2024-07-08", "2024-07-09"})
	require.NoError(t, err)
	assert.Equal(t, []model.PriceRow{opPrice(july8+60, 1.5), opPrice(july8+day+60, 1.6)}, got)
	assert.Equal(t, []int64{july8, july8 + day}, fetcher.calls)

	persisted, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, got, persisted)
}

func TestReconcileOnlyFetchesMissingDates(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r, cache := newReconciler(t, store, &fakeFetcher{}, 0)
	require.NoError(t, cache.Save(ctx, []model.PriceRow{opPrice(july8+60, 1.5)}))

	fetcher := &fakeFetcher{prices: map[int64][]model.PriceRow{
		july8 + day: {opPrice(july8+day+60, 1.6)},
	}}
	r.fetcher = fetcher

	got, err := r.Reconcile(ctx, "optimism", opAddress, []string{"2024-07-08", "2024-07-09", "2024-07-09"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []int64{july8 + day}, fetcher.calls)
}

func TestReconcileIdempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	fetcher := &fakeFetcher{prices: map[int64][]model.PriceRow{july8: {opPrice(july8+60, 1.5)}}}
	r, _ := newReconciler(t, store, fetcher, 0)

	dates := []string{"2024-07-08"}
	first, err := r.Reconcile(ctx, "optimism", opAddress, dates)
	require.NoError(t, err)
	blob, err := store.Get(ctx, "token_prices.zip")
	require.NoError(t, err)

	second, err := r.Reconcile(ctx, "optimism", opAddress, dates)
	require.NoError(t, err)
	again, err := store.Get(ctx, "token_prices.zip")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, blob, again)
	assert.Len(t, fetcher.calls, 1)
}

func TestReconcileFallbackOncePerPass(t *testing.T) {
	ctx := context.Background()
	fallback := july8 + 2*day
	fetcher := &fakeFetcher{prices: map[int64][]model.PriceRow{
		fallback: {opPrice(fallback+30, 1.7)},
	}}
	r, _ := newReconciler(t, storage.NewMemoryStore(), fetcher, fallback)

	got, err := r.Reconcile(ctx, "optimism", opAddress, []string{"2024-07-08", "2024-07-09"})
	require.NoError(t, err)
	assert.Equal(t, []int64{july8, july8 + day, fallback}, fetcher.calls)
	assert.Equal(t, []model.PriceRow{opPrice(fallback+30, 1.7)}, got)
}

func TestReconcileEmptyResult(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	fetcher := &fakeFetcher{fail: map[int64]error{july8: errors.New("boom")}}
	r, _ := newReconciler(t, store, fetcher, 0)

	got, err := r.Reconcile(ctx, "optimism", opAddress, []string{"2024-07-08"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, store.Puts())
}

func TestReconcilePersistsAfterDroppingCachedDuplicates(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	r, cache := newReconciler(t, store, &fakeFetcher{}, 0)
	require.NoError(t, cache.Save(ctx, []model.PriceRow{opPrice(july8+60, 1.5), opPrice(july8+60, 1.5)}))

	r.fetcher = &fakeFetcher{prices: map[int64][]model.PriceRow{
		july8 + day: {opPrice(july8+day+60, 1.6)},
	}}
	got, err := r.Reconcile(ctx, "optimism", opAddress, []string{"2024-07-08", "2024-07-09"})
	require.NoError(t, err)
	want := []model.PriceRow{opPrice(july8+60, 1.5), opPrice(july8+day+60, 1.6)}
	assert.Equal(t, want, got)
	assert.Equal(t, 2, store.Puts())

	persisted, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, persisted)
}

func TestReconcileSurfacesCacheError(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "token_prices.zip", []byte("corrupt"), storage.ContentTypeZip))
	r, _ := newReconciler(t, store, &fakeFetcher{}, 0)

	_, err := r.Reconcile(ctx, "optimism", opAddress, []string{"2024-07-08"})
	var cacheErr *CacheError
	require.True(t, errors.As(err, &cacheErr))
	assert.Equal(t, "token_prices.zip", cacheErr.Archive)
}

func TestCacheMiss(t *testing.T) {
	cache := NewCache(storage.NewArchive(storage.NewMemoryStore()), "token_prices.zip")
	_, err := cache.Load(context.Background())
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestCacheSkipsIncompleteRows(t *testing.T) {
	ctx := context.Background()
	archive := storage.NewArchive(storage.NewMemoryStore())
	require.NoError(t, archive.WriteCSV(ctx, "token_prices.zip", storage.Table{
		Header: []string{"symbol", "token_address", "timestamp", "date", "price"},
		Records: [][]string{
			{"OP", opAddress, "1720396860", "2024-07-08", "1.5"},
			{"OP", opAddress, "", "2024-07-08", "1.5"},
			{"", opAddress, "1720396860", "2024-07-08", "1.5"},
		},
	}))
	rows, err := NewCache(archive, "token_prices.zip").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.PriceRow{opPrice(1720396860, 1.5)}, rows)
}

func TestMergeKeepsCachedCopy(t *testing.T) {
	cached := []model.PriceRow{opPrice(100, 1.0)}
	fresh := []model.PriceRow{opPrice(100, 9.0), opPrice(200, 2.0)}
	got := Merge(cached, fresh)
	require.Len(t, got, 2)
	assert.Equal(t, 1.0, got[0].Price)
	assert.Equal(t, 2.0, got[1].Price)
}

func TestForToken(t *testing.T) {
	rows := []model.PriceRow{
		opPrice(1, 1),
		{Symbol: "WETH", TokenAddress: wethAddress, Timestamp: 1},
	}
	got := ForToken(rows, "0X4200000000000000000000000000000000000042")
	require.Len(t, got, 1)
	assert.Equal(t, "OP", got[0].Symbol)
}

func TestReferenceSeries(t *testing.T) {
	weth := func(ts int64, price float64) model.PriceRow {
		return model.PriceRow{Symbol: "WETH", TokenAddress: wethAddress, Timestamp: ts, Price: price}
	}
	got := ReferenceSeries([]model.PriceRow{
		weth(july8+day+100, 3300),
		weth(july8+100, 3000),
		weth(july8+200, 3200),
	})
	require.Len(t, got, 2)

	assert.Equal(t, "2024-07-08", got[0].Date)
	assert.Equal(t, july8+100, got[0].Timestamp)
	assert.Equal(t, 3000.0, got[0].StartPrice)
	assert.Equal(t, 3100.0, got[0].Price)
	assert.Equal(t, 100.0, got[0].ChangeInPriceUSD)
	assert.InDelta(t, (0+3200.0/3000-1)/2, got[0].ChangeInPricePercentage, 1e-12)

	assert.Equal(t, "2024-07-09", got[1].Date)
	assert.Equal(t, 300.0, got[1].ChangeInPriceUSD)
	assert.InDelta(t, 0.1, got[1].ChangeInPricePercentage, 1e-12)

	assert.Nil(t, ReferenceSeries(nil))
}

func TestMissingStartsWithoutCachedToken(t *testing.T) {
	weth := model.PriceRow{Symbol: "WETH", TokenAddress: wethAddress, Timestamp: july8 + 60, Price: 3000}
	for _, cached := range [][]model.PriceRow{nil, {weth}} {
		got, err := missingStarts(cached, opAddress, []string{"2024-07-08", "2024-07-09", "2024-07-08"})
		require.NoError(t, err)
		assert.Equal(t, []int64{july8, july8 + day}, got)
	}
	_, err := missingStarts(nil, opAddress, []string{"07/08/2024"})
	assert.Error(t, err)
}
