package prices

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"superfest/internal/model"
	"superfest/internal/storage"
)

// ErrCacheMiss means no price cache archive has been written yet.
var ErrCacheMiss = errors.New("price cache miss")

// CacheError wraps a cache archive that exists but cannot be read or decoded.
type CacheError struct {
	Archive string
	Err     error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("price cache %s: %v", e.Archive, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

var cacheHeader = []string{"symbol", "token_address", "timestamp", "date", "price"}

// Cache persists every fetched price, across tokens, in a single archive.
type Cache struct {
	archive *storage.Archive
	name    string
}

func NewCache(archive *storage.Archive, name string) *Cache {
	return &Cache{archive: archive, name: name}
}

// Load returns the cached rows, ErrCacheMiss when the archive is absent, or a
// *CacheError when it is unreadable.
func (c *Cache) Load(ctx context.Context) ([]model.PriceRow, error) {
	tbl, err := c.archive.ReadCSV(ctx, c.name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", c.name, ErrCacheMiss)
		}
		return nil, &CacheError{Archive: c.name, Err: err}
	}
	rows, err := decodeRows(tbl)
	if err != nil {
		return nil, &CacheError{Archive: c.name, Err: err}
	}
	return rows, nil
}

// Save replaces the archive with rows.
func (c *Cache) Save(ctx context.Context, rows []model.PriceRow) error {
	return c.archive.WriteCSV(ctx, c.name, encodeRows(rows))
}

func decodeRows(tbl storage.Table) ([]model.PriceRow, error) {
	idx := make([]int, len(cacheHeader))
	for i, name := range cacheHeader {
		idx[i] = tbl.Column(name)
		if idx[i] < 0 && name != "date" {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	field := func(record []string, i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]model.PriceRow, 0, len(tbl.Records))
	for _, record := range tbl.Records {
		symbol := field(record, idx[0])
		address := field(record, idx[1])
		ts, errTS := strconv.ParseInt(field(record, idx[2]), 10, 64)
		price, errPrice := strconv.ParseFloat(field(record, idx[4]), 64)
		if symbol == "" || address == "" || errTS != nil || errPrice != nil {
			continue
		}
		rows = append(rows, model.PriceRow{
			Symbol:       symbol,
			TokenAddress: address,
			Timestamp:    ts,
			Date:         model.DateOf(ts),
			Price:        price,
		})
	}
	return rows, nil
}

func encodeRows(rows []model.PriceRow) storage.Table {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Symbol,
			row.TokenAddress,
			strconv.FormatInt(row.Timestamp, 10),
			model.DateOf(row.Timestamp),
			strconv.FormatFloat(row.Price, 'f', -1, 64),
		})
	}
	return storage.Table{Header: cacheHeader, Records: records}
}

type priceKey struct {
	symbol    string
	timestamp int64
}

// Merge unions cached and fresh rows, keeping the first row seen for each
// (symbol, timestamp) with cached rows taking precedence. The result is
// ordered by symbol then timestamp.
func Merge(cached, fresh []model.PriceRow) []model.PriceRow {
	seen := make(map[priceKey]struct{}, len(cached)+len(fresh))
	out := make([]model.PriceRow, 0, len(cached)+len(fresh))
	for _, group := range [][]model.PriceRow{cached, fresh} {
		for _, row := range group {
			key := priceKey{row.Symbol, row.Timestamp}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			row.Date = model.DateOf(row.Timestamp)
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

// ForToken returns rows for a token address, compared case-insensitively.
func ForToken(rows []model.PriceRow, address string) []model.PriceRow {
	out := make([]model.PriceRow, 0, len(rows))
	for _, row := range rows {
		if strings.EqualFold(row.TokenAddress, address) {
			out = append(out, row)
		}
	}
	return out
}
