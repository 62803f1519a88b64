package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"superfest/internal/model"
)

// csvTable is a header-addressed view over a small CSV file.
type csvTable struct {
	path    string
	columns map[string]int
	records [][]string
}

func readCSVTable(path string, required ...string) (*csvTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return parseCSVTable(path, file, required...)
}

func parseCSVTable(path string, r io.Reader, required ...string) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: missing header", path)
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, name)
		}
	}
	return &csvTable{path: path, columns: columns, records: rows[1:]}, nil
}

func (t *csvTable) get(record []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// LoadPools reads the pool configuration table.
func LoadPools(path string) ([]model.PoolConfig, error) {
	t, err := readCSVTable(path, "protocol_slug", "chain", "pool_id", "pool_type", "token")
	if err != nil {
		return nil, err
	}
	return t.pools()
}

func (t *csvTable) pools() ([]model.PoolConfig, error) {
	pools := make([]model.PoolConfig, 0, len(t.records))
	for i, record := range t.records {
		pool := model.PoolConfig{
			ProtocolSlug: t.get(record, "protocol_slug"),
			Chain:        t.get(record, "chain"),
			PoolID:       t.get(record, "pool_id"),
			PoolType:     model.PoolType(strings.ToLower(t.get(record, "pool_type"))),
			Token:        t.get(record, "token"),
		}
		if pool.ProtocolSlug == "" || pool.Chain == "" {
			return nil, fmt.Errorf("%s row %d: protocol_slug and chain are required", t.path, i+2)
		}
		if !pool.PoolType.Valid() {
			return nil, fmt.Errorf("%s row %d: invalid pool_type %q", t.path, i+2, pool.PoolType)
		}
		pools = append(pools, pool)
	}
	return pools, nil
}

// LoadIncentives reads the incentive history table.
func LoadIncentives(path string) ([]model.Incentive, error) {
	t, err := readCSVTable(path, "date", "chain", "platform", "token", "pool_type", "protocol_slug", "epoch_token_incentives")
	if err != nil {
		return nil, err
	}
	return t.incentives()
}

func (t *csvTable) incentives() ([]model.Incentive, error) {
	out := make([]model.Incentive, 0, len(t.records))
	for i, record := range t.records {
		date, err := ParseDate(t.get(record, "date"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid date: %w", t.path, i+2, err)
		}
		amount, err := decimal.NewFromString(t.get(record, "epoch_token_incentives"))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid epoch_token_incentives: %w", t.path, i+2, err)
		}
		out = append(out, model.Incentive{
			Date:                 date.Format(model.DateLayout),
			Chain:                t.get(record, "chain"),
			Platform:             t.get(record, "platform"),
			Token:                t.get(record, "token"),
			PoolType:             model.PoolType(strings.ToLower(t.get(record, "pool_type"))),
			ProtocolSlug:         t.get(record, "protocol_slug"),
			EpochTokenIncentives: amount,
		})
	}
	return out, nil
}

// LoadLegend reads the protocol/chain legend used by the protocol TVL tracker.
func LoadLegend(path string) ([]model.LegendEntry, error) {
	t, err := readCSVTable(path, "protocol", "chain")
	if err != nil {
		return nil, err
	}
	out := make([]model.LegendEntry, 0, len(t.records))
	for _, record := range t.records {
		entry := model.LegendEntry{Protocol: t.get(record, "protocol"), Chain: t.get(record, "chain")}
		if entry.Protocol == "" {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}
