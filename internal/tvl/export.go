package tvl

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"superfest/internal/model"
	"superfest/internal/storage"
)

func stamp(day time.Time) string {
	return strings.ReplaceAll(day.UTC().Format(model.DateLayout), "-", "_")
}

// ProtocolFileName is the protocol report name for a given run day.
func ProtocolFileName(day time.Time) string {
	return stamp(day) + "_protocol_level_tvl.csv"
}

// MissingFileName is the name of the list of protocols without upstream data.
func MissingFileName(day time.Time) string {
	return stamp(day) + "_missing_protocol_info.csv"
}

// ChainFileName is the chain report name for a given run day.
func ChainFileName(day time.Time) string {
	return "blockchain_level_tvl_" + stamp(day) + ".csv"
}

func ProtocolTable(rows []model.TVLRow) storage.Table {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Date,
			row.Protocol,
			row.Chain,
			formatFloat(row.TVL),
			formatFloat(row.TVLStart),
			formatFloat(row.TVLCurrent),
			formatFloat(row.TVLDelta),
		})
	}
	return storage.Table{
		Header:  []string{"date", "protocol", "chain", "tvl", "tvl_start", "tvl_current", "tvl_delta"},
		Records: records,
	}
}

func ChainTable(rows []model.TVLRow) storage.Table {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Date,
			row.Chain,
			formatFloat(row.TVL),
			formatFloat(row.TVLStart),
			formatFloat(row.TVLCurrent),
			formatFloat(row.TVLDelta),
		})
	}
	return storage.Table{
		Header:  []string{"date", "chain", "tvl", "tvl_start", "tvl_current", "tvl_delta"},
		Records: records,
	}
}

func MissingTable(entries []model.LegendEntry) storage.Table {
	records := make([][]string, 0, len(entries))
	for _, entry := range entries {
		records = append(records, []string{entry.Protocol, entry.Chain})
	}
	return storage.Table{Header: []string{"protocol", "chain"}, Records: records}
}

// WriteProtocolReport writes the protocol report and the missing list into
// dir. Either file is only written when it has rows. It returns the paths
// written.
func WriteProtocolReport(dir string, day time.Time, rows []model.TVLRow, missing []model.LegendEntry) ([]string, error) {
	var written []string
	if len(rows) > 0 {
		path := filepath.Join(dir, ProtocolFileName(day))
		if err := storage.WriteLocalCSV(path, ProtocolTable(rows)); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if len(missing) > 0 {
		path := filepath.Join(dir, MissingFileName(day))
		if err := storage.WriteLocalCSV(path, MissingTable(missing)); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// WriteChainReport writes the chain report into dir and returns its path.
func WriteChainReport(dir string, day time.Time, rows []model.TVLRow) (string, error) {
	path := filepath.Join(dir, ChainFileName(day))
	if err := storage.WriteLocalCSV(path, ChainTable(rows)); err != nil {
		return "", err
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
