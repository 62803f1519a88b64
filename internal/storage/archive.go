package storage

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"
)

// Table is a CSV header plus its records.
type Table struct {
	Header  []string
	Records [][]string
}

// Archive reads and writes zip archives holding a single CSV file.
type Archive struct {
	store BlobStore
}

func NewArchive(store BlobStore) *Archive {
	return &Archive{store: store}
}

// ReadCSV loads the first CSV entry of the named archive.
func (a *Archive) ReadCSV(ctx context.Context, name string) (Table, error) {
	data, err := a.store.Get(ctx, name)
	if err != nil {
		return Table{}, err
	}
	return DecodeZipCSV(data)
}

// WriteCSV replaces the named archive with a single CSV entry.
func (a *Archive) WriteCSV(ctx context.Context, name string, table Table) error {
	data, err := EncodeZipCSV(entryName(name), table)
	if err != nil {
		return err
	}
	if err := a.store.Put(ctx, name, data, ContentTypeZip); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	return nil
}

// EncodeZipCSV deflates table as entry inside a new zip archive.
func EncodeZipCSV(entry string, table Table) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: entry, Method: zip.Deflate})
	if err != nil {
		return nil, fmt.Errorf("create zip entry: %w", err)
	}
	if err := writeCSV(w, table); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeZipCSV parses the first entry of a zip archive as CSV with a header row.
func DecodeZipCSV(data []byte) (Table, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Table{}, fmt.Errorf("open zip: %w", err)
	}
	if len(zr.File) == 0 {
		return Table{}, fmt.Errorf("zip archive is empty")
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		return Table{}, fmt.Errorf("open zip entry: %w", err)
	}
	defer rc.Close()
	return readCSV(rc)
}

func readCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return Table{}, nil
	}
	return Table{Header: rows[0], Records: rows[1:]}, nil
}

func writeCSV(w io.Writer, table Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(table.Records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func entryName(name string) string {
	base := path.Base(name)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return base + ".csv"
}

// Column returns the index of a header column, or -1.
func (t Table) Column(name string) int {
	for i, col := range t.Header {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i
		}
	}
	return -1
}
