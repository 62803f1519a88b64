package storage

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Header: []string{"symbol", "token_address", "timestamp", "date", "price"},
		Records: [][]string{
			{"OP", "0x4200000000000000000000000000000000000042", "1720396800", "2024-07-08", "1.61"},
			{"OP", "0x4200000000000000000000000000000000000042", "1720483200", "2024-07-09", "1.58"},
		},
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	archive := NewArchive(store)

	require.NoError(t, archive.WriteCSV(ctx, "token_prices.zip", sampleTable()))

	got, err := archive.ReadCSV(ctx, "token_prices.zip")
	require.NoError(t, err)
	assert.Equal(t, sampleTable(), got)
	assert.Equal(t, 4, got.Column("price"))
	assert.Equal(t, -1, got.Column("confidence"))
}

func TestArchiveEntryNamedAfterBlob(t *testing.T) {
	data, err := EncodeZipCSV(entryName("reports/super_fest.zip"), sampleTable())
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "super_fest.csv", zr.File[0].Name)
	assert.Equal(t, zip.Deflate, zr.File[0].Method)
}

func TestArchiveMissing(t *testing.T) {
	_, err := NewArchive(NewMemoryStore()).ReadCSV(context.Background(), "absent.zip")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDecodeZipCSVRejectsGarbage(t *testing.T) {
	_, err := DecodeZipCSV([]byte("not a zip"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(dir)

	_, err := store.Get(ctx, "super_fest.zip")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, store.Put(ctx, "super_fest.zip", []byte("v1"), ContentTypeZip))
	require.NoError(t, store.Put(ctx, "super_fest.zip", []byte("v2"), ContentTypeZip))

	got, err := store.Get(ctx, "super_fest.zip")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	_, err = os.Stat(filepath.Join(dir, "super_fest.zip.tmp"))
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, store.Put(ctx, "../escape.zip", []byte("x"), ContentTypeZip))
}

func TestWriteLocalCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.csv")
	require.NoError(t, WriteLocalCSV(path, sampleTable()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "symbol,token_address,timestamp,date,price\n"+
		"OP,0x4200000000000000000000000000000000000042,1720396800,2024-07-08,1.61\n"+
		"OP,0x4200000000000000000000000000000000000042,1720483200,2024-07-09,1.58\n", string(data))
}
