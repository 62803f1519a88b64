package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// WriteLocalCSV exports a table to a plain CSV file on disk.
func WriteLocalCSV(path string, table Table) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}

	writer := bufio.NewWriter(file)
	if err := writeCSV(writer, table); err != nil {
		file.Close()
		return err
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
