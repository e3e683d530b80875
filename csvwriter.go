package vcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// CsvWriterConfig configures WriteCSV. Adapted from CsvWriter/WriterConfig
// (internal/writer/writer.go): same Separator-defaulting convention, but
// trimmed of the append/file-lock/header-validation machinery that existed
// to let multiple processes safely append to one growing file - this
// writer always produces one complete, freshly created file from a Table,
// the shape needed for the read_all(write_csv(table)) == table round-trip
// property rather than a multi-writer append log.
type CsvWriterConfig struct {
	Separator byte // defaults to ','
}

// WriteCSV writes t's full contents (header row plus every RecordBatch's
// rows, in source order) to path as a single CSV file.
func WriteCSV(path string, t *Table, cfg CsvWriterConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("vcsv: create %s: %w", path, err)
	}
	defer f.Close()
	return WriteCSVTo(f, t, cfg)
}

// WriteCSVTo writes t's full contents to an arbitrary io.Writer, letting a
// caller target anything encoding/csv can wrap (a file, a buffer, a pipe).
func WriteCSVTo(w io.Writer, t *Table, cfg CsvWriterConfig) error {
	if cfg.Separator == 0 {
		cfg.Separator = ','
	}
	cols, err := t.Merged()
	if err != nil {
		return err
	}
	sch := t.Schema()

	cw := csv.NewWriter(w)
	cw.Comma = rune(cfg.Separator)

	header := make([]string, len(sch.Columns))
	for i, c := range sch.Columns {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("vcsv: write header: %w", err)
	}

	rows := 0
	if len(cols) > 0 {
		rows = cols[0].Len()
	}
	record := make([]string, len(cols))
	for row := 0; row < rows; row++ {
		for i, col := range cols {
			value, ok := col.StringValue(row)
			if !ok {
				value = ""
			}
			record[i] = value
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("vcsv: write row %d: %w", row, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
