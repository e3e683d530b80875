package vcsv

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeTempCSV(t *testing.T, data string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.csv")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestConvertToParquetWritesBracketingMagic(t *testing.T) {
	src := writeTempCSV(t, "id,value\n1,1.5\n2,2.5\n3,3.5\n")
	dest := filepath.Join(filepath.Dir(src), "out.vpqt")

	result := Convert(ConvertOptions{
		SourcePath: src,
		DestPath:   dest,
		Format:     OutputParquet,
		Reader:     DefaultReaderOptions(),
	})
	if result.Error != "" {
		t.Fatalf("Convert: %s", result.Error)
	}
	if result.RowsWritten != 3 {
		t.Fatalf("RowsWritten = %d, want 3", result.RowsWritten)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("VPQT")) || !bytes.HasSuffix(data, []byte("VPQT")) {
		t.Fatalf("expected VPQT magic bracketing the output file")
	}
}

func TestConvertToTableAssemblesInMemory(t *testing.T) {
	src := writeTempCSV(t, "a,b\n1,2\n3,4\n")

	result := Convert(ConvertOptions{
		SourcePath: src,
		Format:     OutputTable,
		Reader:     DefaultReaderOptions(),
	})
	if result.Error != "" {
		t.Fatalf("Convert: %s", result.Error)
	}
	if result.Table == nil {
		t.Fatal("expected a non-nil Table for OutputTable")
	}
	if result.Table.NumRows() != 2 {
		t.Fatalf("NumRows = %d, want 2", result.Table.NumRows())
	}
}

func TestConvertMissingDestPathFails(t *testing.T) {
	src := writeTempCSV(t, "a\n1\n")
	result := Convert(ConvertOptions{SourcePath: src, Format: OutputParquet, Reader: DefaultReaderOptions()})
	if result.Error == "" {
		t.Fatal("expected an error when DestPath is empty for OutputParquet")
	}
}

func TestConvertMissingSourceFails(t *testing.T) {
	result := Convert(ConvertOptions{SourcePath: "/nonexistent/path.csv", Reader: DefaultReaderOptions()})
	if result.Error == "" {
		t.Fatal("expected an error for a nonexistent source path")
	}
}
