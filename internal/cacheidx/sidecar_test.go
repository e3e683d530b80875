package cacheidx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/csvquery/vcsv/internal/compressor"
	"github.com/csvquery/vcsv/internal/schema"
)

func TestSidecarSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(csvPath, []byte("a,b\n1,2\n3,4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sch := &schema.TableSchema{Columns: []schema.ColumnSchema{
		{Name: "a", Type: schema.Int32},
		{Name: "b", Type: schema.Int32},
	}}
	cfg := DefaultCacheConfig()
	ci, err := BuildCachedIndex(csvPath, 4, []int{4, 12}, []ChunkMeta{{RowCount: 2}}, 2, sch,
		[]uint64{4, 8}, []bool{false, false}, cfg)
	if err != nil {
		t.Fatal(err)
	}

	sidecarPath, err := cfg.Path(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	comp := compressor.LZ4Compressor{}
	if err := ci.Save(sidecarPath, comp); err != nil {
		t.Fatal(err)
	}

	loaded, ok, err := Load(sidecarPath, comp)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	fresh, err := loaded.IsFresh(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !fresh {
		t.Fatalf("expected loaded index to be fresh")
	}
	if loaded.TotalRows != 2 {
		t.Fatalf("TotalRows = %d, want 2", loaded.TotalRows)
	}
	off, _, err := loaded.SampledOffset(1)
	if err != nil {
		t.Fatal(err)
	}
	if off != 8 {
		t.Fatalf("SampledOffset(1) = %d, want 8", off)
	}
}

func TestSidecarStaleAfterModification(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "data.csv")
	os.WriteFile(csvPath, []byte("a,b\n1,2\n"), 0o644)
	sch := &schema.TableSchema{Columns: []schema.ColumnSchema{{Name: "a", Type: schema.Int32}}}
	cfg := DefaultCacheConfig()
	ci, err := BuildCachedIndex(csvPath, 4, nil, nil, 1, sch, nil, nil, cfg)
	if err != nil {
		t.Fatal(err)
	}
	// Simulate a file that grew after the cache was built.
	os.WriteFile(csvPath, []byte("a,b\n1,2\n3,4\n5,6\n"), 0o644)
	fresh, err := ci.IsFresh(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if fresh {
		t.Fatalf("expected stale cache to be detected via size mismatch")
	}
}
