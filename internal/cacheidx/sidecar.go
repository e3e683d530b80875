package cacheidx

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/csvquery/vcsv/internal/compressor"
	"github.com/csvquery/vcsv/internal/schema"
)

// Magic and version, mirroring cache.h's VIDX_MAGIC/VIDX_VERSION, though
// this implementation replaces the original's fixed 48-byte binary header
// with a textual JSON envelope, in the teacher's own JSON-sidecar idiom
// (IndexMeta/schema.Schema).
const (
	Magic   = "VIDX"
	Version = 1
)

// Location mirrors cache.h's CacheConfig::Location.
type Location int

const (
	LocationSameDir Location = iota
	LocationXDGCache
	LocationCustom
)

// CacheConfig controls where the sidecar lives and how densely rows are
// sampled.
type CacheConfig struct {
	Location       Location
	CustomDir      string
	SampleInterval int // default 32, matching cache.h
}

// DefaultCacheConfig matches cache.h's defaults.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{Location: LocationSameDir, SampleInterval: 32}
}

// ChunkMeta mirrors cache.h's ChunkMeta: the row count and ending quote
// state recorded for a chunk under its resolved starting state.
type ChunkMeta struct {
	RowCount             int  `json:"row_count"`
	EndsInsideStartingOutside bool `json:"ends_inside_starting_outside"`
}

// CachedIndex is the full sidecar payload, matching cache.h's CachedIndex.
type CachedIndex struct {
	ModTime          int64               `json:"mtime_unix_nano"`
	Size             int64               `json:"size"`
	HeaderEndOffset  int                 `json:"header_end_offset"`
	NumColumns       int                 `json:"num_columns"`
	TotalRows        int                 `json:"total_rows"`
	SampleInterval   int                 `json:"sample_interval"`
	ChunkBoundaries  []int               `json:"chunk_boundaries"`
	ChunkAnalysis    []ChunkMeta         `json:"chunk_analysis"`
	Schema           *schema.TableSchema `json:"schema"`
	sampledOffsets   *EliasFano
	sampleQuoteState []bool
}

type envelope struct {
	Magic          string          `json:"magic"`
	Version        int             `json:"version"`
	Index          json.RawMessage `json:"index"`
	SampledOffsets []byte          `json:"sampled_offsets"`
	QuoteStates    []bool          `json:"sample_quote_states"`
}

// Path returns the on-disk sidecar path for csvPath under cfg.
func (cfg CacheConfig) Path(csvPath string) (string, error) {
	base := filepath.Base(csvPath) + ".vcidx"
	switch cfg.Location {
	case LocationSameDir:
		return filepath.Join(filepath.Dir(csvPath), base), nil
	case LocationXDGCache:
		dir := os.Getenv("XDG_CACHE_HOME")
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cacheidx: resolve XDG cache dir: %w", err)
			}
			dir = filepath.Join(home, ".cache")
		}
		return filepath.Join(dir, "vcsv", base), nil
	case LocationCustom:
		return filepath.Join(cfg.CustomDir, base), nil
	default:
		return "", fmt.Errorf("cacheidx: unknown cache location %d", cfg.Location)
	}
}

// IsFresh reports whether ci matches the current (size, mtime) of csvPath.
// Per the design notes in SPEC_FULL.md (§10), a changed file that
// happens to retain the same size and mtime is an accepted false positive,
// not a defect - matching the original's own validation contract.
func (ci *CachedIndex) IsFresh(csvPath string) (bool, error) {
	fi, err := os.Stat(csvPath)
	if err != nil {
		return false, fmt.Errorf("cacheidx: stat %s: %w", csvPath, err)
	}
	return fi.Size() == ci.Size && fi.ModTime().UnixNano() == ci.ModTime, nil
}

// SampledOffset returns the byte offset and quote state of the i-th sample.
func (ci *CachedIndex) SampledOffset(i int) (offset int64, insideQuote bool, err error) {
	if ci.sampledOffsets == nil {
		return 0, false, fmt.Errorf("cacheidx: sampled offsets not loaded")
	}
	off, err := ci.sampledOffsets.Select(i)
	if err != nil {
		return 0, false, err
	}
	if i >= len(ci.sampleQuoteState) {
		return int64(off), false, nil
	}
	return int64(off), ci.sampleQuoteState[i], nil
}

// Save writes ci to path, compressing the Elias-Fano sampled-offset block
// with the default Compressor (lz4), matching cidx.go's
// lz4.NewWriter/BlockSizeOption(Block64Kb) usage for its own block bodies.
func (ci *CachedIndex) Save(path string, comp compressor.Compressor) error {
	indexJSON, err := json.Marshal(ci)
	if err != nil {
		return fmt.Errorf("cacheidx: marshal index: %w", err)
	}
	var efBytes []byte
	if ci.sampledOffsets != nil {
		efBytes = ci.sampledOffsets.Serialize()
	}
	compressed, err := comp.Compress(efBytes)
	if err != nil {
		return fmt.Errorf("cacheidx: compress sampled offsets: %w", err)
	}
	env := envelope{
		Magic:          Magic,
		Version:        Version,
		Index:          indexJSON,
		SampledOffsets: compressed,
		QuoteStates:    ci.sampleQuoteState,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("cacheidx: marshal envelope: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cacheidx: mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cacheidx: write %s: %w", path, err)
	}
	return nil
}

// Load reads and decompresses the sidecar at path. A missing file is not
// an error: ok is false and the caller should fall back to a fresh scan.
func Load(path string, comp compressor.Compressor) (ci *CachedIndex, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cacheidx: read %s: %w", path, err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false, fmt.Errorf("cacheidx: unmarshal envelope %s: %w", path, err)
	}
	if env.Magic != Magic {
		return nil, false, fmt.Errorf("cacheidx: bad magic in %s", path)
	}
	ci = &CachedIndex{}
	if err := json.Unmarshal(env.Index, ci); err != nil {
		return nil, false, fmt.Errorf("cacheidx: unmarshal index %s: %w", path, err)
	}
	if len(env.SampledOffsets) > 0 {
		raw, err := comp.Decompress(env.SampledOffsets, 0)
		if err != nil {
			return nil, false, fmt.Errorf("cacheidx: decompress sampled offsets: %w", err)
		}
		if len(raw) > 0 {
			ef, err := DeserializeEliasFano(raw)
			if err != nil {
				return nil, false, fmt.Errorf("cacheidx: deserialize elias-fano: %w", err)
			}
			ci.sampledOffsets = ef
		}
	}
	ci.sampleQuoteState = env.QuoteStates
	return ci, true, nil
}

// BuildCachedIndex assembles a CachedIndex from a completed scan: the file
// stat, header end offset, planned chunk boundaries/analysis, inferred
// schema, and a sampled-offset sequence (every cfg.SampleInterval rows).
func BuildCachedIndex(csvPath string, headerEnd int, chunkBoundaries []int, analysis []ChunkMeta, totalRows int, sch *schema.TableSchema, sampleOffsets []uint64, sampleQuoteStates []bool, cfg CacheConfig) (*CachedIndex, error) {
	fi, err := os.Stat(csvPath)
	if err != nil {
		return nil, fmt.Errorf("cacheidx: stat %s: %w", csvPath, err)
	}
	ci := &CachedIndex{
		ModTime:          fi.ModTime().UnixNano(),
		Size:             fi.Size(),
		HeaderEndOffset:  headerEnd,
		NumColumns:       len(sch.Columns),
		TotalRows:        totalRows,
		SampleInterval:   cfg.SampleInterval,
		ChunkBoundaries:  chunkBoundaries,
		ChunkAnalysis:    analysis,
		Schema:           sch,
		sampleQuoteState: sampleQuoteStates,
	}
	if len(sampleOffsets) > 0 {
		universe := sampleOffsets[len(sampleOffsets)-1]
		ef, err := EncodeEliasFano(sampleOffsets, universe)
		if err != nil {
			return nil, fmt.Errorf("cacheidx: encode sampled offsets: %w", err)
		}
		ci.sampledOffsets = ef
	}
	return ci, nil
}

// touchForTest is only used by tests that need a deterministic mtime.
func touchForTest(path string, t time.Time) error {
	return os.Chtimes(path, t, t)
}
