package vcsv

import (
	"runtime"

	"github.com/csvquery/vcsv/internal/cacheidx"
	"github.com/csvquery/vcsv/internal/parser"
	"github.com/csvquery/vcsv/internal/schema"
)

// CacheConfig controls the persistent index-cache sidecar (C13),
// re-exported from internal/cacheidx so callers never import an internal
// package to configure ReaderOptions.Cache.
type CacheConfig = cacheidx.CacheConfig

// DefaultCacheConfig returns cacheidx's own defaults: sidecar stored next
// to the source file, one sample recorded every 32 rows.
func DefaultCacheConfig() CacheConfig { return cacheidx.DefaultCacheConfig() }

// ErrorMode controls how the reader reacts to a recoverable parse error,
// re-exported from internal/parser so callers configure it directly on
// ReaderOptions.
type ErrorMode = parser.ErrorMode

const (
	ErrorModeDisabled = parser.ErrorModeDisabled
	ErrorModeCollect  = parser.ErrorModeCollect
	ErrorModeFailFast = parser.ErrorModeFailFast
)

// ReaderOptions configures a Reader. The zero value is not directly usable
// for Separator/SampleRows/NumThreads - New fills those in the way
// IndexerConfig/DaemonConfig default-fill their zero values in the
// teacher (`if cfg.MaxConcurrency <= 0 { cfg.MaxConcurrency = 50 }`).
// Quote, by contrast, follows the distilled spec's own convention: the Go
// zero value (0) means quoting is disabled, so DefaultReaderOptions sets
// it to '"' explicitly rather than New silently reintroducing it.
type ReaderOptions struct {
	Separator     byte
	Quote         byte // 0 disables quoting
	Comment       byte // 0 disables comment-line skipping (pre-data region only)
	HasHeader     bool
	SkipEmptyRows bool
	NullValues    []string
	TrueValues    []string
	FalseValues   []string
	SampleRows    int
	NumThreads    int
	ErrorMode     ErrorMode
	MaxErrors     int
	// MaxFieldSize caps a raw field's byte length before it is unquoted; 0
	// means unlimited. A field over the cap is truncated and recorded as a
	// recoverable FieldTooLarge error rather than failing the whole row.
	MaxFieldSize int
	// Cache enables the persistent index-cache sidecar (C13) when non-nil.
	// A cache miss or stale cache is never an error - the reader falls back
	// to a fresh scan.
	Cache *cacheidx.CacheConfig
}

// DefaultReaderOptions returns the recommended option set: comma-separated,
// double-quoted, a header row present, 1000 sample rows, NumThreads 0
// (which New resolves to hardware concurrency), and errors silently nulled
// rather than collected (ErrorModeDisabled, matching the original's own
// default). New given a zero-valued ReaderOptions fills in only
// Separator, SampleRows and NumThreads; quoting and the header stay off.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		Separator:  ',',
		Quote:      '"',
		HasHeader:  true,
		SampleRows: schema.DefaultSampleRows,
		ErrorMode:  ErrorModeDisabled,
	}
}

// withDefaults fills the fields whose zero value is never a sensible
// runtime choice (Separator, SampleRows, NumThreads). Quote and Comment
// are left untouched: 0 is a meaningful, intentional value for both
// (quoting/comment-skipping disabled).
func (o ReaderOptions) withDefaults() ReaderOptions {
	if o.Separator == 0 {
		o.Separator = ','
	}
	if o.SampleRows <= 0 {
		o.SampleRows = schema.DefaultSampleRows
	}
	if o.NumThreads <= 0 {
		o.NumThreads = runtime.NumCPU()
	}
	return o
}

func (o ReaderOptions) inferOptions() schema.InferOptions {
	base := schema.DefaultInferOptions()
	if len(o.NullValues) > 0 {
		base.NullValues = toSet(o.NullValues)
	}
	if len(o.TrueValues) > 0 {
		base.TrueValues = toSet(o.TrueValues)
	}
	if len(o.FalseValues) > 0 {
		base.FalseValues = toSet(o.FalseValues)
	}
	base.SampleRows = o.SampleRows
	return base
}

func toSet(vals []string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}
