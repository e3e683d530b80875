package vcsv

import (
	"fmt"
	"io"
	"os"

	"github.com/csvquery/vcsv/internal/compressor"
	"github.com/csvquery/vcsv/internal/parquetio"
	"github.com/csvquery/vcsv/internal/parser"
	"github.com/csvquery/vcsv/internal/schema"
)

// OutputFormat selects what Convert produces from a parsed source.
type OutputFormat int

const (
	// OutputParquet streams parsed chunks straight into the Parquet-shaped
	// encode/write pipeline without ever materializing a full in-memory
	// Table, the path a large-file conversion should take.
	OutputParquet OutputFormat = iota
	// OutputTable parses the full source into memory and returns it as a
	// Table, for callers that want the Arrow-stream-shaped in-process
	// result rather than an on-disk file.
	OutputTable
)

// ConvertOptions configures a single Convert call: where to read from,
// what to produce, and how.
type ConvertOptions struct {
	SourcePath string
	Reader     ReaderOptions
	Format     OutputFormat

	// DestPath is required for OutputParquet; ignored for OutputTable.
	DestPath string
	// Compression names the parquetio page compressor (defaults to
	// compressor.Default's name, currently "lz4"). compressor.Default is
	// the only compressor, so any other name makes Convert fail.
	Compression string
	// NumWorkers bounds the Stage E (encode) worker pool; defaults to
	// ReaderOptions.NumThreads.
	NumWorkers int
}

// ConvertResult summarizes a completed (or partially completed) Convert
// call: the schema involved, how many rows/chunks were processed, any
// parse errors collected along the way, and a non-empty Error only when a
// fatal condition prevented completion - matching §8's "Convert's result
// always populates ParseErrors when the error mode permits collection, and
// its Error string is non-empty only when a fatal condition prevented
// completion" propagation policy.
type ConvertResult struct {
	Schema      *schema.TableSchema
	RowsWritten int
	ParseErrors []ParseError
	Table       *Table // set only when Format == OutputTable
	Error       string
}

// Convert is the single top-level orchestration entry point (C16): it
// opens SourcePath per opts.Reader, then either streams the result into a
// Parquet-shaped container at opts.DestPath or assembles an in-memory
// Table, depending on opts.Format.
func Convert(opts ConvertOptions) ConvertResult {
	r := New(opts.Reader)
	if err := r.Open(opts.SourcePath); err != nil {
		return ConvertResult{Error: err.Error()}
	}
	defer r.Close()

	switch opts.Format {
	case OutputTable:
		return convertToTable(r)
	default:
		return convertToParquet(r, opts)
	}
}

func convertToTable(r *Reader) ConvertResult {
	pc, err := r.ReadAll()
	if err != nil {
		return ConvertResult{Schema: r.Schema(), Error: err.Error()}
	}
	rows := 0
	for _, c := range pc.Chunks {
		rows += c.Rows
	}
	return ConvertResult{
		Schema:      pc.Schema,
		RowsWritten: rows,
		ParseErrors: pc.ParseErrors,
		Table:       NewTable(pc),
	}
}

func convertToParquet(r *Reader, opts ConvertOptions) ConvertResult {
	if opts.DestPath == "" {
		return ConvertResult{Schema: r.Schema(), Error: "vcsv: Convert: DestPath required for OutputParquet"}
	}
	f, err := os.Create(opts.DestPath)
	if err != nil {
		return ConvertResult{Schema: r.Schema(), Error: fmt.Sprintf("vcsv: create %s: %v", opts.DestPath, err)}
	}
	defer f.Close()

	comp := opts.Compression
	if comp == "" {
		comp = compressor.Default.Name()
	}
	if comp != compressor.Default.Name() {
		return ConvertResult{Schema: r.Schema(), Error: fmt.Sprintf("vcsv: unsupported compression %q", comp)}
	}
	numWorkers := opts.NumWorkers
	if numWorkers <= 0 {
		numWorkers = opts.Reader.NumThreads
	}

	if err := r.StartStreaming(); err != nil {
		return ConvertResult{Schema: r.Schema(), Error: err.Error()}
	}

	chunks := make(chan parquetio.ChunkColumns)
	chunkStartRow := map[int]int{}
	chunkOrder := make([]int, 0)
	startRow := 0
	rows := 0

	go func() {
		defer close(chunks)
		for i := 0; ; i++ {
			res, ok := r.NextChunk()
			if !ok {
				return
			}
			chunkStartRow[i] = startRow
			startRow += res.Rows
			rows += res.Rows
			chunkOrder = append(chunkOrder, i)
			chunks <- parquetio.ChunkColumns{Index: i, NumRows: res.Rows, Columns: res.Columns}
		}
	}()

	var out io.Writer = f
	pipelineErr := parquetio.RunPipeline(out, r.Schema(), comp, chunks, parquetio.DefaultPageEncoder{}, numWorkers)

	errs := r.collector.Merge(chunkOrder)
	parser.ResolveAbsoluteRows(errs, chunkStartRow)

	result := ConvertResult{Schema: r.Schema(), RowsWritten: rows, ParseErrors: errs}
	if pipelineErr != nil {
		result.Error = pipelineErr.Error()
	}
	return result
}
