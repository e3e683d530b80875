// Package vcsv implements a high-throughput CSV reader that produces
// Arrow-compatible columnar output and a Parquet-shaped on-disk
// container. Orchestrates encoding detection, quote-parity-aware chunk
// planning, parallel chunk parsing, and the ordered streaming queue that
// ties parsing to either an in-memory Table or the Parquet encode/write
// pipeline. Grounded on Indexer.Run's top-to-bottom orchestration shape
// (phase sequencing, per-worker fan-out, chunk-ordered error merge).
package vcsv

import (
	"fmt"
	"sync"

	"github.com/csvquery/vcsv/internal/builder"
	"github.com/csvquery/vcsv/internal/cacheidx"
	"github.com/csvquery/vcsv/internal/common"
	"github.com/csvquery/vcsv/internal/compressor"
	"github.com/csvquery/vcsv/internal/parser"
	"github.com/csvquery/vcsv/internal/planner"
	"github.com/csvquery/vcsv/internal/schema"
	"github.com/csvquery/vcsv/internal/simdscan"
	"github.com/csvquery/vcsv/internal/stream"
)

// Reader parses one opened CSV source. Construct with New, then Open or
// OpenFromBuffer before calling ReadAll or StartStreaming.
type Reader struct {
	opts ReaderOptions

	br   *common.ByteRange
	data []byte

	header        []string
	headerEnd     int
	sch           *schema.TableSchema
	ranges        []planner.ChunkRange
	trueVals      map[string]struct{}
	falseVals     map[string]struct{}
	collector     *parser.ErrorCollector
	chunkStartRow map[int]int

	cachePath string

	queue   *stream.OrderedQueue[parser.Result]
	wg      sync.WaitGroup
	started bool
}

// New returns a Reader configured by opts (zero-value fields are defaulted
// per ReaderOptions.withDefaults).
func New(opts ReaderOptions) *Reader {
	opts = opts.withDefaults()
	infer := opts.inferOptions()
	return &Reader{
		opts:      opts,
		trueVals:  infer.TrueValues,
		falseVals: infer.FalseValues,
	}
}

// Open acquires path's contents (mmap where available) and runs the
// header/encoding/schema/chunk-planning pipeline.
func (r *Reader) Open(path string) error {
	br, err := common.OpenFile(path)
	if err != nil {
		return fmt.Errorf("vcsv: open %s: %w", path, err)
	}
	r.br = br
	if r.opts.Cache != nil {
		p, err := r.opts.Cache.Path(path)
		if err == nil {
			r.cachePath = p
		}
	}
	return r.prepare(path)
}

// OpenFromBuffer runs the same pipeline as Open over an in-memory buffer
// that the caller already holds. No cache sidecar is consulted or written
// (there is no stable path to key it on).
func (r *Reader) OpenFromBuffer(data []byte) error {
	r.br = common.NewByteRangeFromBuffer(data)
	return r.prepare("")
}

func (r *Reader) prepare(sourcePath string) error {
	data := r.br.Data
	report := common.DetectEncoding(data)
	body := data[report.BOMLength:]
	if report.NeedsTranscode {
		var transcoded []byte
		var err error
		switch report.Encoding {
		case common.EncodingWindows1252:
			transcoded = common.TranscodeWindows1252(body)
		case common.EncodingLatin1:
			transcoded = common.TranscodeLatin1(body)
		case common.EncodingUTF16LE:
			transcoded, err = common.TranscodeUTF16(body, false)
		case common.EncodingUTF16BE:
			transcoded, err = common.TranscodeUTF16(body, true)
		case common.EncodingUTF32LE:
			transcoded, err = common.TranscodeUTF32(body, false)
		case common.EncodingUTF32BE:
			transcoded, err = common.TranscodeUTF32(body, true)
		}
		// A transcoder that errors, or one that hands back zero bytes for a
		// non-empty payload, is the spec's fatal EncodingError: the source
		// claimed a wide encoding but the bytes don't actually decode.
		if err == nil && len(body) > 0 && len(transcoded) == 0 {
			err = fmt.Errorf("transcoder produced no output for %d input bytes", len(body))
		}
		if err != nil {
			return fmt.Errorf("%w: %s transcode: %v", ErrEncoding, report.Encoding, err)
		}
		r.br = common.NewByteRangeFromBuffer(transcoded)
		body = r.br.Data
	}
	r.data = body

	if err := r.loadCache(sourcePath); err == nil && r.sch != nil {
		r.collector = parser.NewErrorCollector(r.opts.ErrorMode, r.opts.MaxErrors)
		return nil
	}

	if err := r.parseHeader(); err != nil {
		return err
	}
	sampleRows := r.sampleRows(r.opts.SampleRows)
	var persisted *schema.PersistedSchema
	if sourcePath != "" {
		if ps, found, err := schema.LoadPersisted(sourcePath); err == nil {
			if found {
				r.sch = ps.TableSchema()
			}
			persisted = ps
		}
	}
	if r.sch == nil {
		r.sch = schema.InferSchema(r.header, sampleRows, r.opts.inferOptions())
		if persisted != nil {
			_ = persisted.Save(r.sch)
		}
	}

	r.planChunks()
	r.collector = parser.NewErrorCollector(r.opts.ErrorMode, r.opts.MaxErrors)
	if sourcePath != "" {
		r.saveCache(sourcePath)
	}
	return nil
}

// parseHeader skips any leading lines that begin with opts.Comment (when
// non-zero), then reads the first row. When HasHeader is false, column
// names are synthesized (col0, col1, ...) and the row is left for the data
// pass (headerEnd is the end of the skipped comment lines).
func (r *Reader) parseHeader() error {
	start := 0
	for r.opts.Comment != 0 && start < len(r.data) && r.data[start] == r.opts.Comment {
		for start < len(r.data) && r.data[start] != '\n' {
			start++
		}
		start++
	}
	if start > len(r.data) {
		start = len(r.data)
	}
	fs := simdscan.NewFieldScanner(r.data, start, false, r.opts.Separator, r.opts.Quote)
	var fields []string
	pos := start
	for {
		field, endsRow, ok := fs.Next()
		if !ok {
			break
		}
		value, _, _ := parser.Unquote(field, r.opts.Quote)
		fields = append(fields, schema.TrimHeaderName(string(value)))
		pos += len(field) + 1
		if endsRow {
			break
		}
	}
	if !r.opts.HasHeader {
		r.header = make([]string, len(fields))
		for i := range r.header {
			r.header[i] = fmt.Sprintf("col%d", i)
		}
		r.headerEnd = start
		return nil
	}
	if len(fields) == 0 || (len(fields) == 1 && fields[0] == "") {
		return ErrEmptyHeader
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			return &DuplicateColumnError{Name: f}
		}
		seen[f] = struct{}{}
	}
	r.header = fields
	r.headerEnd = pos
	return nil
}

// sampleRows scans up to n rows starting at headerEnd for type inference.
func (r *Reader) sampleRows(n int) [][]string {
	fs := simdscan.NewFieldScanner(r.data, r.headerEnd, false, r.opts.Separator, r.opts.Quote)
	var rows [][]string
	var cur []string
	for len(rows) < n {
		field, endsRow, ok := fs.Next()
		if !ok {
			break
		}
		value, _, _ := parser.Unquote(field, r.opts.Quote)
		cur = append(cur, string(value))
		if endsRow {
			rows = append(rows, cur)
			cur = nil
		}
	}
	return rows
}

func (r *Reader) planChunks() {
	target := planner.CalculateChunkSize(int64(len(r.data)-r.headerEnd), len(r.sch.Columns), r.opts.NumThreads)
	ranges := planner.PlanChunks(r.data, r.headerEnd, target, r.opts.Separator, r.opts.Quote)
	for i := range ranges {
		ranges[i].Analysis = simdscan.DualStateAnalyze(r.data, ranges[i].Start, ranges[i].End, r.opts.Separator, r.opts.Quote)
	}
	planner.LinkChunks(ranges)
	r.ranges = ranges
}

func (r *Reader) loadCache(sourcePath string) error {
	if r.opts.Cache == nil || sourcePath == "" || r.cachePath == "" {
		return fmt.Errorf("vcsv: cache disabled")
	}
	ci, ok, err := cacheidx.Load(r.cachePath, compressor.Default)
	if err != nil || !ok {
		return fmt.Errorf("vcsv: cache miss")
	}
	fresh, err := ci.IsFresh(sourcePath)
	if err != nil || !fresh {
		return fmt.Errorf("vcsv: cache stale")
	}
	r.sch = ci.Schema
	r.headerEnd = ci.HeaderEndOffset
	ranges := make([]planner.ChunkRange, len(ci.ChunkBoundaries)-1)
	for i := range ranges {
		ranges[i] = planner.ChunkRange{
			Index: i,
			Start: ci.ChunkBoundaries[i],
			End:   ci.ChunkBoundaries[i+1],
			Analysis: simdscan.ChunkAnalysis{
				EndsInsideIfStartOutside: ci.ChunkAnalysis[i].EndsInsideStartingOutside,
				RowsIfStartOutside:       ci.ChunkAnalysis[i].RowCount,
			},
		}
	}
	planner.LinkChunks(ranges)
	r.ranges = ranges
	return nil
}

// saveCache persists the planned chunk boundaries/analysis/schema; failures
// are not propagated, matching the sidecar's "presence never required for
// correctness" contract (SPEC_FULL.md §1).
func (r *Reader) saveCache(sourcePath string) {
	if r.opts.Cache == nil || r.cachePath == "" {
		return
	}
	boundaries := make([]int, 0, len(r.ranges)+1)
	analysis := make([]cacheidx.ChunkMeta, 0, len(r.ranges))
	totalRows := 0
	if len(r.ranges) > 0 {
		boundaries = append(boundaries, r.ranges[0].Start)
	}
	for _, cr := range r.ranges {
		boundaries = append(boundaries, cr.End)
		rows := cr.Analysis.RowsIfStartOutside
		if cr.StartsInsideQuote {
			rows = cr.Analysis.RowsIfStartInside
		}
		totalRows += rows
		analysis = append(analysis, cacheidx.ChunkMeta{
			RowCount:                  rows,
			EndsInsideStartingOutside: cr.Analysis.EndsInsideIfStartOutside,
		})
	}
	ci, err := cacheidx.BuildCachedIndex(sourcePath, r.headerEnd, boundaries, analysis, totalRows, r.sch, nil, nil, *r.opts.Cache)
	if err != nil {
		return
	}
	_ = ci.Save(r.cachePath, compressor.Default)
}

// Schema returns the inferred or cached column schema, valid after Open.
func (r *Reader) Schema() *schema.TableSchema { return r.sch }

// StartStreaming launches the worker pool and returns immediately; chunks
// become available via NextChunk in strictly ascending chunk-index order,
// regardless of which worker finishes first.
func (r *Reader) StartStreaming() error {
	if r.sch == nil {
		return fmt.Errorf("vcsv: StartStreaming called before a successful Open/OpenFromBuffer")
	}
	if r.started {
		return fmt.Errorf("vcsv: StartStreaming already called")
	}
	r.started = true
	r.chunkStartRow = make(map[int]int, len(r.ranges))
	r.queue = stream.NewOrderedQueue[parser.Result](r.opts.NumThreads * 2)

	indices := make(chan int)
	go func() {
		defer close(indices)
		for i := range r.ranges {
			indices <- i
		}
	}()

	for w := 0; w < r.opts.NumThreads; w++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for i := range indices {
				cr := r.ranges[i]
				res := parser.ParseChunk(r.data, cr, r.sch, r.opts.Separator, r.opts.Quote, r.trueVals, r.falseVals, r.opts.MaxFieldSize, r.collector)
				if err := r.queue.Push(i, res); err != nil {
					return
				}
			}
		}()
	}
	go func() {
		r.wg.Wait()
		r.queue.Close()
	}()
	return nil
}

// NextChunk returns the next chunk's parsed result in chunk order, or
// ok=false once every chunk has been delivered.
func (r *Reader) NextChunk() (*parser.Result, bool) {
	res, ok := r.queue.Pop()
	if !ok {
		return nil, false
	}
	return &res, true
}

// ParsedChunks is the full result of ReadAll: every chunk's columns in
// chunk order, the schema they share, and the merged, absolute-row-numbered
// parse error list (empty unless ErrorMode permits collection).
type ParsedChunks struct {
	Schema      *schema.TableSchema
	Chunks      []parser.Result
	ParseErrors []ParseError
}

// ReadAll runs the full parallel chunk parse to completion and returns
// every chunk's result, in chunk order.
func (r *Reader) ReadAll() (*ParsedChunks, error) {
	if err := r.StartStreaming(); err != nil {
		return nil, err
	}
	var chunks []parser.Result
	startRow := 0
	chunkOrder := make([]int, 0, len(r.ranges))
	for i := 0; ; i++ {
		res, ok := r.NextChunk()
		if !ok {
			break
		}
		r.chunkStartRow[i] = startRow
		startRow += res.Rows
		chunkOrder = append(chunkOrder, i)
		chunks = append(chunks, *res)
	}
	errs := r.collector.Merge(chunkOrder)
	parser.ResolveAbsoluteRows(errs, r.chunkStartRow)
	return &ParsedChunks{Schema: r.sch, Chunks: chunks, ParseErrors: errs}, nil
}

// Close releases the underlying byte range (the mmap, if any).
func (r *Reader) Close() error {
	if r.br == nil {
		return nil
	}
	return r.br.Close()
}

// mergedColumns combines every chunk's per-column builders into one
// builder per schema column, used by Table when a single contiguous
// in-memory column is wanted instead of one RecordBatch per chunk.
func mergedColumns(sch *schema.TableSchema, chunks []parser.Result) []builder.ColumnBuilder {
	cols := make([]builder.ColumnBuilder, len(sch.Columns))
	for i, c := range sch.Columns {
		cols[i] = builder.NewColumnBuilder(c.Type)
	}
	for _, chunk := range chunks {
		for i, c := range chunk.Columns {
			cols[i].MergeFrom(c)
		}
	}
	return cols
}
