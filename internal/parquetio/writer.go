// Package parquetio implements the Parquet-shaped encode/write pipeline:
// parallel per-row-group column encoding (Stage E) feeding a single
// ordered writer (Stage W), and a minimal, self-describing on-disk
// container that exercises the same concurrency/ordering contract a real
// Parquet/Thrift footer encoder would sit behind (the byte-exact Parquet
// metadata format is explicitly out of scope - see DESIGN.md). Grounded on
// Sorter's external-merge-sort pipeline shape and cidx.go's BlockWriter
// (magic header, per-block metadata, footer at Close) in entreya-csvquery.
package parquetio

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/csvquery/vcsv/internal/builder"
	"github.com/csvquery/vcsv/internal/compressor"
	"github.com/csvquery/vcsv/internal/schema"
)

// Magic brackets the start and end of the container file.
const Magic = "VPQT"

// EncodedColumn is one column's compressed, self-describing on-disk body.
type EncodedColumn struct {
	Name       string
	Type       schema.DataType
	RawLen     int
	Compressed []byte
	NullCount  int
}

// EncodedRowGroup is a fully encoded row group, ready for Stage W to write
// in submission order.
type EncodedRowGroup struct {
	Index   int
	NumRows int
	Columns []EncodedColumn
}

// PageEncoder turns one column builder into its on-disk EncodedColumn. A
// byte-exact Parquet page encoder (dictionary pages, RLE/bit-packed
// definition levels) would implement this same interface.
type PageEncoder interface {
	EncodeColumn(name string, col builder.ColumnBuilder, comp compressor.Compressor) (EncodedColumn, error)
}

// DefaultPageEncoder serializes numeric columns as little-endian fixed-
// width arrays and string columns as offsets+data, then compresses the
// whole body with the pipeline's Compressor.
type DefaultPageEncoder struct{}

func (DefaultPageEncoder) EncodeColumn(name string, col builder.ColumnBuilder, comp compressor.Compressor) (EncodedColumn, error) {
	raw := col.RawBytes()
	compressed, err := comp.Compress(raw)
	if err != nil {
		return EncodedColumn{}, fmt.Errorf("parquetio: compress column %s: %w", name, err)
	}
	return EncodedColumn{
		Name:       name,
		Type:       col.Type(),
		RawLen:     len(raw),
		Compressed: compressed,
		NullCount:  col.NullCount(),
	}, nil
}

// GroupFooterEntry records one row group's location for the JSON footer.
type GroupFooterEntry struct {
	Index        int              `json:"index"`
	NumRows      int              `json:"num_rows"`
	Offset       int64            `json:"offset"`
	ColumnOffsets []ColumnFooter  `json:"columns"`
}

// ColumnFooter records one column body's location/stats within a row group.
type ColumnFooter struct {
	Name       string          `json:"name"`
	Type       schema.DataType `json:"type"`
	Offset     int64           `json:"offset"`
	RawLen     int             `json:"raw_len"`
	CompLen    int             `json:"comp_len"`
	NullCount  int             `json:"null_count"`
}

// Footer is the JSON metadata block written once, at the end of the file,
// the way a real Parquet footer would hold its Thrift-encoded schema and
// row-group index.
type Footer struct {
	Compressor string             `json:"compressor"`
	Schema     *schema.TableSchema `json:"schema"`
	RowGroups  []GroupFooterEntry `json:"row_groups"`
	TotalRows  int                `json:"total_rows"`
}

// ContainerWriter is the single-threaded ordered writer (Stage W): it
// accepts EncodedRowGroups strictly in index order and serializes them,
// tracking byte offsets for the trailing footer.
type ContainerWriter struct {
	w          io.Writer
	offset     int64
	compressor string
	schema     *schema.TableSchema
	groups     []GroupFooterEntry
	totalRows  int
}

// NewContainerWriter writes the opening magic and returns a writer ready to
// accept row groups.
func NewContainerWriter(w io.Writer, sch *schema.TableSchema, compName string) (*ContainerWriter, error) {
	n, err := io.WriteString(w, Magic)
	if err != nil {
		return nil, fmt.Errorf("parquetio: write magic: %w", err)
	}
	return &ContainerWriter{w: w, offset: int64(n), schema: sch, compressor: compName}, nil
}

// WriteRowGroup appends one encoded row group to the file. Groups must be
// supplied in strictly ascending Index order (enforced by the caller via
// an OrderedQueue upstream).
func (cw *ContainerWriter) WriteRowGroup(rg EncodedRowGroup) error {
	entry := GroupFooterEntry{Index: rg.Index, NumRows: rg.NumRows, Offset: cw.offset}
	groupHeader := [8]byte{}
	binary.LittleEndian.PutUint32(groupHeader[0:4], uint32(rg.Index))
	binary.LittleEndian.PutUint32(groupHeader[4:8], uint32(len(rg.Columns)))
	if err := cw.write(groupHeader[:]); err != nil {
		return err
	}
	for _, col := range rg.Columns {
		colEntry := ColumnFooter{
			Name: col.Name, Type: col.Type, Offset: cw.offset,
			RawLen: col.RawLen, CompLen: len(col.Compressed), NullCount: col.NullCount,
		}
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(col.Compressed)))
		if err := cw.write(lenBuf[:]); err != nil {
			return err
		}
		if err := cw.write(col.Compressed); err != nil {
			return err
		}
		entry.ColumnOffsets = append(entry.ColumnOffsets, colEntry)
	}
	cw.groups = append(cw.groups, entry)
	cw.totalRows += rg.NumRows
	return nil
}

func (cw *ContainerWriter) write(b []byte) error {
	n, err := cw.w.Write(b)
	cw.offset += int64(n)
	if err != nil {
		return fmt.Errorf("parquetio: write: %w", err)
	}
	return nil
}

// Finish writes the footer's 8-byte length, the JSON footer, and the
// closing magic,
// matching cidx.go's "footer written at Close()" shape.
func (cw *ContainerWriter) Finish() error {
	footer := Footer{
		Compressor: cw.compressor,
		Schema:     cw.schema,
		RowGroups:  cw.groups,
		TotalRows:  cw.totalRows,
	}
	data, err := json.Marshal(footer)
	if err != nil {
		return fmt.Errorf("parquetio: marshal footer: %w", err)
	}
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(data)))
	if err := cw.write(lenBuf[:]); err != nil {
		return err
	}
	if err := cw.write(data); err != nil {
		return err
	}
	if err := cw.write([]byte(Magic)); err != nil {
		return err
	}
	return nil
}
