package parquetio

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/csvquery/vcsv/internal/builder"
	"github.com/csvquery/vcsv/internal/compressor"
	"github.com/csvquery/vcsv/internal/schema"
)

func int32Column(vals ...int32) builder.ColumnBuilder {
	b := builder.NewColumnBuilder(schema.Int32)
	ctx := builder.NewAppendContexts([]builder.ColumnBuilder{b}, nil, nil)[0]
	for _, v := range vals {
		if err := ctx.AppendValue(strconv.Itoa(int(v))); err != nil {
			panic(err)
		}
	}
	return b
}

func TestBatchRowGroupsMergesNumericOnlySchema(t *testing.T) {
	sch := &schema.TableSchema{Columns: []schema.ColumnSchema{{Name: "n", Type: schema.Int32}}}
	in := make(chan ChunkColumns, 4)
	in <- ChunkColumns{Index: 0, NumRows: 1, Columns: []builder.ColumnBuilder{int32Column(1)}}
	in <- ChunkColumns{Index: 1, NumRows: 1, Columns: []builder.ColumnBuilder{int32Column(2)}}
	close(in)

	out := batchRowGroups(sch, in)
	var groups []rowGroupInput
	for g := range out {
		groups = append(groups, g)
	}
	if len(groups) != 1 {
		t.Fatalf("expected chunks under threshold to merge into 1 row group, got %d", len(groups))
	}
	if groups[0].NumRows != 2 {
		t.Fatalf("NumRows = %d, want 2", groups[0].NumRows)
	}
}

func TestBatchRowGroupsOneGroupPerChunkWithStringColumn(t *testing.T) {
	sch := &schema.TableSchema{Columns: []schema.ColumnSchema{{Name: "s", Type: schema.String}}}
	in := make(chan ChunkColumns, 4)
	sb1 := builder.NewColumnBuilder(schema.String)
	sb2 := builder.NewColumnBuilder(schema.String)
	in <- ChunkColumns{Index: 0, NumRows: 1, Columns: []builder.ColumnBuilder{sb1}}
	in <- ChunkColumns{Index: 1, NumRows: 1, Columns: []builder.ColumnBuilder{sb2}}
	close(in)

	out := batchRowGroups(sch, in)
	var groups []rowGroupInput
	for g := range out {
		groups = append(groups, g)
	}
	if len(groups) != 2 {
		t.Fatalf("expected one row group per chunk for a string schema, got %d", len(groups))
	}
}

func TestRunPipelineRoundTripsThroughContainerWriter(t *testing.T) {
	sch := &schema.TableSchema{Columns: []schema.ColumnSchema{{Name: "n", Type: schema.Int32}}}
	chunks := make(chan ChunkColumns, 3)
	chunks <- ChunkColumns{Index: 0, NumRows: 1, Columns: []builder.ColumnBuilder{int32Column(10)}}
	chunks <- ChunkColumns{Index: 1, NumRows: 1, Columns: []builder.ColumnBuilder{int32Column(20)}}
	chunks <- ChunkColumns{Index: 2, NumRows: 1, Columns: []builder.ColumnBuilder{int32Column(30)}}
	close(chunks)

	var buf bytes.Buffer
	if err := RunPipeline(&buf, sch, compressor.LZ4Compressor{}.Name(), chunks, DefaultPageEncoder{}, 2); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	if !bytes.HasPrefix(data, []byte(Magic)) {
		t.Fatalf("missing opening magic")
	}
	if !bytes.HasSuffix(data, []byte(Magic)) {
		t.Fatalf("missing closing magic")
	}
	if len(data) <= 2*len(Magic) {
		t.Fatalf("expected row group and footer bytes between the magic markers")
	}
}
