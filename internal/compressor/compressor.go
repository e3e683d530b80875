// Package compressor defines the pluggable compression codec interface
// used by both the Parquet-shaped encode/write pipeline and the persistent
// cache sidecar. Grounded on cidx.go's use of github.com/pierrec/lz4/v4 as
// the teacher's own compression dependency.
package compressor

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// Compressor is the swappable codec boundary: a real Parquet encoder would
// sit behind the same interface to produce byte-exact Snappy/ZSTD page
// bodies; this module ships only the lz4 implementation the teacher itself
// depends on.
type Compressor interface {
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte, sizeHint int) ([]byte, error)
	Name() string
}

// LZ4Compressor wraps pierrec/lz4 with the same 64KiB block size the
// teacher's BlockWriter configures in cidx.go.
type LZ4Compressor struct{}

func (LZ4Compressor) Name() string { return "lz4" }

func (LZ4Compressor) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if err := w.Apply(lz4.BlockSizeOption(lz4.Block64Kb)); err != nil {
		return nil, fmt.Errorf("compressor: apply lz4 options: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("compressor: lz4 write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compressor: lz4 close: %w", err)
	}
	return buf.Bytes(), nil
}

func (LZ4Compressor) Decompress(src []byte, sizeHint int) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))
	dst := make([]byte, 0, sizeHint)
	buf := bytes.NewBuffer(dst)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("compressor: lz4 read: %w", err)
	}
	return buf.Bytes(), nil
}

// Default is the module-wide default codec.
var Default Compressor = LZ4Compressor{}
