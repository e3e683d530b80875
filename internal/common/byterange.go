// Package common provides the low-level byte-range acquisition and
// encoding-detection primitives shared by every other package in the
// module.
package common

import (
	"fmt"
	"io"
	"os"
)

// OverreadPad is the number of extra zero bytes readable past the logical
// end of an owned ByteRange's Data (NewByteRangeFromReader,
// NewByteRangeFromBuffer, and the empty-file case of OpenFile). A
// memory-mapped range carries no pad. The scanner never reads past the
// logical end, so it does not depend on the pad.
const OverreadPad = 64

// ByteRange is a read-only view over a contiguous span of a file, acquired
// either via mmap or via an owned, heap-allocated buffer. Callers must call
// Close exactly once.
type ByteRange struct {
	Data   []byte // logical bytes, length == Len
	Len    int
	mapped []byte // non-nil when backed by mmap; Data is mapped[:Len]
	owned  bool
}

// OpenFile acquires a ByteRange over the entire contents of path. On
// platforms where mmap is available the range is backed by a memory
// mapping; otherwise the file is read fully into an owned, padded buffer.
func OpenFile(path string) (*ByteRange, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("common: open %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("common: stat %s: %w", path, err)
	}
	size := fi.Size()
	if size == 0 {
		return &ByteRange{Data: make([]byte, OverreadPad)[:0], owned: true}, nil
	}

	data, err := mmapFile(f, size)
	if err == nil {
		return &ByteRange{Data: data[:size], mapped: data, Len: int(size)}, nil
	}
	// fall back to an owned buffer on any mmap failure (e.g. unsupported
	// filesystem, platform without mmap support).
	if _, serr := f.Seek(0, io.SeekStart); serr != nil {
		return nil, fmt.Errorf("common: seek %s: %w", path, serr)
	}
	return NewByteRangeFromReader(f, int(size))
}

// NewByteRangeFromReader reads all of r into an owned, padded buffer. sizeHint
// may be 0 if unknown.
func NewByteRangeFromReader(r io.Reader, sizeHint int) (*ByteRange, error) {
	buf := make([]byte, 0, sizeHint+OverreadPad)
	tmp := make([]byte, 0, sizeHint)
	tmp, err := readAll(r, tmp)
	if err != nil {
		return nil, fmt.Errorf("common: read: %w", err)
	}
	buf = append(buf[:0], tmp...)
	buf = append(buf, make([]byte, OverreadPad)...)
	return &ByteRange{Data: buf[:len(tmp)], Len: len(tmp), owned: true}, nil
}

// NewByteRangeFromBuffer copies an in-memory buffer into a new owned
// buffer followed by the overread pad. Used by OpenFromBuffer callers that already
// hold the full CSV payload in memory.
func NewByteRangeFromBuffer(b []byte) *ByteRange {
	padded := make([]byte, len(b)+OverreadPad)
	copy(padded, b)
	return &ByteRange{Data: padded[:len(b)], Len: len(b), owned: true}
}

// Slice returns a sub-range [start,end) sharing the same backing storage.
// The overread pad is only valid for the final slice ending at Len.
func (br *ByteRange) Slice(start, end int) []byte {
	return br.Data[start:end]
}

// Close releases the mmap, if any. Safe to call on owned-buffer ranges.
func (br *ByteRange) Close() error {
	if br.mapped != nil {
		err := munmapFile(br.mapped)
		br.mapped = nil
		return err
	}
	return nil
}

func readAll(r io.Reader, buf []byte) ([]byte, error) {
	for {
		if len(buf) == cap(buf) {
			buf = append(buf, 0)[:len(buf)]
		}
		n, err := r.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if err != nil {
			if err == io.EOF {
				return buf, nil
			}
			return buf, err
		}
	}
}
