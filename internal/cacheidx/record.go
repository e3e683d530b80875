package cacheidx

import (
	"encoding/binary"
	"fmt"
	"io"
)

// SampleRecord is one fixed-width entry sampled every SampleInterval rows:
// the sample's index, its absolute byte offset, and whether the scanner
// was inside a quoted field at that offset. Adapted from common.go's
// IndexRecord{Key,Offset,Line} (encoding/binary BigEndian field packing),
// repurposed from a 64-byte key + offset + line record to this cache's
// (SampleIndex, ByteOffset, QuoteState) triple.
type SampleRecord struct {
	SampleIndex int64
	ByteOffset  int64
	InsideQuote bool
}

// RecordSize is the fixed on-disk size of one SampleRecord, matching the
// fixed-width-record idiom common.go established for its own IndexRecord
// (there 80 bytes for a 64-byte key + two int64s; here a single byte flag
// replaces the key).
const RecordSize = 8 + 8 + 1

// WriteRecord serializes r to w, BigEndian, matching common.go's
// WriteRecord convention.
func WriteRecord(w io.Writer, r SampleRecord) error {
	var buf [RecordSize]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(r.SampleIndex))
	binary.BigEndian.PutUint64(buf[8:16], uint64(r.ByteOffset))
	if r.InsideQuote {
		buf[16] = 1
	}
	_, err := w.Write(buf[:])
	if err != nil {
		return fmt.Errorf("cacheidx: write record: %w", err)
	}
	return nil
}

// ReadRecord deserializes one SampleRecord from r.
func ReadRecord(r io.Reader) (SampleRecord, error) {
	var buf [RecordSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return SampleRecord{}, fmt.Errorf("cacheidx: read record: %w", err)
	}
	return SampleRecord{
		SampleIndex: int64(binary.BigEndian.Uint64(buf[0:8])),
		ByteOffset:  int64(binary.BigEndian.Uint64(buf[8:16])),
		InsideQuote: buf[16] != 0,
	}, nil
}

// WriteBatchRecords writes every record in recs sequentially.
func WriteBatchRecords(w io.Writer, recs []SampleRecord) error {
	for _, r := range recs {
		if err := WriteRecord(w, r); err != nil {
			return err
		}
	}
	return nil
}

// ReadBatchRecords reads count records sequentially.
func ReadBatchRecords(r io.Reader, count int) ([]SampleRecord, error) {
	out := make([]SampleRecord, 0, count)
	for i := 0; i < count; i++ {
		rec, err := ReadRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
