//go:build windows

package common

import (
	"fmt"
	"os"
)

// mmapFile always fails on Windows, matching the teacher's own documented
// Windows fallback (no unsafe pointer arithmetic without an external mmap
// library): OpenFile's caller falls back to NewByteRangeFromReader, which
// allocates the mandatory overread pad that a bare io.ReadAll would not.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	return nil, fmt.Errorf("common: mmap not implemented on windows")
}

// munmapFile is a no-op: the Windows path never actually maps memory.
func munmapFile(data []byte) error {
	return nil
}
