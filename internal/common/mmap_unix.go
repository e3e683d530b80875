//go:build !windows

package common

import (
	"fmt"
	"os"
	"syscall"
)

// mmapFile memory-maps the first size bytes of f read-only.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	if size == 0 {
		return nil, fmt.Errorf("common: cannot mmap empty file")
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("common: mmap: %w", err)
	}
	return data, nil
}

// munmapFile unmaps a region previously returned by mmapFile.
func munmapFile(data []byte) error {
	if data == nil {
		return nil
	}
	if err := syscall.Munmap(data); err != nil {
		return fmt.Errorf("common: munmap: %w", err)
	}
	return nil
}
