// Package main provides a throughput benchmark for vcsv's CSV-to-Parquet
// conversion pipeline, adapted from cmd/benchmark's file-generation +
// timed-run shape (internal/indexer's own benchmark harness).
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/csvquery/vcsv"
)

func main() {
	sizeMB := 500
	if len(os.Args) >= 2 {
		fmt.Sscanf(os.Args[1], "%d", &sizeMB)
	}

	fmt.Printf("Generating %d MB CSV...\n", sizeMB)
	tmpDir, _ := os.MkdirTemp("", "vcsv_bench")
	defer os.RemoveAll(tmpDir)

	csvPath := filepath.Join(tmpDir, "bench.csv")
	f, err := os.Create(csvPath)
	if err != nil {
		panic(err)
	}

	w := bufio.NewWriterSize(f, 64*1024)
	w.WriteString("id,code,value,description\n")

	bytesWritten := int64(0)
	limit := int64(sizeMB) * 1024 * 1024
	rows := 0
	buf := make([]byte, 0, 1024)
	rng := rand.New(rand.NewSource(123))

	for bytesWritten < limit {
		rows++
		buf = buf[:0]
		buf = fmt.Appendf(buf, "%d,US-%d,%d,\"Description for item %d with some padding to make it longer\"\n", rows, rng.Intn(1000), rng.Intn(10000), rows)
		n, _ := w.Write(buf)
		bytesWritten += int64(n)
	}
	w.Flush()
	f.Close()

	fmt.Printf("Generated %d rows (%.2f MB)\n", rows, float64(bytesWritten)/1024/1024)
	fmt.Println("Starting conversion...")

	outPath := filepath.Join(tmpDir, "bench.vpqt")
	opts := vcsv.ConvertOptions{
		SourcePath: csvPath,
		DestPath:   outPath,
		Format:     vcsv.OutputParquet,
		NumWorkers: runtime.NumCPU(),
		Reader: vcsv.ReaderOptions{
			Separator:  ',',
			Quote:      '"',
			HasHeader:  true,
			NumThreads: runtime.NumCPU(),
		},
	}

	start := time.Now()
	result := vcsv.Convert(opts)
	elapsed := time.Since(start)
	if result.Error != "" {
		panic(result.Error)
	}

	mbPerSec := float64(bytesWritten) / 1024 / 1024 / elapsed.Seconds()
	fmt.Printf("\n--------------------------------------------------\n")
	fmt.Printf("Rows:       %d\n", result.RowsWritten)
	fmt.Printf("Throughput: %.2f MB/s\n", mbPerSec)
	fmt.Printf("Time:       %v\n", elapsed)
	fmt.Printf("--------------------------------------------------\n")
}
