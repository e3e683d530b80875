// Package main provides the vcsv CLI - a high-throughput CSV to
// Arrow/Parquet conversion tool.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/csvquery/vcsv"
)

const Version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "convert":
		runConvert(os.Args[2:])
	case "schema":
		runSchema(os.Args[2:])
	case "version":
		fmt.Printf("vcsv v%s\n", Version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`vcsv - high-throughput CSV reader and Parquet-shaped converter

Usage:
    vcsv <command> [arguments]

Commands:
    convert  Convert a CSV file to a Parquet-shaped container
    schema   Print a CSV file's inferred schema
    version  Show version
    help     Show this help

Use "vcsv <command> --help" for command-specific options.`)
}

func runConvert(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)

	input := fs.String("input", "", "Input CSV file path")
	output := fs.String("output", "", "Output .vpqt file path")
	separator := fs.String("separator", ",", "CSV field separator")
	compression := fs.String("compression", "lz4", "Page compression codec")
	workers := fs.Int("workers", runtime.NumCPU(), "Number of parallel workers")
	cache := fs.Bool("cache", false, "Enable the persistent index-cache sidecar")
	noHeader := fs.Bool("no-header", false, "Treat the first row as data, not a header")

	_ = fs.Parse(args)

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: --input is required")
		fs.PrintDefaults()
		os.Exit(1)
	}
	if *output == "" {
		*output = *input + ".vpqt"
	}
	if *separator == "" {
		fmt.Fprintln(os.Stderr, "Error: --separator must not be empty")
		os.Exit(1)
	}

	opts := vcsv.ConvertOptions{
		SourcePath:  *input,
		DestPath:    *output,
		Format:      vcsv.OutputParquet,
		Compression: *compression,
		NumWorkers:  *workers,
		Reader: vcsv.ReaderOptions{
			Separator:  (*separator)[0],
			Quote:      '"',
			HasHeader:  !*noHeader,
			NumThreads: *workers,
		},
	}
	if *cache {
		cfg := vcsv.DefaultCacheConfig()
		opts.Reader.Cache = &cfg
	}

	result := vcsv.Convert(opts)
	if result.Error != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", result.Error)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d rows to %s\n", result.RowsWritten, *output)
	if len(result.ParseErrors) > 0 {
		fmt.Printf("%d parse error(s) recorded\n", len(result.ParseErrors))
	}
}

func runSchema(args []string) {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)

	input := fs.String("input", "", "Input CSV file path")
	separator := fs.String("separator", ",", "CSV field separator")

	_ = fs.Parse(args)

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: --input is required")
		fs.PrintDefaults()
		os.Exit(1)
	}
	if *separator == "" {
		fmt.Fprintln(os.Stderr, "Error: --separator must not be empty")
		os.Exit(1)
	}

	r := vcsv.New(vcsv.ReaderOptions{Separator: (*separator)[0], Quote: '"', HasHeader: true})
	if err := r.Open(*input); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer r.Close()

	for _, col := range r.Schema().Columns {
		fmt.Printf("%-24s %s\n", col.Name, col.Type)
	}
}
