// Command probe inspects a downloaded dataset file before it is synced:
// it reports the detected text encoding, the header row, and a sample of
// parsed rows. With -category it also dry-runs the row transformer and
// reports how many rows would be accepted or rejected, without touching
// the database.
//
// Usage:
//
//	go run ./cmd/probe -file data/sources/library.csv
//	go run ./cmd/probe -file data/sources/park.csv -category park -sample 5
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/dongnemap/facility-sync/internal/domain"
	"github.com/dongnemap/facility-sync/internal/pipeline"
	"github.com/dongnemap/facility-sync/internal/textio"
)

func main() {
	var (
		file     = flag.String("file", "", "path to a delimited dataset file")
		category = flag.String("category", "", "dry-run the transformer for this category")
		sample   = flag.Int("sample", 3, "number of sample rows to print")
		tab      = flag.Bool("tab", false, "parse as tab-separated instead of comma-separated")
	)
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*file, *category, *sample, *tab); code != 0 {
		os.Exit(code)
	}
}

func run(path, category string, sample int, tab bool) int {
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read %s: %v\n", path, err)
		return 1
	}

	text, enc, err := textio.DecodeText(raw)
	fmt.Printf("=== %s ===\n", path)
	fmt.Printf("size:     %d bytes\n", len(raw))
	fmt.Printf("encoding: %s", enc)
	if errors.Is(err, textio.ErrAmbiguousEncoding) {
		fmt.Print(" (ambiguous, best-effort)")
	}
	fmt.Println()

	delimiter := ','
	if tab {
		delimiter = '\t'
	}
	rows := textio.ParseDelimited(text, delimiter, 0)
	fmt.Printf("rows:     %d\n", len(rows))
	if len(rows) == 0 {
		fmt.Println("\nNo data rows parsed.")
		return 1
	}

	printHeader(rows[0])
	printSample(rows, sample)

	if category != "" {
		return dryRun(rows, domain.Category(category))
	}
	return 0
}

func printHeader(first domain.RawRow) {
	cols := make([]string, 0, len(first))
	for k := range first {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	fmt.Printf("columns:  %d\n", len(cols))
	for _, c := range cols {
		fmt.Printf("  %s\n", c)
	}
}

func printSample(rows []domain.RawRow, sample int) {
	if sample > len(rows) {
		sample = len(rows)
	}
	for i := 0; i < sample; i++ {
		fmt.Printf("\n--- row %d ---\n", i+1)
		cols := make([]string, 0, len(rows[i]))
		for k := range rows[i] {
			cols = append(cols, k)
		}
		sort.Strings(cols)
		for _, c := range cols {
			if v := rows[i][c]; v != "" {
				fmt.Printf("  %-24s %s\n", c, v)
			}
		}
	}
}

// dryRun feeds every row through the category transformer and summarizes
// what a real sync would keep.
func dryRun(rows []domain.RawRow, cat domain.Category) int {
	transformer, err := pipeline.NewTransformer(cat, domain.DefaultRegionTable(), "probe")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	var accepted, rejected, located int
	reasons := map[string]int{}
	for _, row := range rows {
		f, err := transformer.Transform(row)
		if err != nil {
			rejected++
			reasons[err.Error()]++
			continue
		}
		accepted++
		if f.Coord != nil {
			located++
		}
	}

	fmt.Printf("\n=== dry run: %s ===\n", cat)
	fmt.Printf("accepted: %d (%d with coordinates)\n", accepted, located)
	fmt.Printf("rejected: %d\n", rejected)
	if len(reasons) > 0 {
		keys := make([]string, 0, len(reasons))
		for k := range reasons {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Println("\nrejection reasons:")
		for _, k := range keys {
			fmt.Printf("  %4d  %s\n", reasons[k], k)
		}
	}

	if accepted == 0 {
		fmt.Println("\nNo rows would survive a sync.")
		return 1
	}
	return 0
}
