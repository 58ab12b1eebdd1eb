// Command checkthresholds validates a contaminant threshold CSV file before
// deployment. It loads the file through the same loader the service uses and
// prints the resulting table, so a broken file fails here instead of at the
// first analysis request.
//
// Usage:
//
//	go run ./cmd/checkthresholds -file data/contaminant_thresholds.csv
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/sabateri/water-quality/internal/thresholds"
)

func main() {
	file := flag.String("file", "data/contaminant_thresholds.csv", "path to the threshold CSV file")
	flag.Parse()

	table, err := thresholds.Load(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid threshold file: %v\n", err)
		os.Exit(1)
	}

	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%-50s %10.4f ug/L\n", name, table[name].Limit)
	}
	fmt.Printf("\n%d thresholds OK\n", len(table))
}
