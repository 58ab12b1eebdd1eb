// Package thresholds loads the contaminant safety limit table used for
// exceedance comparison. The table is country-agnostic: the same limits
// apply to every analysis.
package thresholds

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sabateri/water-quality/internal/domain"
)

// Load reads a threshold table from a CSV file with header columns
// "contaminant" and "limit" (micrograms per liter). Contaminant names are
// lowercased to match the analysis join key. Duplicate names resolve
// last-write-wins, so a file can append corrections without editing earlier
// rows. A missing file, missing columns, an unparseable limit, or a
// non-positive limit all fail the load.
func Load(path string) (domain.ThresholdTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open thresholds: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read thresholds: %w", err)
	}
	if len(rows) < 2 {
		return nil, errors.New("thresholds file has no data rows")
	}

	colIdx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	nameCol, okName := colIdx["contaminant"]
	limitCol, okLimit := colIdx["limit"]
	if !okName || !okLimit {
		return nil, errors.New(`thresholds file must have "contaminant" and "limit" columns`)
	}

	table := make(domain.ThresholdTable, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2 // 1-based, after the header
		if len(row) <= nameCol || len(row) <= limitCol {
			return nil, fmt.Errorf("thresholds row %d: too few columns", line)
		}

		name := strings.ToLower(strings.TrimSpace(row[nameCol]))
		if name == "" {
			return nil, fmt.Errorf("thresholds row %d: empty contaminant name", line)
		}

		limit, err := strconv.ParseFloat(strings.TrimSpace(row[limitCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("thresholds row %d: parse limit: %w", line, err)
		}
		if limit <= 0 {
			return nil, fmt.Errorf("thresholds row %d: limit must be positive, got %g", line, limit)
		}

		table[name] = domain.ThresholdEntry{Contaminant: name, Limit: limit}
	}

	return table, nil
}
