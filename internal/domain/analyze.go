package domain

import (
	"sort"
	"strings"
)

// unitFactors maps recognized source units to their µg/L multipliers.
// The mg{X}/L variants are the WISE convention for expressing a compound
// measured as one of its constituents (e.g. nitrite as mg{NO2}/L); the
// mass-per-volume factor is the same as plain mg/L.
var unitFactors = map[string]float64{
	"ug/L":      1,
	"mg/L":      1000,
	"mg{NO2}/L": 1000,
	"mg{NH4}/L": 1000,
	"mg{P}/L":   1000,
	"mg{C}/L":   1000,
	"mg{N}/L":   1000,
	"mg{NO3}/L": 1000,
}

// FilterByWaterBody keeps only records observed in the named water body.
func FilterByWaterBody(records []MonitoringRecord, waterBody string) []MonitoringRecord {
	out := make([]MonitoringRecord, 0, len(records))
	for _, rec := range records {
		if rec.WaterBodyName == waterBody {
			out = append(out, rec)
		}
	}
	return out
}

// DeduplicateLatest keeps the most recent sample per contaminant.
// Records are ordered by sample date descending with missing dates last,
// then the first occurrence of each contaminant wins. The sort is stable,
// so records with equal dates keep their input order. Contaminant identity
// is case-insensitive to guarantee at most one row per downstream join key.
func DeduplicateLatest(records []MonitoringRecord) []MonitoringRecord {
	sorted := make([]MonitoringRecord, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := sorted[i].SampleDate, sorted[j].SampleDate
		if di.IsZero() {
			return false
		}
		if dj.IsZero() {
			return true
		}
		return di.After(dj)
	})

	seen := make(map[string]bool, len(sorted))
	out := make([]MonitoringRecord, 0, len(sorted))
	for _, rec := range sorted {
		key := strings.ToLower(rec.Contaminant)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rec)
	}
	return out
}

// NormalizeRecord lowercases the contaminant label and determinand code,
// strips the cas_/eea_ registry prefixes from the code, and relabels ug/kg
// units as ug/L. The relabeling is a pass-through for a known upstream
// tagging quirk, not a physical kg→L conversion.
func NormalizeRecord(rec MonitoringRecord) MonitoringRecord {
	rec.Contaminant = strings.ToLower(rec.Contaminant)

	code := strings.ToLower(rec.CASCode)
	code = strings.ReplaceAll(code, "cas_", "")
	code = strings.ReplaceAll(code, "eea_", "")
	rec.CASCode = code

	rec.Unit = strings.ReplaceAll(rec.Unit, "ug/kg", "ug/L")
	return rec
}

// ConvertToMicrograms normalizes a measurement to micrograms per liter.
// Unknown units yield Recognized=false so the value is never mistaken for a
// genuine concentration downstream.
func ConvertToMicrograms(unit string, value float64) Concentration {
	factor, ok := unitFactors[unit]
	if !ok {
		return Concentration{}
	}
	return Concentration{MicrogramsPerLiter: value * factor, Recognized: true}
}

// Analyze runs the comparison stage for one water body: scope filter,
// latest-sample dedup, text and unit normalization, then a left join
// against the threshold table. Row order follows the dedup output (sample
// date descending), so results are deterministic per input.
//
// ExceedsLimit is false whenever the observed value is missing/unrecognized
// or no limit is defined. ExceedsTimes is set only when both sides are
// comparable and the limit is non-zero.
func Analyze(records []MonitoringRecord, waterBody string, thresholds ThresholdTable) []AnalysisRow {
	scoped := FilterByWaterBody(records, waterBody)
	deduped := DeduplicateLatest(scoped)

	rows := make([]AnalysisRow, 0, len(deduped))
	for _, rec := range deduped {
		rec = NormalizeRecord(rec)

		row := AnalysisRow{Contaminant: rec.Contaminant, CASCode: rec.CASCode}
		if rec.ObservedValue != nil {
			row.Value = ConvertToMicrograms(rec.Unit, *rec.ObservedValue)
		}

		if entry, ok := thresholds[rec.Contaminant]; ok {
			limit := entry.Limit
			row.Limit = &limit
			if row.Value.Recognized {
				row.ExceedsLimit = row.Value.MicrogramsPerLiter >= limit
				if limit != 0 {
					times := row.Value.MicrogramsPerLiter / limit
					row.ExceedsTimes = &times
				}
			}
		}

		rows = append(rows, row)
	}
	return rows
}
