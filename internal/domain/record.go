package domain

import "time"

// MonitoringRecord is one contaminant observation at one monitoring site.
// Numeric and date fields the upstream API could not provide in a parseable
// form are nil/zero rather than errors: one bad row must not sink a whole
// country's record set.
type MonitoringRecord struct {
	SiteID        string
	Contaminant   string   // determinand display label, e.g. "Lead and its compounds"
	CASCode       string   // determinand code, e.g. "CAS_7439-92-1"
	ObservedValue *float64 // in the original unit, nil when unparseable
	Unit          string
	SampleDate    time.Time // zero when missing or unparseable
	SiteName      string
	WaterBodyName string
	Lat           *float64 // nil when the site carries no coordinates
	Lon           *float64
	RiverBasin    string
}

// GeoPoint is a WGS-84 latitude/longitude pair.
type GeoPoint struct {
	Lat float64
	Lon float64
}

// StationDistance pairs a monitoring record with its distance from a user
// location. DistanceKm is +Inf when the record has no coordinates.
type StationDistance struct {
	Record     MonitoringRecord
	DistanceKm float64
}

// ThresholdEntry is the maximum safe concentration for one contaminant,
// in micrograms per liter.
type ThresholdEntry struct {
	Contaminant string
	Limit       float64
}

// ThresholdTable maps lowercased contaminant names to their limits.
// Keys are lowercased on load so lookups are case-insensitive.
type ThresholdTable map[string]ThresholdEntry

// Concentration is a measurement normalized to micrograms per liter.
// Recognized is false when the source unit is not in the conversion table;
// such values carry no meaningful magnitude and are excluded from comparison.
type Concentration struct {
	MicrogramsPerLiter float64
	Recognized         bool
}

// AnalysisRow is the per-contaminant outcome of a threshold comparison.
type AnalysisRow struct {
	Contaminant  string
	CASCode      string
	Value        Concentration
	Limit        *float64 // nil when no threshold is defined for the contaminant
	ExceedsLimit bool
	ExceedsTimes *float64 // observed/limit, nil when the limit is zero or missing
}
