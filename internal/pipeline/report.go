package pipeline

import (
	"math"
	"time"

	"github.com/sabateri/water-quality/internal/domain"
)

// Report is the complete result of one analysis. The JSON shape is the
// public API response and the Kafka report payload.
type Report struct {
	Success      bool               `json:"success"`
	CountryCode  string             `json:"country_code"`
	PostalCode   string             `json:"postal_code"`
	Station      Station            `json:"station"`
	Contaminants ContaminantSummary `json:"contaminants"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// Station describes the monitoring station whose water body was analyzed.
type Station struct {
	Name       string  `json:"name"`
	WaterBody  string  `json:"water_body"`
	DistanceKm float64 `json:"distance_km"`
}

// ContaminantSummary lists every analyzed contaminant plus the subset over
// its limit.
type ContaminantSummary struct {
	TotalCount     int           `json:"total_count"`
	ExceedingCount int           `json:"exceeding_count"`
	Exceeded       []Exceedance  `json:"exceeded"`
	All            []Contaminant `json:"all"`
}

// Contaminant is one analyzed measurement. Value is nil when the unit was
// unrecognized or the measurement had no value; Limit is nil when no
// threshold covers the contaminant.
type Contaminant struct {
	Name    string   `json:"name"`
	Value   *float64 `json:"value_ug_l"`
	Limit   *float64 `json:"limit_ug_l"`
	Exceeds bool     `json:"exceeds"`
}

// Exceedance is one contaminant over its limit.
type Exceedance struct {
	Name          string  `json:"name"`
	Value         float64 `json:"value_ug_l"`
	Limit         float64 `json:"limit_ug_l"`
	TimesExceeded float64 `json:"times_exceeded"`
}

// buildReport assembles the response from the nearest station and the
// analysis rows. Distances, concentrations, and limits round to two decimals,
// exceedance ratios to one; the underlying comparison already happened at
// full precision.
func buildReport(nearest domain.StationDistance, rows []domain.AnalysisRow, countryCode, postalCode string, now time.Time) *Report {
	all := make([]Contaminant, 0, len(rows))
	var exceeded []Exceedance

	for _, row := range rows {
		c := Contaminant{
			Name:    row.Contaminant,
			Exceeds: row.ExceedsLimit,
		}
		if row.Value.Recognized {
			c.Value = fptr(round2(row.Value.MicrogramsPerLiter))
		}
		if row.Limit != nil {
			c.Limit = fptr(round2(*row.Limit))
		}
		all = append(all, c)

		if row.ExceedsLimit && row.Limit != nil && row.ExceedsTimes != nil {
			exceeded = append(exceeded, Exceedance{
				Name:          row.Contaminant,
				Value:         round2(row.Value.MicrogramsPerLiter),
				Limit:         round2(*row.Limit),
				TimesExceeded: round1(*row.ExceedsTimes),
			})
		}
	}

	station := Station{
		Name:       nearest.Record.SiteName,
		WaterBody:  nearest.Record.WaterBodyName,
		DistanceKm: round2(nearest.DistanceKm),
	}
	if station.Name == "" {
		station.Name = nearest.Record.SiteID
	}

	return &Report{
		Success:     true,
		CountryCode: countryCode,
		PostalCode:  postalCode,
		Station:     station,
		Contaminants: ContaminantSummary{
			TotalCount:     len(all),
			ExceedingCount: len(exceeded),
			Exceeded:       exceeded,
			All:            all,
		},
		GeneratedAt: now,
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func fptr(v float64) *float64 { return &v }
