package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWaterBody = "Lac Léman"

func fptr(v float64) *float64 { return &v }

func record(contaminant, unit string, value float64, date time.Time) MonitoringRecord {
	return MonitoringRecord{
		SiteID:        "CHRW-0001",
		Contaminant:   contaminant,
		CASCode:       "CAS_7439-92-1",
		ObservedValue: fptr(value),
		Unit:          unit,
		SampleDate:    date,
		WaterBodyName: testWaterBody,
	}
}

func TestConvertToMicrograms(t *testing.T) {
	tests := []struct {
		name       string
		unit       string
		value      float64
		expected   float64
		recognized bool
	}{
		{"ug/L unchanged", "ug/L", 5.5, 5.5, true},
		{"mg/L times 1000", "mg/L", 0.002, 2.0, true},
		{"mg{NO2}/L times 1000", "mg{NO2}/L", 0.1, 100, true},
		{"mg{NH4}/L times 1000", "mg{NH4}/L", 0.3, 300, true},
		{"mg{P}/L times 1000", "mg{P}/L", 1.2, 1200, true},
		{"mg{C}/L times 1000", "mg{C}/L", 2, 2000, true},
		{"mg{N}/L times 1000", "mg{N}/L", 0.05, 50, true},
		{"mg{NO3}/L times 1000", "mg{NO3}/L", 4, 4000, true},
		{"unknown unit", "unknown/unit", 5, 0, false},
		{"counts not recognized", "n/100mL", 240, 0, false},
		{"empty unit", "", 1, 0, false},
		{"case sensitive", "UG/L", 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertToMicrograms(tt.unit, tt.value)
			assert.Equal(t, tt.recognized, result.Recognized)
			assert.Equal(t, tt.expected, result.MicrogramsPerLiter)
		})
	}
}

func TestNormalizeRecord(t *testing.T) {
	t.Run("lowercases contaminant and code", func(t *testing.T) {
		rec := NormalizeRecord(MonitoringRecord{Contaminant: "Lead and its compounds", CASCode: "CAS_7439-92-1"})
		assert.Equal(t, "lead and its compounds", rec.Contaminant)
		assert.Equal(t, "7439-92-1", rec.CASCode)
	})

	t.Run("strips eea prefix", func(t *testing.T) {
		rec := NormalizeRecord(MonitoringRecord{CASCode: "EEA_3164-01-5"})
		assert.Equal(t, "3164-01-5", rec.CASCode)
	})

	t.Run("relabels ug/kg to ug/L without converting", func(t *testing.T) {
		rec := NormalizeRecord(MonitoringRecord{Unit: "ug/kg", ObservedValue: fptr(7)})
		assert.Equal(t, "ug/L", rec.Unit)
		assert.Equal(t, 7.0, *rec.ObservedValue)
	})

	t.Run("other units pass through", func(t *testing.T) {
		rec := NormalizeRecord(MonitoringRecord{Unit: "mg{NO3}/L"})
		assert.Equal(t, "mg{NO3}/L", rec.Unit)
	})
}

func TestFilterByWaterBody(t *testing.T) {
	records := []MonitoringRecord{
		{Contaminant: "lead", WaterBodyName: testWaterBody},
		{Contaminant: "zinc", WaterBodyName: "Aare"},
		{Contaminant: "mercury", WaterBodyName: testWaterBody},
	}

	scoped := FilterByWaterBody(records, testWaterBody)
	require.Len(t, scoped, 2)
	assert.Equal(t, "lead", scoped[0].Contaminant)
	assert.Equal(t, "mercury", scoped[1].Contaminant)

	assert.Empty(t, FilterByWaterBody(records, "Rhone"))
}

func TestDeduplicateLatest(t *testing.T) {
	jan := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("latest sample wins", func(t *testing.T) {
		records := []MonitoringRecord{
			record("lead", "ug/L", 5, jan),
			record("lead", "ug/L", 50, jun),
		}

		out := DeduplicateLatest(records)
		require.Len(t, out, 1)
		assert.Equal(t, 50.0, *out[0].ObservedValue)
		assert.Equal(t, jun, out[0].SampleDate)
	})

	t.Run("missing dates always lose", func(t *testing.T) {
		records := []MonitoringRecord{
			record("lead", "ug/L", 99, time.Time{}),
			record("lead", "ug/L", 5, jan),
		}

		out := DeduplicateLatest(records)
		require.Len(t, out, 1)
		assert.Equal(t, 5.0, *out[0].ObservedValue)
	})

	t.Run("undated survives when alone", func(t *testing.T) {
		out := DeduplicateLatest([]MonitoringRecord{record("zinc", "ug/L", 3, time.Time{})})
		require.Len(t, out, 1)
		assert.Equal(t, 3.0, *out[0].ObservedValue)
	})

	t.Run("equal dates keep input order", func(t *testing.T) {
		records := []MonitoringRecord{
			record("lead", "ug/L", 1, jun),
			record("lead", "ug/L", 2, jun),
		}

		out := DeduplicateLatest(records)
		require.Len(t, out, 1)
		assert.Equal(t, 1.0, *out[0].ObservedValue)
	})

	t.Run("contaminant identity is case-insensitive", func(t *testing.T) {
		records := []MonitoringRecord{
			record("Lead", "ug/L", 1, jun),
			record("lead", "ug/L", 2, jan),
		}

		out := DeduplicateLatest(records)
		assert.Len(t, out, 1)
	})

	t.Run("distinct contaminants all survive", func(t *testing.T) {
		records := []MonitoringRecord{
			record("lead", "ug/L", 1, jan),
			record("zinc", "ug/L", 2, jun),
			record("mercury", "ug/L", 3, jan),
		}

		out := DeduplicateLatest(records)
		assert.Len(t, out, 3)
		// Sorted by date descending: zinc first.
		assert.Equal(t, "zinc", out[0].Contaminant)
	})
}

func TestAnalyze(t *testing.T) {
	jun := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	jan := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	thresholds := ThresholdTable{
		"lead":    {Contaminant: "lead", Limit: 10},
		"mercury": {Contaminant: "mercury", Limit: 1},
	}

	t.Run("dedup then join then compare", func(t *testing.T) {
		records := []MonitoringRecord{
			record("Lead", "ug/L", 5, jan),
			record("Lead", "ug/L", 50, jun),
		}

		rows := Analyze(records, testWaterBody, thresholds)
		require.Len(t, rows, 1)

		row := rows[0]
		assert.Equal(t, "lead", row.Contaminant)
		assert.Equal(t, "7439-92-1", row.CASCode)
		assert.True(t, row.Value.Recognized)
		assert.Equal(t, 50.0, row.Value.MicrogramsPerLiter)
		require.NotNil(t, row.Limit)
		assert.Equal(t, 10.0, *row.Limit)
		assert.True(t, row.ExceedsLimit)
		require.NotNil(t, row.ExceedsTimes)
		assert.Equal(t, 5.0, *row.ExceedsTimes)
	})

	t.Run("mg/L converts before comparison", func(t *testing.T) {
		rows := Analyze([]MonitoringRecord{record("Mercury", "mg/L", 0.002, jun)}, testWaterBody, thresholds)
		require.Len(t, rows, 1)
		assert.Equal(t, 2.0, rows[0].Value.MicrogramsPerLiter)
		assert.True(t, rows[0].ExceedsLimit)
		require.NotNil(t, rows[0].ExceedsTimes)
		assert.Equal(t, 2.0, *rows[0].ExceedsTimes)
	})

	t.Run("no threshold match leaves limit nil and exceeds false", func(t *testing.T) {
		rows := Analyze([]MonitoringRecord{record("Caffeine", "ug/L", 900, jun)}, testWaterBody, thresholds)
		require.Len(t, rows, 1)
		assert.Nil(t, rows[0].Limit)
		assert.False(t, rows[0].ExceedsLimit)
		assert.Nil(t, rows[0].ExceedsTimes)
	})

	t.Run("unrecognized unit never exceeds", func(t *testing.T) {
		rows := Analyze([]MonitoringRecord{record("Lead", "n/100mL", 500, jun)}, testWaterBody, thresholds)
		require.Len(t, rows, 1)
		assert.False(t, rows[0].Value.Recognized)
		assert.False(t, rows[0].ExceedsLimit)
		assert.Nil(t, rows[0].ExceedsTimes)
	})

	t.Run("missing observed value never exceeds", func(t *testing.T) {
		rec := record("Lead", "ug/L", 0, jun)
		rec.ObservedValue = nil

		rows := Analyze([]MonitoringRecord{rec}, testWaterBody, thresholds)
		require.Len(t, rows, 1)
		assert.False(t, rows[0].Value.Recognized)
		assert.False(t, rows[0].ExceedsLimit)
		assert.Nil(t, rows[0].ExceedsTimes)
	})

	t.Run("zero limit yields no ratio", func(t *testing.T) {
		zero := ThresholdTable{"lead": {Contaminant: "lead", Limit: 0}}

		rows := Analyze([]MonitoringRecord{record("Lead", "ug/L", 5, jun)}, testWaterBody, zero)
		require.Len(t, rows, 1)
		require.NotNil(t, rows[0].Limit)
		assert.Nil(t, rows[0].ExceedsTimes)
	})

	t.Run("scope filter excludes other water bodies", func(t *testing.T) {
		other := record("Lead", "ug/L", 50, jun)
		other.WaterBodyName = "Aare"

		rows := Analyze([]MonitoringRecord{other}, testWaterBody, thresholds)
		assert.Empty(t, rows)
	})

	t.Run("value at the limit exceeds", func(t *testing.T) {
		rows := Analyze([]MonitoringRecord{record("Lead", "ug/L", 10, jun)}, testWaterBody, thresholds)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].ExceedsLimit)
		require.NotNil(t, rows[0].ExceedsTimes)
		assert.Equal(t, 1.0, *rows[0].ExceedsTimes)
	})
}
