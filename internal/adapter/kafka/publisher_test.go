package kafka

import (
	"testing"
	"time"

	"github.com/sabateri/water-quality/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	generated := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	report := &pipeline.Report{
		Success:     true,
		CountryCode: "CH",
		PostalCode:  "1205",
		Station: pipeline.Station{
			Name:       "Geneva Intake",
			WaterBody:  "Lac Léman",
			DistanceKm: 4.2,
		},
		Contaminants: pipeline.ContaminantSummary{
			TotalCount:     2,
			ExceedingCount: 1,
		},
		GeneratedAt: generated,
	}

	msg, err := serializeToMessage(report)
	require.NoError(t, err)

	assert.Equal(t, []byte("CH/1205"), msg.Key)
	assert.Contains(t, string(msg.Value), `"water_body":"Lac Léman"`)
	assert.Contains(t, string(msg.Value), `"exceeding_count":1`)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "water_body", msg.Headers[0].Key)
	assert.Equal(t, []byte("Lac Léman"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(generated.Format(time.RFC3339)), msg.Headers[1].Value)
}
