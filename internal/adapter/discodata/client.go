// Package discodata fetches water quality monitoring records from the EEA
// DiscoData SQL-over-HTTP endpoint.
package discodata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sabateri/water-quality/internal/domain"
	"github.com/sabateri/water-quality/internal/observability"
)

// The Waterbase disaggregated data table joined with the spatial object table
// gives one row per measurement with site coordinates. Sites without
// coordinates are excluded at the source; they could never be ranked by
// distance anyway.
const (
	countQuery = `
		SELECT COUNT(*) AS total_records
		FROM [WISE_SOE].[latest].[Waterbase_T_WISE6_DisaggregatedData] d
		JOIN [WISE_SOE].[latest].[Waterbase_S_WISE_SpatialObject_DerivedData] s
		ON d.monitoringSiteIdentifier = s.monitoringSiteIdentifier
		WHERE d.countryCode = '%s'
		AND s.lat IS NOT NULL
		AND s.lon IS NOT NULL`

	recordQuery = `
		SELECT
		d.monitoringSiteIdentifier,
		d.observedPropertyDeterminandLabel,
		d.observedPropertyDeterminandCode,
		d.resultObservedValue,
		d.resultUom,
		d.phenomenonTimeSamplingDate,
		s.monitoringSiteName,
		s.waterBodyName,
		s.lat,
		s.lon,
		s.rbdName
		FROM [WISE_SOE].[latest].[Waterbase_T_WISE6_DisaggregatedData] d
		JOIN [WISE_SOE].[latest].[Waterbase_S_WISE_SpatialObject_DerivedData] s
		ON d.monitoringSiteIdentifier = s.monitoringSiteIdentifier
		WHERE d.countryCode = '%s'
		AND s.lat IS NOT NULL
		AND s.lon IS NOT NULL`
)

// countryCodeRe guards the SQL template against anything but a two-letter
// ISO country code.
var countryCodeRe = regexp.MustCompile(`^[A-Za-z]{2}$`)

// Client fetches monitoring records from the DiscoData endpoint.
// It implements pipeline.RecordSource.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a DiscoData client with a bounded request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
		metrics:    metrics,
	}
}

// CountRecords returns how many located monitoring records exist for the
// country. The count sizes the subsequent bulk request exactly.
func (c *Client) CountRecords(ctx context.Context, countryCode string) (int, error) {
	if !countryCodeRe.MatchString(countryCode) {
		return 0, fmt.Errorf("invalid country code %q", countryCode)
	}

	body, err := c.query(ctx, fmt.Sprintf(collapse(countQuery), strings.ToUpper(countryCode)), 1)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Results []struct {
			TotalRecords nullableFloat `json:"total_records"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	if len(resp.Results) == 0 || !resp.Results[0].TotalRecords.Valid {
		return 0, nil
	}
	return int(resp.Results[0].TotalRecords.Value), nil
}

// FetchByCountry counts the country's records, then issues one bulk request
// sized to that exact count and parses every row into a MonitoringRecord.
// A zero count fails without making the bulk request.
func (c *Client) FetchByCountry(ctx context.Context, countryCode string) ([]domain.MonitoringRecord, error) {
	n, err := c.CountRecords(ctx, countryCode)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("no monitoring records for country %q", countryCode)
	}

	start := time.Now()
	body, err := c.query(ctx, fmt.Sprintf(collapse(recordQuery), strings.ToUpper(countryCode)), n)
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows(body)
	if err != nil {
		return nil, err
	}

	records := make([]domain.MonitoringRecord, len(rows))
	for i, r := range rows {
		records[i] = r.toRecord()
	}

	c.metrics.RecordsFetched.Observe(float64(len(records)))
	c.logger.Info("fetched monitoring records",
		"country", countryCode,
		"records", len(records),
		"duration", time.Since(start),
	)
	return records, nil
}

// query issues one SQL-over-HTTP request and returns the raw response body.
func (c *Client) query(ctx context.Context, sql string, nrOfHits int) ([]byte, error) {
	params := url.Values{
		"query":    {sql},
		"p":        {"1"},
		"nrOfHits": {strconv.Itoa(nrOfHits)},
		"mail":     {"null"},
		"schema":   {"null"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discodata request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("discodata API error: status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

// collapse flattens a multi-line SQL template into a single line. Long
// queries with embedded newlines are known to trip the endpoint's parser.
func collapse(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// decodeRows accepts both response shapes the endpoint is known to produce:
// an object wrapping the rows under "results", or a bare array of rows.
func decodeRows(body []byte) ([]row, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []row
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("decode row array: %w", err)
		}
		return rows, nil
	}

	var wrapper struct {
		Results []row `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if wrapper.Results == nil {
		return nil, fmt.Errorf("unexpected response shape: %s", truncate(trimmed, 200))
	}
	return wrapper.Results, nil
}

// DiscoData row types.

// row mirrors one result row. Numeric columns arrive as a mix of JSON
// numbers, numeric strings, and nulls, so they decode through nullableFloat.
type row struct {
	SiteID      string        `json:"monitoringSiteIdentifier"`
	Contaminant string        `json:"observedPropertyDeterminandLabel"`
	CASCode     string        `json:"observedPropertyDeterminandCode"`
	Value       nullableFloat `json:"resultObservedValue"`
	Unit        string        `json:"resultUom"`
	SampleDate  string        `json:"phenomenonTimeSamplingDate"`
	SiteName    string        `json:"monitoringSiteName"`
	WaterBody   string        `json:"waterBodyName"`
	Lat         nullableFloat `json:"lat"`
	Lon         nullableFloat `json:"lon"`
	RiverBasin  string        `json:"rbdName"`
}

func (r row) toRecord() domain.MonitoringRecord {
	return domain.MonitoringRecord{
		SiteID:        r.SiteID,
		Contaminant:   r.Contaminant,
		CASCode:       r.CASCode,
		ObservedValue: r.Value.ptr(),
		Unit:          r.Unit,
		SampleDate:    parseSampleDate(r.SampleDate),
		SiteName:      r.SiteName,
		WaterBodyName: r.WaterBody,
		Lat:           r.Lat.ptr(),
		Lon:           r.Lon.ptr(),
		RiverBasin:    r.RiverBasin,
	}
}

// sampleDateLayouts are tried in order; the feed has served all three.
var sampleDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseSampleDate coerces a sampling date string to a time.Time, returning
// the zero time when missing or unparseable.
func parseSampleDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range sampleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// nullableFloat decodes JSON numbers, numeric strings, empty strings, and
// nulls. Valid is false for anything unparseable; a bad cell becomes a
// missing value, never a failed fetch.
type nullableFloat struct {
	Value float64
	Valid bool
}

func (n *nullableFloat) UnmarshalJSON(data []byte) error {
	n.Valid = false

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		n.Value, n.Valid = t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		n.Value, n.Valid = f, true
	}
	return nil
}

func (n nullableFloat) ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}
