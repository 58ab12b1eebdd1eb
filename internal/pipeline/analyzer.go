// Package pipeline sequences the water quality analysis: fetch a country's
// monitoring records, geocode the user's postal code, rank stations by
// distance, load the threshold table, and compare the nearest water body's
// contaminants against it. Every stage takes its inputs as parameters and
// returns new values; there is no cross-stage state and no cross-request
// state, so concurrent analyses never interfere.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sabateri/water-quality/internal/domain"
	"github.com/sabateri/water-quality/internal/observability"
)

// Stage failure sentinels. The orchestrator wraps stage errors with these so
// the HTTP layer can map the first failure to a user-facing message with
// errors.Is, without ever surfacing a raw upstream error.
var (
	ErrNoRecords    = errors.New("no monitoring data for country")
	ErrNoLocation   = errors.New("postal code could not be located")
	ErrNoStation    = errors.New("no monitoring station found")
	ErrNoThresholds = errors.New("threshold table unavailable")
	ErrNoResults    = errors.New("no analyzable measurements for water body")
)

// RecordSource fetches all monitoring records for a country.
type RecordSource interface {
	FetchByCountry(ctx context.Context, countryCode string) ([]domain.MonitoringRecord, error)
}

// Geocoder resolves a postal code to coordinates. (nil, nil) means the
// provider found no match; both that and an error end the analysis with
// ErrNoLocation.
type Geocoder interface {
	GeocodePostalCode(ctx context.Context, postalCode, countryCode string) (*domain.GeoPoint, error)
}

// ThresholdSource loads the contaminant limit table.
type ThresholdSource interface {
	Thresholds() (domain.ThresholdTable, error)
}

// ReportSink receives completed analysis reports. Publishing is best effort;
// a sink error never fails the analysis.
type ReportSink interface {
	Publish(ctx context.Context, report *Report) error
}

// Analyzer runs the full analysis pipeline.
type Analyzer struct {
	source     RecordSource
	geocoder   Geocoder
	thresholds ThresholdSource
	sink       ReportSink // nil disables report publishing
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates an Analyzer. Pass a nil sink to disable report publishing.
func New(source RecordSource, geocoder Geocoder, thresholds ThresholdSource, sink ReportSink, logger *slog.Logger, metrics *observability.Metrics) *Analyzer {
	return &Analyzer{
		source:     source,
		geocoder:   geocoder,
		thresholds: thresholds,
		sink:       sink,
		logger:     logger,
		metrics:    metrics,
	}
}

// FullAnalysis answers "what exceeds safety thresholds in the water body
// nearest this postal code". It short-circuits at the first failing stage:
// the returned error matches exactly one stage sentinel and no partial
// report is ever produced.
func (a *Analyzer) FullAnalysis(ctx context.Context, countryCode, postalCode string) (*Report, error) {
	records, err := a.fetchRecords(ctx, countryCode)
	if err != nil {
		return nil, a.fail("no_records", fmt.Errorf("%w: %v", ErrNoRecords, err))
	}

	point, err := a.locatePostalCode(ctx, postalCode, countryCode)
	if err != nil {
		return nil, a.fail("no_location", err)
	}

	stations := a.rankStations(records, *point)
	waterBody, ok := domain.SelectedWaterBody(stations)
	if !ok {
		return nil, a.fail("no_station", ErrNoStation)
	}

	table, err := a.loadThresholds()
	if err != nil {
		return nil, a.fail("no_thresholds", fmt.Errorf("%w: %v", ErrNoThresholds, err))
	}

	rows := a.analyze(records, waterBody, table)
	if len(rows) == 0 {
		return nil, a.fail("no_results", ErrNoResults)
	}

	report := buildReport(stations[0], rows, countryCode, postalCode, clock.Now())
	a.metrics.AnalysesTotal.WithLabelValues("success").Inc()
	a.logger.Info("analysis complete",
		"country", countryCode,
		"postal_code", postalCode,
		"water_body", waterBody,
		"contaminants", report.Contaminants.TotalCount,
		"exceeding", report.Contaminants.ExceedingCount,
	)

	a.publish(ctx, report)
	return report, nil
}

func (a *Analyzer) fetchRecords(ctx context.Context, countryCode string) ([]domain.MonitoringRecord, error) {
	defer a.timeStage("fetch")()
	return a.source.FetchByCountry(ctx, countryCode)
}

// locatePostalCode folds "provider found nothing" and "provider failed" into
// the same recoverable outcome; the provider error is only logged.
func (a *Analyzer) locatePostalCode(ctx context.Context, postalCode, countryCode string) (*domain.GeoPoint, error) {
	defer a.timeStage("geocode")()

	point, err := a.geocoder.GeocodePostalCode(ctx, postalCode, countryCode)
	if err != nil {
		a.logger.Warn("geocoding failed", "postal_code", postalCode, "country", countryCode, "error", err)
		return nil, ErrNoLocation
	}
	if point == nil {
		return nil, ErrNoLocation
	}
	return point, nil
}

func (a *Analyzer) rankStations(records []domain.MonitoringRecord, point domain.GeoPoint) []domain.StationDistance {
	defer a.timeStage("locate")()
	return domain.NearestStations(records, point, 1)
}

func (a *Analyzer) loadThresholds() (domain.ThresholdTable, error) {
	defer a.timeStage("thresholds")()
	return a.thresholds.Thresholds()
}

func (a *Analyzer) analyze(records []domain.MonitoringRecord, waterBody string, table domain.ThresholdTable) []domain.AnalysisRow {
	defer a.timeStage("analyze")()
	return domain.Analyze(records, waterBody, table)
}

func (a *Analyzer) publish(ctx context.Context, report *Report) {
	if a.sink == nil {
		return
	}
	if err := a.sink.Publish(ctx, report); err != nil {
		a.metrics.PublishErrors.Inc()
		a.logger.Warn("report publish failed", "error", err)
		return
	}
	a.metrics.ReportsPublished.Inc()
}

func (a *Analyzer) fail(outcome string, err error) error {
	a.metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
	a.logger.Warn("analysis failed", "outcome", outcome, "error", err)
	return err
}

func (a *Analyzer) timeStage(stage string) func() {
	start := time.Now()
	return func() {
		a.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
