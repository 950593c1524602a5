package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"

	"climate-api/internal/climate"
	"climate-api/internal/models"
	"climate-api/internal/repository"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// ClimateService answers the climate queries. Every query runs inside one
// repository reader session.
type ClimateService struct {
	repo    repository.ClimateRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	clock   clockwork.Clock
}

// NewClimateService creates a new climate service
func NewClimateService(repo repository.ClimateRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, clock clockwork.Clock) *ClimateService {
	return &ClimateService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
		clock:   clock,
	}
}

// Extent returns the first and last measurement dates of the dataset
func (s *ClimateService) Extent(ctx context.Context) (models.DateRange, error) {
	var extent models.DateRange
	err := s.run(ctx, "extent", func(rd repository.Reader) error {
		rows, err := s.scan(ctx, rd, "extent", repository.MeasurementFilter{})
		if err != nil {
			return err
		}
		extent, err = climate.GlobalExtent(rows)
		return err
	})
	return extent, err
}

// Precipitation returns the daily maximum precipitation over the year that
// ends at the most recent measurement date of the dataset
func (s *ClimateService) Precipitation(ctx context.Context) (climate.PrecipitationByDate, error) {
	var out climate.PrecipitationByDate
	err := s.run(ctx, "precipitation", func(rd repository.Reader) error {
		rows, err := s.scan(ctx, rd, "precipitation", repository.MeasurementFilter{})
		if err != nil {
			return err
		}

		extent, err := climate.GlobalExtent(rows)
		if err != nil {
			return err
		}
		window, err := climate.TrailingWindow(extent.End)
		if err != nil {
			return err
		}

		out = climate.ShapePrecipitation(climate.DailyMaxPrecipitation(rows, window))

		s.logger.Debug(ctx, "[CLIMATE_PRECIPITATION] Window resolved", logging.Fields{
			"window": window.String(),
			"dates":  len(out),
		})
		return nil
	})
	return out, err
}

// Stations returns every station keyed by id
func (s *ClimateService) Stations(ctx context.Context) (climate.StationDirectory, error) {
	var out climate.StationDirectory
	err := s.run(ctx, "stations", func(rd repository.Reader) error {
		stations, err := rd.ListStations(ctx)
		if err != nil {
			return err
		}
		out = climate.ShapeStations(stations)
		return nil
	})
	return out, err
}

// TemperatureObservations returns the temperatures of the most active
// station over the year that ends at that station's latest measurement
func (s *ClimateService) TemperatureObservations(ctx context.Context) (climate.TemperatureSeries, error) {
	var out climate.TemperatureSeries
	err := s.run(ctx, "tobs", func(rd repository.Reader) error {
		stationID, err := s.mostActiveStation(ctx, rd, "tobs")
		if err != nil {
			return err
		}

		rows, err := s.scan(ctx, rd, "tobs", repository.MeasurementFilter{StationID: &stationID})
		if err != nil {
			return err
		}

		// the window is anchored on this station's latest date, not the dataset's
		extent, err := climate.GlobalExtent(rows)
		if err != nil {
			return err
		}
		window, err := climate.TrailingWindow(extent.End)
		if err != nil {
			return err
		}

		out = climate.ShapeObservations(climate.StationObservations(rows, stationID, window))

		s.logger.Debug(ctx, "[CLIMATE_TOBS] Observations selected", logging.Fields{
			"station_id":   stationID,
			"window":       window.String(),
			"observations": len(out.Dates),
		})
		return nil
	})
	return out, err
}

// TemperatureStats returns min, mean and max temperature of the most active
// station inside r
func (s *ClimateService) TemperatureStats(ctx context.Context, r models.DateRange) (climate.RangeStats, error) {
	var out climate.RangeStats
	err := s.run(ctx, "temperature_stats", func(rd repository.Reader) error {
		stationID, err := s.mostActiveStation(ctx, rd, "temperature_stats")
		if err != nil {
			return err
		}

		filter := repository.MeasurementFilter{StationID: &stationID, StartDate: &r.Start}
		if r.Bounded() {
			filter.EndDate = &r.End
		}
		rows, err := s.scan(ctx, rd, "temperature_stats", filter)
		if err != nil {
			return err
		}

		stats, ok := climate.StationTemperatureStats(rows, stationID, r)
		out = climate.ShapeRangeStats(stationID, stats, ok)

		s.logger.Debug(ctx, "[CLIMATE_STATS] Statistics computed", logging.Fields{
			"station_id": stationID,
			"range":      r.String(),
			"samples":    stats.Count,
		})
		return nil
	})
	return out, err
}

// HealthCheck reports whether the dataset is reachable
func (s *ClimateService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

// run executes fn in a reader session and records its duration
func (s *ClimateService) run(ctx context.Context, operation string, fn func(repository.Reader) error) error {
	timer := metrics.NewTimer(s.metrics.QueryDuration.WithLabelValues(operation), s.clock.Now)

	err := s.repo.WithReader(ctx, fn)
	duration := timer.ObserveDuration()

	if err != nil {
		s.logger.Warn(ctx, "[CLIMATE_QUERY_FAILED] Query failed", logging.Fields{
			"operation":   operation,
			"duration_ms": duration.Milliseconds(),
			"error":       err.Error(),
		})
		return err
	}

	s.logger.Debug(ctx, "[CLIMATE_QUERY] Query completed", logging.Fields{
		"operation":   operation,
		"duration_ms": duration.Milliseconds(),
	})
	return nil
}

func (s *ClimateService) scan(ctx context.Context, rd repository.Reader, operation string, filter repository.MeasurementFilter) ([]models.Measurement, error) {
	rows, err := rd.ScanMeasurements(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRowsScanned(operation, len(rows))
	return rows, nil
}

// mostActiveStation ranks every station by row count and confirms the winner
// has a station record
func (s *ClimateService) mostActiveStation(ctx context.Context, rd repository.Reader, operation string) (string, error) {
	rows, err := s.scan(ctx, rd, operation, repository.MeasurementFilter{})
	if err != nil {
		return "", err
	}

	stationID, err := climate.MostActiveStation(rows)
	if err != nil {
		return "", err
	}

	if _, err := rd.GetStation(ctx, stationID); err != nil {
		var nf *repository.NotFoundError
		if errors.As(err, &nf) {
			return "", &models.UnknownStationError{StationID: stationID}
		}
		return "", fmt.Errorf("failed to resolve station %s: %w", stationID, err)
	}

	return stationID, nil
}
