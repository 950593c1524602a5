package services

import (
	"context"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"climate-api/internal/models"
	"climate-api/internal/repository"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

func f(v float64) *float64 { return &v }

func row(station, date string, prcp, tobs *float64) models.Measurement {
	return models.Measurement{StationID: station, Date: date, Precipitation: prcp, Temperature: tobs}
}

func testDeps() (*logging.StructuredLogger, *metrics.Collector) {
	logger := logging.NewStructuredLogger("test", "0.0.0", logging.ErrorLevel, logging.FormatJSON)
	logger.SetOutput(io.Discard)
	return logger, metrics.NewCollector("test", prometheus.NewRegistry())
}

// fakeRepository is an in-memory ClimateRepository
type fakeRepository struct {
	mu           sync.Mutex
	stations     []models.Station
	measurements []models.Measurement

	sessions   int
	open       int
	scanErr    error
	insertErr  error
	batchSizes []int
}

func (r *fakeRepository) WithReader(ctx context.Context, fn func(repository.Reader) error) error {
	r.mu.Lock()
	r.sessions++
	r.open++
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.open--
		r.mu.Unlock()
	}()

	return fn(&fakeReader{repo: r})
}

func (r *fakeRepository) UpsertStations(ctx context.Context, stations []*models.Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, st := range stations {
		replaced := false
		for i := range r.stations {
			if r.stations[i].StationID == st.StationID {
				r.stations[i] = *st
				replaced = true
			}
		}
		if !replaced {
			r.stations = append(r.stations, *st)
		}
	}
	return nil
}

func (r *fakeRepository) InsertMeasurementsBatch(ctx context.Context, measurements []*models.Measurement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.insertErr != nil {
		return r.insertErr
	}
	r.batchSizes = append(r.batchSizes, len(measurements))
	for _, m := range measurements {
		r.measurements = append(r.measurements, *m)
	}
	return nil
}

func (r *fakeRepository) DeleteMeasurements(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.measurements))
	r.measurements = nil
	return n, nil
}

func (r *fakeRepository) HealthCheck(ctx context.Context) error {
	return nil
}

type fakeReader struct {
	repo *fakeRepository
}

func (r *fakeReader) ListStations(ctx context.Context) ([]models.Station, error) {
	return append([]models.Station(nil), r.repo.stations...), nil
}

func (r *fakeReader) GetStation(ctx context.Context, stationID string) (*models.Station, error) {
	for _, st := range r.repo.stations {
		if st.StationID == stationID {
			st := st
			return &st, nil
		}
	}
	return nil, &repository.NotFoundError{Resource: "station", ID: stationID}
}

func (r *fakeReader) ScanMeasurements(ctx context.Context, filter repository.MeasurementFilter) ([]models.Measurement, error) {
	if r.repo.scanErr != nil {
		return nil, r.repo.scanErr
	}

	var out []models.Measurement
	for _, m := range r.repo.measurements {
		if filter.StationID != nil && m.StationID != *filter.StationID {
			continue
		}
		if filter.StartDate != nil && m.Date < *filter.StartDate {
			continue
		}
		if filter.EndDate != nil && m.Date > *filter.EndDate {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
