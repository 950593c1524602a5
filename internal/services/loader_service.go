package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"climate-api/internal/models"
	"climate-api/internal/repository"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// maxReportedErrors bounds LoadResult.Errors; the counters stay exact
const maxReportedErrors = 50

// LoaderService imports the station and measurement CSV files
type LoaderService struct {
	repo    repository.ClimateRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	clock   clockwork.Clock
}

// LoadOptions selects the input files and how they are written
type LoadOptions struct {
	StationsFile     string
	MeasurementsFile string
	BatchSize        int
	// Replace deletes existing measurements before loading
	Replace bool
}

// LoadResult contains load statistics
type LoadResult struct {
	TotalRecords       int
	StationsLoaded     int
	MeasurementsLoaded int
	FailedRecords      int
	Deleted            int64
	Duration           time.Duration
	Errors             []string
}

func (r *LoadResult) reject(msg string) {
	r.FailedRecords++
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, msg)
	}
}

// NewLoaderService creates a new loader service
func NewLoaderService(repo repository.ClimateRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, clock clockwork.Clock) *LoaderService {
	return &LoaderService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
		clock:   clock,
	}
}

// Load imports stations first so measurements can reference them
func (s *LoaderService) Load(ctx context.Context, opts LoadOptions) (*LoadResult, error) {
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}

	startTime := s.clock.Now()

	s.logger.Info(ctx, "[LOAD_START] Starting dataset load", logging.Fields{
		"stations_file":     opts.StationsFile,
		"measurements_file": opts.MeasurementsFile,
		"batch_size":        opts.BatchSize,
		"replace":           opts.Replace,
		"stage":             "INITIALIZATION",
	})

	result := &LoadResult{Errors: make([]string, 0)}

	if opts.StationsFile != "" {
		if err := s.loadFile(ctx, opts.StationsFile, func(r io.Reader) error {
			return s.LoadStations(ctx, r, opts.BatchSize, result)
		}); err != nil {
			return nil, err
		}
	}

	if opts.Replace {
		n, err := s.repo.DeleteMeasurements(ctx)
		if err != nil {
			return nil, err
		}
		result.Deleted = n
	}

	if opts.MeasurementsFile != "" {
		if err := s.loadFile(ctx, opts.MeasurementsFile, func(r io.Reader) error {
			return s.LoadMeasurements(ctx, r, opts.BatchSize, result)
		}); err != nil {
			return nil, err
		}
	}

	result.Duration = s.clock.Since(startTime)
	s.metrics.LoadDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[LOAD_COMPLETE] Dataset load completed", logging.Fields{
		"total_records":       result.TotalRecords,
		"stations_loaded":     result.StationsLoaded,
		"measurements_loaded": result.MeasurementsLoaded,
		"failed_records":      result.FailedRecords,
		"deleted":             result.Deleted,
		"duration_seconds":    result.Duration.Seconds(),
		"stage":               "COMPLETE",
	})

	return result, nil
}

func (s *LoaderService) loadFile(ctx context.Context, path string, load func(io.Reader) error) error {
	file, err := os.Open(path)
	if err != nil {
		s.metrics.RecordLoadError("file_error")
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if err := load(file); err != nil {
		s.logger.Error(ctx, "[LOAD_FILE_ERROR] File load failed", logging.Fields{
			"file_path": path,
			"stage":     "FILE_PROCESSING",
		}, err)
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadStations reads a station,name,latitude,longitude,elevation CSV and
// upserts the rows in batches
func (s *LoaderService) LoadStations(ctx context.Context, r io.Reader, batchSize int, result *LoadResult) error {
	batch := make([]*models.Station, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.repo.UpsertStations(ctx, batch); err != nil {
			return fmt.Errorf("failed to upsert stations: %w", err)
		}
		result.StationsLoaded += len(batch)
		batch = batch[:0]
		return nil
	}

	err := readCSV(r, []string{"station", "name", "latitude", "longitude", "elevation"}, func(line int, rec csvRecord, parseErr error) error {
		result.TotalRecords++
		if parseErr != nil {
			s.metrics.RecordLoadError("parse_error")
			result.reject(fmt.Sprintf("stations line %d: %v", line, parseErr))
			return nil
		}

		raw := models.RawStationRecord{
			StationID: rec.get("station"),
			Name:      rec.get("name"),
			Latitude:  rec.get("latitude"),
			Longitude: rec.get("longitude"),
			Elevation: rec.get("elevation"),
		}
		st, err := raw.ToStation()
		if err != nil {
			s.metrics.RecordLoadError("conversion_error")
			result.reject(fmt.Sprintf("stations line %d: %v", line, err))
			return nil
		}

		batch = append(batch, st)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}

	return flush()
}

// LoadMeasurements reads a station,date,prcp,tobs CSV and inserts the rows in
// batches. Empty prcp or tobs cells are stored as NULL.
func (s *LoaderService) LoadMeasurements(ctx context.Context, r io.Reader, batchSize int, result *LoadResult) error {
	batch := make([]*models.Measurement, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.repo.InsertMeasurementsBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to insert batch: %w", err)
		}
		result.MeasurementsLoaded += len(batch)
		batch = batch[:0]
		return nil
	}

	err := readCSV(r, []string{"station", "date", "prcp", "tobs"}, func(line int, rec csvRecord, parseErr error) error {
		result.TotalRecords++
		if parseErr != nil {
			s.metrics.RecordLoadError("parse_error")
			result.reject(fmt.Sprintf("measurements line %d: %v", line, parseErr))
			return nil
		}

		raw := models.RawMeasurementRecord{
			StationID:     rec.get("station"),
			Date:          rec.get("date"),
			Precipitation: rec.get("prcp"),
			Temperature:   rec.get("tobs"),
		}
		m, err := raw.ToMeasurement()
		if err != nil {
			s.metrics.RecordLoadError("conversion_error")
			result.reject(fmt.Sprintf("measurements line %d: %v", line, err))
			return nil
		}

		batch = append(batch, m)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}

	return flush()
}

// csvRecord is one data row addressed by header name
type csvRecord struct {
	columns map[string]int
	fields  []string
}

func (r csvRecord) get(name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

// readCSV walks the data rows of a headed CSV file. Columns are matched by
// name so extra columns such as a surrogate id are ignored. Rows with the
// wrong number of fields are passed to fn with a non-nil parseErr.
func readCSV(r io.Reader, required []string, fn func(line int, rec csvRecord, parseErr error) error) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("missing header row")
		}
		return fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return fmt.Errorf("missing column %q in header", name)
		}
	}

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) && errors.Is(err, csv.ErrFieldCount) {
			if err := fn(parseErr.Line, csvRecord{}, err); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read csv: %w", err)
		}

		line, _ := cr.FieldPos(0)
		if err := fn(line, csvRecord{columns: columns, fields: fields}, nil); err != nil {
			return err
		}
	}
}
