package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"climate-api/internal/models"
	"climate-api/pkg/database"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

// ClimateRepository provides data access for the station and measurement
// tables
type ClimateRepository interface {
	// WithReader checks out one connection and runs fn against it. The
	// connection is released when fn returns.
	WithReader(ctx context.Context, fn func(Reader) error) error

	// Loader operations
	UpsertStations(ctx context.Context, stations []*models.Station) error
	InsertMeasurementsBatch(ctx context.Context, measurements []*models.Measurement) error
	DeleteMeasurements(ctx context.Context) (int64, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// Reader is the read-only query surface bound to a single connection
type Reader interface {
	ListStations(ctx context.Context) ([]models.Station, error)
	GetStation(ctx context.Context, stationID string) (*models.Station, error)
	ScanMeasurements(ctx context.Context, filter MeasurementFilter) ([]models.Measurement, error)
}

// MeasurementFilter defines filters for scanning measurements. Nil fields
// are not applied; date bounds are inclusive.
type MeasurementFilter struct {
	StationID *string
	StartDate *string
	EndDate   *string
}

// climateRepository implements ClimateRepository
type climateRepository struct {
	db      *database.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewClimateRepository creates a new climate repository
func NewClimateRepository(db *database.DB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) ClimateRepository {
	return &climateRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// WithReader runs fn on a dedicated pooled connection
func (r *climateRepository) WithReader(ctx context.Context, fn func(Reader) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(&reader{conn: conn})
}

// reader implements Reader on top of a single connection
type reader struct {
	conn *database.Conn
}

// ListStations retrieves every station ordered by id
func (r *reader) ListStations(ctx context.Context) ([]models.Station, error) {
	query := `
		SELECT station, COALESCE(name, '') AS name, latitude, longitude, elevation
		FROM station
		ORDER BY station
	`

	var stations []models.Station
	if err := r.conn.SelectContext(ctx, "list_stations", &stations, query); err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}

	return stations, nil
}

// GetStation retrieves a station by id
func (r *reader) GetStation(ctx context.Context, stationID string) (*models.Station, error) {
	query := `
		SELECT station, COALESCE(name, '') AS name, latitude, longitude, elevation
		FROM station
		WHERE station = ?
	`

	var station models.Station
	err := r.conn.GetContext(ctx, "get_station", &station, query, stationID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{
			Resource: "station",
			ID:       stationID,
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get station: %w", err)
	}

	return &station, nil
}

// ScanMeasurements retrieves measurement rows matching filter, ordered by
// date
func (r *reader) ScanMeasurements(ctx context.Context, filter MeasurementFilter) ([]models.Measurement, error) {
	query := `
		SELECT station, date, prcp, tobs
		FROM measurement
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.StationID != nil {
		query += " AND station = ?"
		args = append(args, *filter.StationID)
	}

	if filter.StartDate != nil {
		query += " AND date >= ?"
		args = append(args, *filter.StartDate)
	}

	if filter.EndDate != nil {
		query += " AND date <= ?"
		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY date"

	var measurements []models.Measurement
	if err := r.conn.SelectContext(ctx, "scan_measurements", &measurements, query, args...); err != nil {
		return nil, fmt.Errorf("failed to scan measurements: %w", err)
	}

	return measurements, nil
}

// UpsertStations inserts stations, replacing the attributes of existing ids
func (r *climateRepository) UpsertStations(ctx context.Context, stations []*models.Station) error {
	if len(stations) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO station (station, name, latitude, longitude, elevation)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (station) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			elevation = excluded.elevation
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, st := range stations {
		_, err := stmt.ExecContext(ctx,
			st.StationID,
			st.Name,
			st.Latitude,
			st.Longitude,
			st.Elevation,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert station %s: %w", st.StationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.LoadRecordsTotal.WithLabelValues("station").Add(float64(len(stations)))

	r.logger.Debug(ctx, "[REPO_UPSERT_STATIONS] Stations upserted", logging.Fields{
		"count": len(stations),
	})

	return nil
}

// InsertMeasurementsBatch inserts measurements in a single transaction
func (r *climateRepository) InsertMeasurementsBatch(ctx context.Context, measurements []*models.Measurement) error {
	if len(measurements) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.LoadBatchSize.Observe(float64(len(measurements)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(measurements),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO measurement (station, date, prcp, tobs)
		VALUES (?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range measurements {
		_, err := stmt.ExecContext(ctx,
			m.StationID,
			m.Date,
			m.Precipitation,
			m.Temperature,
		)
		if err != nil {
			return fmt.Errorf("failed to insert measurement %s/%s: %w", m.StationID, m.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.LoadRecordsTotal.WithLabelValues("measurement").Add(float64(len(measurements)))

	return nil
}

// DeleteMeasurements removes every measurement row and reports how many
// were deleted
func (r *climateRepository) DeleteMeasurements(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "delete_measurements", "DELETE FROM measurement")
	if err != nil {
		return 0, fmt.Errorf("failed to delete measurements: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted measurements: %w", err)
	}

	r.logger.Info(ctx, "[REPO_DELETE_MEASUREMENTS] Measurements deleted", logging.Fields{
		"count": n,
	})

	return n, nil
}

// HealthCheck performs a repository health check
func (r *climateRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
