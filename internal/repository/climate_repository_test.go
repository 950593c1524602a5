package repository

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-api/internal/models"
	"climate-api/pkg/database"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

func f(v float64) *float64 { return &v }

func str(s string) *string { return &s }

func setupRepository(t *testing.T) (ClimateRepository, *metrics.Collector) {
	t.Helper()
	ctx := context.Background()

	logger := logging.NewStructuredLogger("test", "0.0.0", logging.ErrorLevel, logging.FormatJSON)
	logger.SetOutput(io.Discard)
	m := metrics.NewCollector("test", prometheus.NewRegistry())

	db, err := database.Open(ctx, &database.Config{Driver: database.DriverSQLite, Path: ":memory:"}, logger, m)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx, database.Up))

	return NewClimateRepository(db, logger, m), m
}

func seed(t *testing.T, repo ClimateRepository) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, repo.UpsertStations(ctx, []*models.Station{
		{StationID: "USC00519397", Name: "WAIKIKI 717.2, HI US", Latitude: f(21.2716), Longitude: f(-157.8168), Elevation: f(3.0)},
		{StationID: "USC00513117", Name: "KANEOHE 838.1, HI US", Latitude: f(21.4234), Longitude: f(-157.8015), Elevation: f(14.6)},
		{StationID: "USC00514830", Name: ""},
	}))

	require.NoError(t, repo.InsertMeasurementsBatch(ctx, []*models.Measurement{
		{StationID: "USC00519397", Date: "2017-08-23", Precipitation: f(0.0), Temperature: f(81)},
		{StationID: "USC00519397", Date: "2016-08-23", Precipitation: f(0.08), Temperature: f(77)},
		{StationID: "USC00513117", Date: "2016-08-23", Precipitation: nil, Temperature: f(76)},
		{StationID: "USC00513117", Date: "2017-01-01", Precipitation: f(0.29), Temperature: nil},
	}))
}

func TestListStations(t *testing.T) {
	repo, _ := setupRepository(t)
	seed(t, repo)

	err := repo.WithReader(context.Background(), func(rd Reader) error {
		stations, err := rd.ListStations(context.Background())
		require.NoError(t, err)
		require.Len(t, stations, 3)

		assert.Equal(t, "USC00513117", stations[0].StationID)
		assert.Equal(t, "USC00514830", stations[1].StationID)
		assert.Equal(t, "USC00519397", stations[2].StationID)
		assert.Equal(t, "WAIKIKI 717.2, HI US", stations[2].Name)
		assert.InDelta(t, 21.2716, *stations[2].Latitude, 1e-9)
		assert.Nil(t, stations[1].Latitude)
		return nil
	})
	require.NoError(t, err)
}

func TestGetStation(t *testing.T) {
	repo, _ := setupRepository(t)
	seed(t, repo)

	err := repo.WithReader(context.Background(), func(rd Reader) error {
		st, err := rd.GetStation(context.Background(), "USC00513117")
		require.NoError(t, err)
		assert.Equal(t, "KANEOHE 838.1, HI US", st.Name)

		_, err = rd.GetStation(context.Background(), "NOPE")
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "NOPE", nf.ID)
		assert.False(t, nf.IsTransient())
		return nil
	})
	require.NoError(t, err)
}

func TestScanMeasurements(t *testing.T) {
	repo, _ := setupRepository(t)
	seed(t, repo)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter MeasurementFilter
		want   []string
	}{
		{
			name: "all rows ordered by date",
			want: []string{"2016-08-23", "2016-08-23", "2017-01-01", "2017-08-23"},
		},
		{
			name:   "station",
			filter: MeasurementFilter{StationID: str("USC00519397")},
			want:   []string{"2016-08-23", "2017-08-23"},
		},
		{
			name:   "inclusive bounds",
			filter: MeasurementFilter{StartDate: str("2016-08-23"), EndDate: str("2017-01-01")},
			want:   []string{"2016-08-23", "2016-08-23", "2017-01-01"},
		},
		{
			name:   "open upper bound",
			filter: MeasurementFilter{StationID: str("USC00513117"), StartDate: str("2016-12-31")},
			want:   []string{"2017-01-01"},
		},
		{
			name:   "empty result",
			filter: MeasurementFilter{StartDate: str("2018-01-01")},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.WithReader(ctx, func(rd Reader) error {
				rows, err := rd.ScanMeasurements(ctx, tt.filter)
				if err != nil {
					return err
				}
				dates := make([]string, 0, len(rows))
				for _, m := range rows {
					dates = append(dates, m.Date)
				}
				assert.Equal(t, tt.want, dates)
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestScanMeasurementsPreservesNulls(t *testing.T) {
	repo, _ := setupRepository(t)
	seed(t, repo)
	ctx := context.Background()

	err := repo.WithReader(ctx, func(rd Reader) error {
		rows, err := rd.ScanMeasurements(ctx, MeasurementFilter{StationID: str("USC00513117")})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Nil(t, rows[0].Precipitation)
		assert.Equal(t, 76.0, *rows[0].Temperature)
		assert.Nil(t, rows[1].Temperature)
		return nil
	})
	require.NoError(t, err)
}

func TestUpsertStationsReplacesAttributes(t *testing.T) {
	repo, m := setupRepository(t)
	seed(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.UpsertStations(ctx, []*models.Station{
		{StationID: "USC00514830", Name: "KUALOA RANCH HEADQUARTERS 886.9, HI US", Elevation: f(7.0)},
	}))

	err := repo.WithReader(ctx, func(rd Reader) error {
		st, err := rd.GetStation(ctx, "USC00514830")
		require.NoError(t, err)
		assert.Equal(t, "KUALOA RANCH HEADQUARTERS 886.9, HI US", st.Name)
		assert.Equal(t, 7.0, *st.Elevation)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.LoadRecordsTotal.WithLabelValues("station")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.LoadRecordsTotal.WithLabelValues("measurement")))
}

func TestInsertMeasurementsBatchRollsBackOnError(t *testing.T) {
	repo, _ := setupRepository(t)
	seed(t, repo)
	ctx := context.Background()

	// unknown station violates the foreign key
	err := repo.InsertMeasurementsBatch(ctx, []*models.Measurement{
		{StationID: "USC00519397", Date: "2017-08-24", Temperature: f(80)},
		{StationID: "MISSING", Date: "2017-08-24", Temperature: f(80)},
	})
	require.Error(t, err)

	err = repo.WithReader(ctx, func(rd Reader) error {
		rows, err := rd.ScanMeasurements(ctx, MeasurementFilter{StartDate: str("2017-08-24")})
		require.NoError(t, err)
		assert.Empty(t, rows)
		return nil
	})
	require.NoError(t, err)
}

func TestDeleteMeasurements(t *testing.T) {
	repo, _ := setupRepository(t)
	seed(t, repo)
	ctx := context.Background()

	n, err := repo.DeleteMeasurements(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	err = repo.WithReader(ctx, func(rd Reader) error {
		rows, err := rd.ScanMeasurements(ctx, MeasurementFilter{})
		require.NoError(t, err)
		assert.Empty(t, rows)
		return nil
	})
	require.NoError(t, err)
}

func TestWithReaderPropagatesError(t *testing.T) {
	repo, _ := setupRepository(t)
	sentinel := errors.New("boom")

	err := repo.WithReader(context.Background(), func(Reader) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	// the connection was released, so a second session can run
	require.NoError(t, repo.WithReader(context.Background(), func(Reader) error { return nil }))
	assert.NoError(t, repo.HealthCheck(context.Background()))
}
