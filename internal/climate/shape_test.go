package climate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-api/internal/models"
)

func TestPrecipitationByDate_MarshalJSON(t *testing.T) {
	p := ShapePrecipitation([]models.DailyValue{
		{Date: "2016-08-23", Value: 1.79},
		{Date: "2016-08-24", Value: 2.28},
		{Date: "2016-08-25", Value: 0},
	})

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"2016-08-23":1.79,"2016-08-24":2.28,"2016-08-25":0}`, string(b))
}

func TestPrecipitationByDate_Empty(t *testing.T) {
	b, err := json.Marshal(ShapePrecipitation(nil))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))
}

func TestStationDirectory_MarshalJSON(t *testing.T) {
	dir := ShapeStations([]models.Station{
		{StationID: "USC00519397", Name: "WAIKIKI 717.2, HI US", Latitude: f(21.2716), Longitude: f(-157.8168), Elevation: f(3)},
		{StationID: "USC00513117", Name: "KANEOHE 838.1, HI US", Latitude: f(21.4234), Longitude: f(-157.8015)},
	})

	require.Len(t, dir, 2)
	assert.Equal(t, "USC00513117", dir[0].StationID)

	b, err := json.Marshal(dir)
	require.NoError(t, err)
	assert.Equal(t,
		`{"USC00513117":{"name":"KANEOHE 838.1, HI US","latitude":21.4234,"longitude":-157.8015,"elevation":null},`+
			`"USC00519397":{"name":"WAIKIKI 717.2, HI US","latitude":21.2716,"longitude":-157.8168,"elevation":3}}`,
		string(b))
}

func TestShapeStations_DoesNotReorderInput(t *testing.T) {
	in := []models.Station{{StationID: "B"}, {StationID: "A"}}
	_ = ShapeStations(in)
	assert.Equal(t, "B", in[0].StationID)
}

func TestShapeObservations(t *testing.T) {
	rows := []models.Measurement{
		row("S1", "2021-01-01", nil, f(70)),
		row("S1", "2021-01-02", nil, f(72)),
	}
	series := ShapeObservations(StationObservations(rows, "S1", models.DateRange{Start: "2021-01-01", End: "2021-01-02"}))

	assert.Equal(t, []string{"2021-01-01", "2021-01-02"}, series.Dates)
	require.Len(t, series.Temperatures, 2)
	assert.Equal(t, 70.0, *series.Temperatures[0])
	assert.Equal(t, 72.0, *series.Temperatures[1])

	b, err := json.Marshal(series)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":["2021-01-01","2021-01-02"],"tobs":[70,72]}`, string(b))
}

func TestShapeObservations_EmptyArrays(t *testing.T) {
	b, err := json.Marshal(ShapeObservations(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":[],"tobs":[]}`, string(b))
}

func TestShapeRangeStats(t *testing.T) {
	s := ShapeRangeStats("USC00519281", models.TemperatureStats{Min: 54, Avg: 71.5, Max: 85, Count: 10}, true)
	assert.True(t, s.HasData())

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"station":"USC00519281","TMIN":54,"TAVG":71.5,"TMAX":85}`, string(b))
}

func TestShapeRangeStats_NoData(t *testing.T) {
	s := ShapeRangeStats("USC00519281", models.TemperatureStats{}, false)
	assert.False(t, s.HasData())

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"station":"USC00519281","TMIN":null,"TAVG":null,"TMAX":null}`, string(b))
}
