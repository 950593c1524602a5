package climate

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"climate-api/internal/models"
)

// PrecipitationByDate renders as a JSON object of date -> value that keeps
// ascending date order on the wire.
type PrecipitationByDate []models.DailyValue

// ShapePrecipitation shapes the output of DailyMaxPrecipitation.
func ShapePrecipitation(values []models.DailyValue) PrecipitationByDate {
	return PrecipitationByDate(values)
}

func (p PrecipitationByDate) MarshalJSON() ([]byte, error) {
	return marshalOrderedObject(len(p), func(i int) (string, any) {
		return p[i].Date, p[i].Value
	})
}

// StationRecord is the per-station payload of the stations listing
type StationRecord struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Elevation *float64 `json:"elevation"`
}

// StationDirectory renders as a JSON object of station id -> record ordered
// by station id.
type StationDirectory []models.Station

// ShapeStations sorts a copy of stations by id.
func ShapeStations(stations []models.Station) StationDirectory {
	dir := slices.Clone(stations)
	slices.SortFunc(dir, func(a, b models.Station) int {
		return strings.Compare(a.StationID, b.StationID)
	})
	return StationDirectory(dir)
}

func (d StationDirectory) MarshalJSON() ([]byte, error) {
	return marshalOrderedObject(len(d), func(i int) (string, any) {
		st := d[i]
		return st.StationID, StationRecord{
			Name:      st.Name,
			Latitude:  st.Latitude,
			Longitude: st.Longitude,
			Elevation: st.Elevation,
		}
	})
}

// TemperatureSeries pairs observation dates with their temperatures as two
// parallel arrays
type TemperatureSeries struct {
	Dates        []string   `json:"date"`
	Temperatures []*float64 `json:"tobs"`
}

// ShapeObservations preserves the row order of StationObservations.
func ShapeObservations(observations []models.Observation) TemperatureSeries {
	series := TemperatureSeries{
		Dates:        make([]string, 0, len(observations)),
		Temperatures: make([]*float64, 0, len(observations)),
	}
	for _, o := range observations {
		series.Dates = append(series.Dates, o.Date)
		series.Temperatures = append(series.Temperatures, o.Temperature)
	}
	return series
}

// RangeStats is the payload of the date-range statistics queries.
// The statistics are null when the range holds no temperature data.
type RangeStats struct {
	Station string   `json:"station"`
	Min     *float64 `json:"TMIN"`
	Avg     *float64 `json:"TAVG"`
	Max     *float64 `json:"TMAX"`
}

// ShapeRangeStats shapes the output of StationTemperatureStats.
func ShapeRangeStats(stationID string, stats models.TemperatureStats, ok bool) RangeStats {
	out := RangeStats{Station: stationID}
	if !ok {
		return out
	}
	out.Min = &stats.Min
	out.Avg = &stats.Avg
	out.Max = &stats.Max
	return out
}

// HasData reports whether the statistics were computed from at least one row.
func (s RangeStats) HasData() bool {
	return s.Avg != nil
}

func marshalOrderedObject(n int, entry func(i int) (string, any)) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, value := entry(i)

		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
