package climate

import (
	"slices"
	"strings"

	"climate-api/internal/models"
)

// selectRows is the filter stage shared by every aggregation. An empty
// stationID matches all stations.
func selectRows(measurements []models.Measurement, stationID string, r models.DateRange) []models.Measurement {
	out := make([]models.Measurement, 0, len(measurements))
	for _, m := range measurements {
		if stationID != "" && m.StationID != stationID {
			continue
		}
		if !r.Contains(m.Date) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// DailyMaxPrecipitation returns, for each date in r, the largest non-null
// precipitation reported by any station. Dates where every value is null are
// omitted. The result is ordered by date.
func DailyMaxPrecipitation(measurements []models.Measurement, r models.DateRange) []models.DailyValue {
	maxByDate := make(map[string]float64)
	for _, m := range selectRows(measurements, "", r) {
		if m.Precipitation == nil {
			continue
		}
		if cur, ok := maxByDate[m.Date]; !ok || *m.Precipitation > cur {
			maxByDate[m.Date] = *m.Precipitation
		}
	}

	out := make([]models.DailyValue, 0, len(maxByDate))
	for date, v := range maxByDate {
		out = append(out, models.DailyValue{Date: date, Value: v})
	}
	slices.SortFunc(out, func(a, b models.DailyValue) int {
		return strings.Compare(a.Date, b.Date)
	})
	return out
}

// StationObservations returns every temperature row of stationID inside r,
// ordered by date. Rows sharing a date keep their scan order.
func StationObservations(measurements []models.Measurement, stationID string, r models.DateRange) []models.Observation {
	rows := selectRows(measurements, stationID, r)

	out := make([]models.Observation, 0, len(rows))
	for _, m := range rows {
		out = append(out, models.Observation{Date: m.Date, Temperature: m.Temperature})
	}
	slices.SortStableFunc(out, func(a, b models.Observation) int {
		return strings.Compare(a.Date, b.Date)
	})
	return out
}

// StationTemperatureStats computes min, mean and max of the non-null
// temperatures of stationID inside r. The boolean is false when no row
// qualifies.
func StationTemperatureStats(measurements []models.Measurement, stationID string, r models.DateRange) (models.TemperatureStats, bool) {
	var (
		stats models.TemperatureStats
		sum   float64
	)

	for _, m := range selectRows(measurements, stationID, r) {
		if m.Temperature == nil {
			continue
		}
		t := *m.Temperature
		if stats.Count == 0 || t < stats.Min {
			stats.Min = t
		}
		if stats.Count == 0 || t > stats.Max {
			stats.Max = t
		}
		sum += t
		stats.Count++
	}

	if stats.Count == 0 {
		return models.TemperatureStats{}, false
	}
	stats.Avg = sum / float64(stats.Count)
	return stats, true
}
