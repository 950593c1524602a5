package climate

import "climate-api/internal/models"

func f(v float64) *float64 { return &v }

func row(station, date string, prcp, tobs *float64) models.Measurement {
	return models.Measurement{StationID: station, Date: date, Precipitation: prcp, Temperature: tobs}
}
