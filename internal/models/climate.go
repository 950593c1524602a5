package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used by the dataset.
// Lexicographic order of strings in this layout equals chronological order.
const DateLayout = "2006-01-02"

// Station represents a weather observation site
type Station struct {
	StationID string   `json:"station" db:"station"`
	Name      string   `json:"name" db:"name"`
	Latitude  *float64 `json:"latitude" db:"latitude"`
	Longitude *float64 `json:"longitude" db:"longitude"`
	Elevation *float64 `json:"elevation" db:"elevation"`
}

// Measurement represents one daily observation at a station.
// NULL values are represented as pointers.
type Measurement struct {
	StationID     string   `json:"station" db:"station"`
	Date          string   `json:"date" db:"date"`
	Precipitation *float64 `json:"prcp" db:"prcp"`
	Temperature   *float64 `json:"tobs" db:"tobs"`
}

// DateRange is an inclusive range of ISO dates. An empty End means the
// range is unbounded above.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// Bounded reports whether the range has an upper bound.
func (r DateRange) Bounded() bool {
	return r.End != ""
}

// Contains reports whether date falls inside the range.
func (r DateRange) Contains(date string) bool {
	if date < r.Start {
		return false
	}
	return !r.Bounded() || date <= r.End
}

func (r DateRange) String() string {
	if !r.Bounded() {
		return r.Start + ".."
	}
	return r.Start + ".." + r.End
}

// StationActivity is the number of measurement rows recorded by a station
type StationActivity struct {
	StationID string `json:"station" db:"station"`
	Count     int    `json:"count" db:"count"`
}

// DailyValue is a single aggregated value for a date
type DailyValue struct {
	Date  string
	Value float64
}

// Observation is a temperature reading as emitted by the observations query
type Observation struct {
	Date        string
	Temperature *float64
}

// TemperatureStats summarizes the non-null temperatures of a station
type TemperatureStats struct {
	Min   float64
	Avg   float64
	Max   float64
	Count int
}

// RawStationRecord represents a single line of the stations CSV file
type RawStationRecord struct {
	StationID string
	Name      string
	Latitude  string
	Longitude string
	Elevation string
}

// ToStation converts the raw record, treating empty numeric cells as NULL
func (r *RawStationRecord) ToStation() (*Station, error) {
	id := strings.TrimSpace(r.StationID)
	if id == "" {
		return nil, &ValidationError{
			Field:   "station",
			Value:   r.StationID,
			Message: "station id is required",
		}
	}

	st := &Station{
		StationID: id,
		Name:      strings.TrimSpace(r.Name),
	}

	var err error
	if st.Latitude, err = parseOptionalFloat("latitude", r.Latitude); err != nil {
		return nil, err
	}
	if st.Longitude, err = parseOptionalFloat("longitude", r.Longitude); err != nil {
		return nil, err
	}
	if st.Elevation, err = parseOptionalFloat("elevation", r.Elevation); err != nil {
		return nil, err
	}

	return st, nil
}

// RawMeasurementRecord represents a single line of the measurements CSV file
type RawMeasurementRecord struct {
	StationID     string
	Date          string
	Precipitation string
	Temperature   string
}

// ToMeasurement converts the raw record.
// Empty cells become NULL; dates must be strict YYYY-MM-DD.
func (r *RawMeasurementRecord) ToMeasurement() (*Measurement, error) {
	id := strings.TrimSpace(r.StationID)
	if id == "" {
		return nil, &ValidationError{
			Field:   "station",
			Value:   r.StationID,
			Message: "station id is required",
		}
	}

	date := strings.TrimSpace(r.Date)
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, &ValidationError{
			Field:   "date",
			Value:   r.Date,
			Message: "invalid date format, expected YYYY-MM-DD",
		}
	}

	m := &Measurement{
		StationID: id,
		Date:      date,
	}

	var err error
	if m.Precipitation, err = parseOptionalFloat("prcp", r.Precipitation); err != nil {
		return nil, err
	}
	if m.Precipitation != nil && *m.Precipitation < 0 {
		return nil, &ValidationError{
			Field:   "prcp",
			Value:   r.Precipitation,
			Message: "precipitation must not be negative",
		}
	}
	if m.Temperature, err = parseOptionalFloat("tobs", r.Temperature); err != nil {
		return nil, err
	}

	return m, nil
}

func parseOptionalFloat(field, raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &ValidationError{
			Field:   field,
			Value:   raw,
			Message: fmt.Sprintf("invalid %s value", field),
		}
	}
	return &v, nil
}
