package models

import (
	"errors"
	"testing"
)

// TestRawMeasurementRecord_ToMeasurement tests the CSV conversion logic
func TestRawMeasurementRecord_ToMeasurement(t *testing.T) {
	tests := []struct {
		name        string
		record      RawMeasurementRecord
		wantErr     bool
		wantField   string
		checkValues func(*testing.T, *Measurement)
	}{
		{
			name: "valid record with all values",
			record: RawMeasurementRecord{
				StationID:     "USC00519397",
				Date:          "2010-01-01",
				Precipitation: "0.08",
				Temperature:   "65",
			},
			checkValues: func(t *testing.T, m *Measurement) {
				if m.StationID != "USC00519397" {
					t.Errorf("StationID = %v, want %v", m.StationID, "USC00519397")
				}
				if m.Date != "2010-01-01" {
					t.Errorf("Date = %v, want %v", m.Date, "2010-01-01")
				}
				if m.Precipitation == nil {
					t.Error("Precipitation should not be nil")
				} else if *m.Precipitation != 0.08 {
					t.Errorf("Precipitation = %v, want %v", *m.Precipitation, 0.08)
				}
				if m.Temperature == nil {
					t.Error("Temperature should not be nil")
				} else if *m.Temperature != 65 {
					t.Errorf("Temperature = %v, want %v", *m.Temperature, 65.0)
				}
			},
		},
		{
			name: "empty precipitation is NULL",
			record: RawMeasurementRecord{
				StationID:   "USC00519397",
				Date:        "2010-01-02",
				Temperature: "63",
			},
			checkValues: func(t *testing.T, m *Measurement) {
				if m.Precipitation != nil {
					t.Error("Precipitation should be nil for an empty cell")
				}
				if m.Temperature == nil {
					t.Error("Temperature should not be nil")
				}
			},
		},
		{
			name: "surrounding whitespace is trimmed",
			record: RawMeasurementRecord{
				StationID:     " USC00513117 ",
				Date:          " 2012-02-29 ",
				Precipitation: " 0 ",
				Temperature:   " ",
			},
			checkValues: func(t *testing.T, m *Measurement) {
				if m.StationID != "USC00513117" {
					t.Errorf("StationID = %q, want %q", m.StationID, "USC00513117")
				}
				if m.Date != "2012-02-29" {
					t.Errorf("Date = %q, want %q", m.Date, "2012-02-29")
				}
				if m.Precipitation == nil || *m.Precipitation != 0 {
					t.Errorf("Precipitation = %v, want 0", m.Precipitation)
				}
				if m.Temperature != nil {
					t.Error("Temperature should be nil for a blank cell")
				}
			},
		},
		{
			name:      "missing station",
			record:    RawMeasurementRecord{Date: "2010-01-01"},
			wantErr:   true,
			wantField: "station",
		},
		{
			name:      "compact date format rejected",
			record:    RawMeasurementRecord{StationID: "S1", Date: "20100101"},
			wantErr:   true,
			wantField: "date",
		},
		{
			name:      "impossible calendar date rejected",
			record:    RawMeasurementRecord{StationID: "S1", Date: "2011-02-29"},
			wantErr:   true,
			wantField: "date",
		},
		{
			name:      "negative precipitation rejected",
			record:    RawMeasurementRecord{StationID: "S1", Date: "2010-01-01", Precipitation: "-0.1"},
			wantErr:   true,
			wantField: "prcp",
		},
		{
			name:      "non-numeric temperature rejected",
			record:    RawMeasurementRecord{StationID: "S1", Date: "2010-01-01", Temperature: "warm"},
			wantErr:   true,
			wantField: "tobs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.record.ToMeasurement()

			if (err != nil) != tt.wantErr {
				t.Errorf("ToMeasurement() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("error = %T, want *ValidationError", err)
				}
				if vErr.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", vErr.Field, tt.wantField)
				}
				return
			}

			if tt.checkValues != nil {
				tt.checkValues(t, m)
			}
		})
	}
}

func TestRawStationRecord_ToStation(t *testing.T) {
	rec := RawStationRecord{
		StationID: "USC00519397",
		Name:      "WAIKIKI 717.2, HI US",
		Latitude:  "21.2716",
		Longitude: "-157.8168",
		Elevation: "",
	}

	st, err := rec.ToStation()
	if err != nil {
		t.Fatalf("ToStation() error = %v", err)
	}
	if st.Name != "WAIKIKI 717.2, HI US" {
		t.Errorf("Name = %q", st.Name)
	}
	if st.Latitude == nil || *st.Latitude != 21.2716 {
		t.Errorf("Latitude = %v, want 21.2716", st.Latitude)
	}
	if st.Longitude == nil || *st.Longitude != -157.8168 {
		t.Errorf("Longitude = %v, want -157.8168", st.Longitude)
	}
	if st.Elevation != nil {
		t.Error("Elevation should be nil for an empty cell")
	}

	if _, err := (&RawStationRecord{StationID: "S1", Latitude: "north"}).ToStation(); err == nil {
		t.Error("expected error for non-numeric latitude")
	}
}

func TestDateRange(t *testing.T) {
	bounded := DateRange{Start: "2017-01-01", End: "2017-12-31"}
	open := DateRange{Start: "2017-01-01"}

	tests := []struct {
		name string
		r    DateRange
		date string
		want bool
	}{
		{"start inclusive", bounded, "2017-01-01", true},
		{"end inclusive", bounded, "2017-12-31", true},
		{"before start", bounded, "2016-12-31", false},
		{"after end", bounded, "2018-01-01", false},
		{"open range far future", open, "2999-01-01", true},
		{"open range before start", open, "2016-12-31", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Contains(tt.date); got != tt.want {
				t.Errorf("Contains(%q) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}

	if open.Bounded() {
		t.Error("open range should not be bounded")
	}
	if open.String() != "2017-01-01.." {
		t.Errorf("String() = %q", open.String())
	}
}

// TestErrorKinds tests error classification
func TestErrorKinds(t *testing.T) {
	errs := []interface {
		error
		IsTransient() bool
	}{
		&ValidationError{Field: "date", Value: "invalid", Message: "invalid date format"},
		&InvalidDateError{Value: "2021-13-40", Reason: "month out of range"},
		&EmptyDatasetError{},
		&UnknownStationError{StationID: "S9"},
	}

	for _, err := range errs {
		if err.IsTransient() {
			t.Errorf("%T should not be transient", err)
		}
		if err.Error() == "" {
			t.Errorf("%T has empty message", err)
		}
	}

	if got := (&EmptyDatasetError{Scope: "station S1"}).Error(); got != "no measurements for station S1" {
		t.Errorf("Error() = %q", got)
	}
}
