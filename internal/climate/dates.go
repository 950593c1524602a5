package climate

import (
	"time"

	"climate-api/internal/models"
)

// ParseDate parses a strict YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, &models.InvalidDateError{
			Value:  s,
			Reason: "expected a YYYY-MM-DD calendar date",
		}
	}
	return t, nil
}

// NewDateRange builds the inclusive range [start, end]. It fails when either
// bound is malformed or end is before start.
func NewDateRange(start, end string) (models.DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return models.DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return models.DateRange{}, err
	}
	if e.Before(s) {
		return models.DateRange{}, &models.InvalidDateError{
			Value:  end,
			Reason: "end date is before start date " + start,
		}
	}
	return models.DateRange{Start: start, End: end}, nil
}

// OpenDateRange builds the range [start, +inf).
func OpenDateRange(start string) (models.DateRange, error) {
	if _, err := ParseDate(start); err != nil {
		return models.DateRange{}, err
	}
	return models.DateRange{Start: start}, nil
}
