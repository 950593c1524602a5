package models

import "fmt"

// ValidationError represents a data validation error raised while loading
// the dataset
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}

// InvalidDateError is returned when a supplied date is not a well-formed
// calendar date or a range ends before it starts
type InvalidDateError struct {
	Value  string
	Reason string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q: %s", e.Value, e.Reason)
}

// IsTransient returns false; the same input always fails
func (e *InvalidDateError) IsTransient() bool {
	return false
}

// EmptyDatasetError is returned when there are no rows to answer a
// global-extent or most-active-station query
type EmptyDatasetError struct {
	Scope string
}

func (e *EmptyDatasetError) Error() string {
	if e.Scope == "" {
		return "no measurements in dataset"
	}
	return fmt.Sprintf("no measurements for %s", e.Scope)
}

func (e *EmptyDatasetError) IsTransient() bool {
	return false
}

// UnknownStationError is returned when a computed station identifier has no
// matching station record
type UnknownStationError struct {
	StationID string
}

func (e *UnknownStationError) Error() string {
	return fmt.Sprintf("station %q has measurements but no station record", e.StationID)
}

func (e *UnknownStationError) IsTransient() bool {
	return false
}
