package climate

import "climate-api/internal/models"

// trailingDays is the length of the "last year of data" window
const trailingDays = 365

// GlobalExtent returns the smallest and largest measurement dates.
func GlobalExtent(measurements []models.Measurement) (models.DateRange, error) {
	if len(measurements) == 0 {
		return models.DateRange{}, &models.EmptyDatasetError{}
	}

	extent := models.DateRange{Start: measurements[0].Date, End: measurements[0].Date}
	for _, m := range measurements[1:] {
		if m.Date < extent.Start {
			extent.Start = m.Date
		}
		if m.Date > extent.End {
			extent.End = m.Date
		}
	}
	return extent, nil
}

// TrailingWindow returns the inclusive window that ends at reference and
// starts 365 calendar days earlier.
func TrailingWindow(reference string) (models.DateRange, error) {
	ref, err := ParseDate(reference)
	if err != nil {
		return models.DateRange{}, err
	}
	return models.DateRange{
		Start: ref.AddDate(0, 0, -trailingDays).Format(models.DateLayout),
		End:   reference,
	}, nil
}
