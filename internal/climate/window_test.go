package climate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-api/internal/models"
)

func TestGlobalExtent(t *testing.T) {
	rows := []models.Measurement{
		row("S2", "2012-06-01", nil, nil),
		row("S1", "2010-01-01", nil, nil),
		row("S1", "2017-08-23", nil, nil),
		row("S3", "2014-03-15", nil, nil),
	}

	ext, err := GlobalExtent(rows)
	require.NoError(t, err)
	assert.Equal(t, "2010-01-01", ext.Start)
	assert.Equal(t, "2017-08-23", ext.End)
	assert.LessOrEqual(t, ext.Start, ext.End)
}

func TestGlobalExtent_SingleRow(t *testing.T) {
	ext, err := GlobalExtent([]models.Measurement{row("S1", "2015-05-05", nil, nil)})
	require.NoError(t, err)
	assert.Equal(t, ext.Start, ext.End)
}

func TestGlobalExtent_Empty(t *testing.T) {
	_, err := GlobalExtent(nil)
	var empty *models.EmptyDatasetError
	assert.ErrorAs(t, err, &empty)
}

func TestTrailingWindow(t *testing.T) {
	tests := []struct {
		reference string
		wantStart string
	}{
		{"2017-08-23", "2016-08-23"},
		// 2020 is a leap year: 365 days before March 1st lands on March 2nd.
		{"2020-03-01", "2019-03-02"},
		{"2020-02-29", "2019-03-01"},
		{"2021-02-28", "2020-02-29"},
		{"2021-03-01", "2020-03-01"},
		{"2017-01-01", "2016-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.reference, func(t *testing.T) {
			w, err := TrailingWindow(tt.reference)
			require.NoError(t, err)
			assert.Equal(t, tt.reference, w.End)
			assert.Equal(t, tt.wantStart, w.Start)

			start, _ := ParseDate(w.Start)
			end, _ := ParseDate(w.End)
			assert.Equal(t, float64(365), end.Sub(start).Hours()/24)
		})
	}
}

func TestTrailingWindow_InvalidReference(t *testing.T) {
	_, err := TrailingWindow("2017-02-29")
	var dateErr *models.InvalidDateError
	assert.ErrorAs(t, err, &dateErr)
}
