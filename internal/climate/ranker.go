package climate

import (
	"cmp"
	"slices"
	"strings"

	"climate-api/internal/models"
)

// RankStations counts measurement rows per station. The result is ordered by
// count descending, then station id ascending.
func RankStations(measurements []models.Measurement) []models.StationActivity {
	counts := make(map[string]int)
	for _, m := range measurements {
		counts[m.StationID]++
	}

	ranking := make([]models.StationActivity, 0, len(counts))
	for id, n := range counts {
		ranking = append(ranking, models.StationActivity{StationID: id, Count: n})
	}

	slices.SortFunc(ranking, func(a, b models.StationActivity) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.StationID, b.StationID)
	})
	return ranking
}

// MostActiveStation returns the station with the most measurement rows.
// Ties go to the lexicographically smallest station id.
func MostActiveStation(measurements []models.Measurement) (string, error) {
	ranking := RankStations(measurements)
	if len(ranking) == 0 {
		return "", &models.EmptyDatasetError{}
	}
	return ranking[0].StationID, nil
}
