package ledger

import "github.com/studypal/points-api/models"

// DayGroup is a display grouping of history records sharing a calendar day.
type DayGroup struct {
	Day     string               `json:"day"`
	Total   int                  `json:"total"`
	Records []models.PointRecord `json:"records"`
}

// GroupByDay folds a newest-first record sequence into per-day groups,
// preserving the input order of days and of records within a day. It is a
// pure view: the input slice is not touched.
func GroupByDay(recs []models.PointRecord) []DayGroup {
	var groups []DayGroup
	idx := map[string]int{}
	for _, rec := range recs {
		day := DayKey(rec.Timestamp)
		i, ok := idx[day]
		if !ok {
			i = len(groups)
			idx[day] = i
			groups = append(groups, DayGroup{Day: day})
		}
		groups[i].Records = append(groups[i].Records, rec)
		groups[i].Total += rec.Points
	}
	return groups
}
