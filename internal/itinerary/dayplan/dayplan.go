// Package dayplan builds the in-memory day skeleton of a trip and hydrates it
// from a persisted schedule document. Day identifiers are positional
// (day-0, day-1, ...) relative to the trip's start date: they stay stable
// across loads only while the start date does not change.
package dayplan

import (
	"fmt"
	"time"

	"tripflow/pkg/model"
)

// noonUTC pins a date to 12:00 UTC. Comparing range endpoints at a fixed
// mid-day hour keeps the day count immune to timezone and DST boundary drift.
func noonUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// BuildDayRange produces one ScheduleDay per calendar day from start to end
// inclusive, in ascending order, with empty location lists. Returns an empty
// slice when start is after end.
func BuildDayRange(start, end time.Time) []model.ScheduleDay {
	first := noonUTC(start)
	last := noonUTC(end)

	var days []model.ScheduleDay
	for cur, i := first, 0; !cur.After(last); cur, i = cur.AddDate(0, 0, 1), i+1 {
		days = append(days, model.ScheduleDay{
			DayID:     fmt.Sprintf("day-%d", i),
			Date:      cur,
			Locations: []model.ScheduleLocation{},
		})
	}
	return days
}

// Hydrate fills a generated day skeleton with the visits of a persisted
// schedule, matched by dayId. Days without a persisted counterpart keep an
// empty location list; persisted days outside the skeleton are dropped, since
// their positional ids no longer map to a calendar date.
func Hydrate(days, persisted []model.ScheduleDay) []model.ScheduleDay {
	byID := make(map[string]model.ScheduleDay, len(persisted))
	for _, day := range persisted {
		byID[day.DayID] = day
	}

	out := make([]model.ScheduleDay, len(days))
	for i, day := range days {
		out[i] = day
		if stored, ok := byID[day.DayID]; ok {
			out[i].Locations = dedupeLocations(stored.Locations)
		}
	}
	return out
}

// dedupeLocations drops earlier occurrences of a duplicated visit id,
// keeping the last by array position.
func dedupeLocations(locations []model.ScheduleLocation) []model.ScheduleLocation {
	lastIdx := make(map[string]int, len(locations))
	for i, loc := range locations {
		lastIdx[loc.ID] = i
	}

	out := make([]model.ScheduleLocation, 0, len(locations))
	for i, loc := range locations {
		if lastIdx[loc.ID] == i {
			out = append(out, loc)
		}
	}
	return out
}
