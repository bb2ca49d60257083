// Package engine turns drag-and-drop intents into deterministic mutations of
// the schedule model. Every operation is a pure function of (snapshot, event):
// the input is never modified and a fresh snapshot is returned. Events that
// reference unknown day or visit ids yield the snapshot unchanged, since drag
// gestures can race with concurrent deletions.
package engine

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tripflow/pkg/model"
)

type Engine struct {
	newID func() string
	now   func() time.Time
}

func New() *Engine {
	return &Engine{
		newID: func() string { return uuid.NewString() },
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// NewWithClock injects the id mint and clock. Used by tests that need
// deterministic ids and timestamps.
func NewWithClock(newID func() string, now func() time.Time) *Engine {
	return &Engine{newID: newID, now: now}
}

// Apply dispatches a drag-end event by source kind.
func (e *Engine) Apply(data *model.ScheduleData, src model.DragSource, tgt model.DragTarget) *model.ScheduleData {
	switch src.Kind {
	case model.DragKindCandidate:
		if src.Candidate == nil {
			return data.Clone()
		}
		return e.InsertCandidate(data, *src.Candidate, tgt)
	case model.DragKindVisit:
		if src.DayID == tgt.DayID {
			return e.Reorder(data, src.DayID, src.VisitID, tgt.BeforeVisitID)
		}
		return e.MoveAcrossDays(data, src.DayID, src.VisitID, tgt)
	default:
		return data.Clone()
	}
}

// InsertCandidate mints a new visit from a candidate location and places it
// in the target day: before tgt.BeforeVisitID when given, appended otherwise.
func (e *Engine) InsertCandidate(data *model.ScheduleData, cand model.CandidateLocation, tgt model.DragTarget) *model.ScheduleData {
	out := data.Clone()

	day := findDay(out, tgt.DayID)
	if day == nil {
		day = createDay(out, tgt.DayID)
		if day == nil {
			return out
		}
	}

	now := e.now()
	visit := model.ScheduleLocation{
		ID:            e.newID(),
		Name:          cand.Name,
		Address:       cand.Address,
		Lat:           cand.Lat,
		Lng:           cand.Lng,
		PhotoURL:      cand.PhotoURL,
		ArrivalTime:   model.TimeUnset,
		DepartureTime: model.TimeUnset,
		WayToCommute:  model.CommuteDriving,
		Type:          model.VisitType,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	day.Locations = spliceBefore(day.Locations, visit, tgt.BeforeVisitID)
	day.Locations = dedupeKeepLast(day.Locations)
	return out
}

// Reorder moves a visit within its day using stable array-move semantics:
// the visit lands at the drop target's index in the original ordering, so
// dragging the head onto the tail of [A,B,C] yields [B,C,A]. A drop on the
// day container (empty beforeVisitID) moves the visit to the end.
func (e *Engine) Reorder(data *model.ScheduleData, dayID, visitID, beforeVisitID string) *model.ScheduleData {
	out := data.Clone()

	day := findDay(out, dayID)
	if day == nil {
		return out
	}
	from := indexOfVisit(day.Locations, visitID)
	if from < 0 {
		return out
	}

	to := len(day.Locations) - 1
	if beforeVisitID != "" {
		to = indexOfVisit(day.Locations, beforeVisitID)
		if to < 0 {
			return out
		}
	}

	day.Locations = arrayMove(day.Locations, from, to)
	return out
}

// MoveAcrossDays removes a visit from its source day and re-creates it in the
// target day under a freshly minted id. Arrival and departure times reset to
// the unset sentinel: they are day-local and meaningless in the new context.
func (e *Engine) MoveAcrossDays(data *model.ScheduleData, srcDayID, visitID string, tgt model.DragTarget) *model.ScheduleData {
	out := data.Clone()

	srcDay := findDay(out, srcDayID)
	if srcDay == nil {
		return out
	}
	from := indexOfVisit(srcDay.Locations, visitID)
	if from < 0 {
		return out
	}

	moved := srcDay.Locations[from]
	srcDay.Locations = append(srcDay.Locations[:from], srcDay.Locations[from+1:]...)

	tgtDay := findDay(out, tgt.DayID)
	if tgtDay == nil {
		tgtDay = createDay(out, tgt.DayID)
		if tgtDay == nil {
			return data.Clone()
		}
	}

	moved.ID = e.newID()
	moved.ArrivalTime = model.TimeUnset
	moved.DepartureTime = model.TimeUnset
	moved.UpdatedAt = e.now()

	tgtDay.Locations = spliceBefore(tgtDay.Locations, moved, tgt.BeforeVisitID)
	tgtDay.Locations = dedupeKeepLast(tgtDay.Locations)
	return out
}

func findDay(data *model.ScheduleData, dayID string) *model.ScheduleDay {
	for i := range data.Days {
		if data.Days[i].DayID == dayID {
			return &data.Days[i]
		}
	}
	return nil
}

// createDay appends a day entry for a positional day id that is not yet
// present, keeping days sorted by index. The hydrated model normally carries
// every day of the trip range, so this is a defensive path for sparse models.
func createDay(data *model.ScheduleData, dayID string) *model.ScheduleDay {
	idx, ok := parseDayIndex(dayID)
	if !ok {
		return nil
	}

	insertAt := len(data.Days)
	for i := range data.Days {
		if existing, ok := parseDayIndex(data.Days[i].DayID); ok && existing > idx {
			insertAt = i
			break
		}
	}

	day := model.ScheduleDay{DayID: dayID, Locations: []model.ScheduleLocation{}}
	data.Days = append(data.Days, model.ScheduleDay{})
	copy(data.Days[insertAt+1:], data.Days[insertAt:])
	data.Days[insertAt] = day
	return &data.Days[insertAt]
}

func parseDayIndex(dayID string) (int, bool) {
	rest, ok := strings.CutPrefix(dayID, "day-")
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func indexOfVisit(locations []model.ScheduleLocation, visitID string) int {
	for i, loc := range locations {
		if loc.ID == visitID {
			return i
		}
	}
	return -1
}

// spliceBefore inserts the visit immediately before beforeVisitID, or appends
// when the anchor is empty or no longer present (the anchor may have been
// deleted while the drag was in progress).
func spliceBefore(locations []model.ScheduleLocation, visit model.ScheduleLocation, beforeVisitID string) []model.ScheduleLocation {
	at := len(locations)
	if beforeVisitID != "" {
		if idx := indexOfVisit(locations, beforeVisitID); idx >= 0 {
			at = idx
		}
	}

	locations = append(locations, model.ScheduleLocation{})
	copy(locations[at+1:], locations[at:])
	locations[at] = visit
	return locations
}

// arrayMove removes the element at from and re-inserts it at the drop index
// of the original ordering.
func arrayMove(locations []model.ScheduleLocation, from, to int) []model.ScheduleLocation {
	item := locations[from]
	locations = append(locations[:from], locations[from+1:]...)
	if to > len(locations) {
		to = len(locations)
	}
	locations = append(locations, model.ScheduleLocation{})
	copy(locations[to+1:], locations[to:])
	locations[to] = item
	return locations
}

// dedupeKeepLast enforces the no-duplicate-id invariant within a day,
// resolving collisions last-write-wins by array position.
func dedupeKeepLast(locations []model.ScheduleLocation) []model.ScheduleLocation {
	lastIdx := make(map[string]int, len(locations))
	for i, loc := range locations {
		lastIdx[loc.ID] = i
	}
	if len(lastIdx) == len(locations) {
		return locations
	}

	out := locations[:0]
	for i, loc := range locations {
		if lastIdx[loc.ID] == i {
			out = append(out, loc)
		}
	}
	return out
}
