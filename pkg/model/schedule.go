package model

import "time"

type CommuteMode string

const (
	CommuteDriving CommuteMode = "DRIVING"
	CommuteWalking CommuteMode = "WALKING"
	CommuteTransit CommuteMode = "TRANSIT"
)

const (
	// TimeUnset is the sentinel for a visit without an arrival/departure time.
	TimeUnset = "--:--"

	VisitType = "location"
)

// ScheduleLocation is one scheduled appearance of a location within a day.
// Visit ids are client-minted and day-local: moving a visit to another day
// mints a new id and resets its times.
type ScheduleLocation struct {
	ID            string      `json:"id" bson:"id" validate:"required"`
	Name          string      `json:"name" bson:"name" validate:"required,max=200"`
	Address       string      `json:"address" bson:"address" validate:"omitempty,max=300"`
	Lat           float64     `json:"lat" bson:"lat" validate:"min=-90,max=90"`
	Lng           float64     `json:"lng" bson:"lng" validate:"min=-180,max=180"`
	PhotoURL      string      `json:"photoUrl,omitempty" bson:"photo_url,omitempty"`
	ArrivalTime   string      `json:"arrivalTime,omitempty" bson:"arrival_time,omitempty" validate:"visit_time"`
	DepartureTime string      `json:"departureTime,omitempty" bson:"departure_time,omitempty" validate:"visit_time"`
	WayToCommute  CommuteMode `json:"wayToCommute,omitempty" bson:"way_to_commute,omitempty" validate:"commute_mode"`
	Type          string      `json:"type" bson:"type" validate:"required,eq=location"`
	CreatedAt     time.Time   `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" bson:"updated_at"`
}

// ScheduleDay holds the ordered visits of one calendar day. Day ids are
// positional (day-0, day-1, ...) relative to the trip's start date.
type ScheduleDay struct {
	DayID     string             `json:"dayId" bson:"day_id" validate:"required,day_id"`
	Date      time.Time          `json:"date" bson:"date" validate:"required"`
	Locations []ScheduleLocation `json:"locations" bson:"locations" validate:"dive"`
}

type ScheduleData struct {
	Days []ScheduleDay `json:"days" bson:"days" validate:"dive"`
}

// ScheduleDocument is the persisted itinerary of one trip. Exactly one
// document exists per trip; Version increments on every successful save and
// is observability metadata, not a concurrency guard.
type ScheduleDocument struct {
	ID           string       `json:"id,omitempty" bson:"_id,omitempty"`
	TripID       string       `json:"trip_id" bson:"trip_id"`
	ScheduleData ScheduleData `json:"schedule_data" bson:"schedule_data"`
	Version      int64        `json:"version" bson:"version"`
	CreatedAt    time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" bson:"updated_at"`
}

// Clone deep-copies the schedule data. Engine operations work on copies so a
// caller's snapshot is never mutated in place.
func (d *ScheduleData) Clone() *ScheduleData {
	if d == nil {
		return nil
	}
	out := &ScheduleData{Days: make([]ScheduleDay, len(d.Days))}
	for i, day := range d.Days {
		copied := day
		copied.Locations = make([]ScheduleLocation, len(day.Locations))
		copy(copied.Locations, day.Locations)
		out.Days[i] = copied
	}
	return out
}

// VisitCount returns the total number of visits across all days.
func (d *ScheduleData) VisitCount() int {
	n := 0
	for _, day := range d.Days {
		n += len(day.Locations)
	}
	return n
}
