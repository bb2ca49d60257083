package model

import "time"

// CandidateLocation is a saved place available to be dragged into the
// schedule. Read-only to the itinerary engine; its id is the catalog id, not
// a visit id.
type CandidateLocation struct {
	ID       string  `json:"id" bson:"id"`
	Name     string  `json:"name" bson:"name" validate:"required,max=200"`
	Address  string  `json:"address,omitempty" bson:"address,omitempty" validate:"omitempty,max=300"`
	Lat      float64 `json:"lat" bson:"lat" validate:"min=-90,max=90"`
	Lng      float64 `json:"lng" bson:"lng" validate:"min=-180,max=180"`
	PhotoURL string  `json:"photoUrl,omitempty" bson:"photo_url,omitempty"`
}

// LocationList is a named group of candidate locations within a trip.
type LocationList struct {
	ID        string              `json:"id,omitempty" bson:"_id,omitempty"`
	TripID    string              `json:"trip_id" bson:"trip_id" validate:"required"`
	Name      string              `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Locations []CandidateLocation `json:"locations" bson:"locations"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
}
