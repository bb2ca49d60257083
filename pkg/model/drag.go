package model

type DragKind string

const (
	// DragKindCandidate adds a saved location to the schedule for the first time.
	DragKindCandidate DragKind = "candidate"
	// DragKindVisit moves an already scheduled visit.
	DragKindVisit DragKind = "visit"
)

// DragSource describes what is being dragged. Candidate is set for
// DragKindCandidate; DayID/VisitID are set for DragKindVisit.
type DragSource struct {
	Kind      DragKind           `json:"kind" validate:"required,oneof=candidate visit"`
	Candidate *CandidateLocation `json:"candidate,omitempty"`
	DayID     string             `json:"day_id,omitempty"`
	VisitID   string             `json:"visit_id,omitempty"`
}

// DragTarget describes where the drag landed. An empty BeforeVisitID means
// the drop was on the day container itself, which appends to the end.
type DragTarget struct {
	DayID         string `json:"day_id" validate:"required,day_id"`
	BeforeVisitID string `json:"before_visit_id,omitempty"`
}
