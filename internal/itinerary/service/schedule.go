package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"tripflow/internal/itinerary/dayplan"
	"tripflow/internal/itinerary/engine"
	itineraryerrors "tripflow/internal/itinerary/errors"
	"tripflow/internal/itinerary/events"
	"tripflow/internal/itinerary/repository"
	"tripflow/internal/itinerary/syncer"
	"tripflow/internal/itinerary/validator"
	tripserrors "tripflow/internal/trips/errors"
	"tripflow/pkg/config"
	apperrors "tripflow/pkg/errors"
	"tripflow/pkg/model"
	"tripflow/pkg/sanitizer"
)

// TripReader is the slice of the trips domain the itinerary needs: trip dates
// for the day skeleton and the member list for access control.
type TripReader interface {
	FindByID(ctx context.Context, id string) (*model.Trip, error)
}

// CandidateSource lists the candidate locations of a trip, grouped by list.
type CandidateSource interface {
	FindByTripID(ctx context.Context, tripID string) ([]*model.LocationList, error)
}

// ScheduleView is what callers see: the hydrated day model plus the version
// of the last persisted document.
type ScheduleView struct {
	TripID  string              `json:"tripId"`
	Days    []model.ScheduleDay `json:"days"`
	Version int64               `json:"version"`
}

type ItineraryService interface {
	GetSchedule(ctx context.Context, tripID, userID string) (*ScheduleView, error)
	SaveSchedule(ctx context.Context, tripID, userID string, data *model.ScheduleData) (*ScheduleView, error)
	ApplyDrag(ctx context.Context, tripID, userID string, src model.DragSource, tgt model.DragTarget) (*ScheduleView, error)
	DeleteVisit(ctx context.Context, tripID, userID, dayID, visitID string) (*ScheduleView, error)
	ListCandidates(ctx context.Context, tripID, userID string) ([]*model.LocationList, error)
	Close()
}

type itineraryService struct {
	repo      repository.ScheduleRepository
	trips     TripReader
	lists     CandidateSource
	engine    *engine.Engine
	validator *validator.ScheduleValidator
	publisher events.Publisher
	cfg       *config.Config

	mu          sync.Mutex
	controllers map[string]*syncer.Controller
}

func NewItineraryService(
	repo repository.ScheduleRepository,
	trips TripReader,
	lists CandidateSource,
	validator *validator.ScheduleValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ItineraryService {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &itineraryService{
		repo:        repo,
		trips:       trips,
		lists:       lists,
		engine:      engine.New(),
		validator:   validator,
		publisher:   publisher,
		cfg:         cfg,
		controllers: make(map[string]*syncer.Controller),
	}
}

// loadAuthorizedTrip resolves the trip and enforces membership. Non-members
// get AccessDenied even when the trip exists.
func (s *itineraryService) loadAuthorizedTrip(ctx context.Context, tripID, userID string) (*model.Trip, error) {
	if tripID == "" {
		return nil, apperrors.InvalidInput("Trip ID cannot be empty")
	}
	if userID == "" {
		return nil, apperrors.Unauthorized("User identity is required")
	}

	trip, err := s.trips.FindByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, tripserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Trip", tripID)
		}
		if errors.Is(err, tripserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid trip ID format")
		}
		s.cfg.Log.Error("Failed to load trip",
			"trip_id", tripID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load trip", err)
	}

	if !trip.IsMember(userID) {
		return nil, apperrors.Forbidden("User is not a member of this trip")
	}
	return trip, nil
}

func (s *itineraryService) GetSchedule(ctx context.Context, tripID, userID string) (*ScheduleView, error) {
	trip, err := s.loadAuthorizedTrip(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}

	days := dayplan.BuildDayRange(trip.StartDate, trip.EndDate)

	doc, err := s.repo.FindByTripID(ctx, tripID)
	if err != nil {
		if errors.Is(err, itineraryerrors.ErrNotFound) {
			// Nothing saved yet: an empty skeleton at version 0.
			return &ScheduleView{TripID: tripID, Days: days, Version: 0}, nil
		}
		s.cfg.Log.Error("Failed to load schedule",
			"trip_id", tripID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve schedule", err)
	}

	return &ScheduleView{
		TripID:  tripID,
		Days:    dayplan.Hydrate(days, doc.ScheduleData.Days),
		Version: doc.Version,
	}, nil
}

// SaveSchedule validates and persists a full schedule body immediately,
// flushing through the trip's sync controller so it cannot race a debounced
// drag save.
func (s *itineraryService) SaveSchedule(ctx context.Context, tripID, userID string, data *model.ScheduleData) (*ScheduleView, error) {
	if _, err := s.loadAuthorizedTrip(ctx, tripID, userID); err != nil {
		return nil, err
	}

	s.sanitize(data)
	if err := s.validator.Validate(data); err != nil {
		s.cfg.Log.Warn("Schedule validation failed",
			"trip_id", tripID,
			"error", err,
		)
		return nil, apperrors.Validation("Schedule validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	ctrl := s.controller(tripID)
	ctrl.Notify(data)
	version, err := ctrl.SaveNow(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to save schedule",
			"trip_id", tripID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to save schedule", err)
	}

	s.cfg.Log.Info("Schedule saved",
		"trip_id", tripID,
		"version", version,
		"visits", data.VisitCount(),
	)
	return &ScheduleView{TripID: tripID, Days: data.Days, Version: version}, nil
}

// ApplyDrag applies a drag-end gesture to the current model and schedules a
// debounced save. Bursts of gestures coalesce into a single write; the
// returned view carries the post-gesture model and the version of the last
// completed save.
func (s *itineraryService) ApplyDrag(ctx context.Context, tripID, userID string, src model.DragSource, tgt model.DragTarget) (*ScheduleView, error) {
	view, err := s.GetSchedule(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}

	current := &model.ScheduleData{Days: view.Days}
	next := s.engine.Apply(current, src, tgt)

	ctrl := s.controller(tripID)
	ctrl.Notify(next)

	return &ScheduleView{TripID: tripID, Days: next.Days, Version: ctrl.Version()}, nil
}

// DeleteVisit removes a single visit through the immediate transactional
// path, bypassing the debounce timer. The trip's controller is refreshed with
// the post-delete state so a later debounced flush cannot resurrect the visit.
func (s *itineraryService) DeleteVisit(ctx context.Context, tripID, userID, dayID, visitID string) (*ScheduleView, error) {
	trip, err := s.loadAuthorizedTrip(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}

	doc, err := s.repo.DeleteVisit(ctx, tripID, dayID, visitID)
	if err != nil {
		if errors.Is(err, itineraryerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Schedule for trip", tripID)
		}
		if errors.Is(err, itineraryerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Trip, day and visit IDs are required")
		}
		s.cfg.Log.Error("Failed to delete visit",
			"trip_id", tripID,
			"day_id", dayID,
			"visit_id", visitID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to delete visit", err)
	}

	// A debounce timer armed before the delete committed can still flush a
	// pre-delete snapshot in the gap before this Notify. The refreshed
	// snapshot then overwrites it on the next flush; last save wins.
	s.mu.Lock()
	ctrl, tracked := s.controllers[tripID]
	s.mu.Unlock()
	if tracked {
		ctrl.Notify(&doc.ScheduleData)
	}

	s.publishSaved(tripID, doc.Version)

	days := dayplan.Hydrate(dayplan.BuildDayRange(trip.StartDate, trip.EndDate), doc.ScheduleData.Days)
	return &ScheduleView{TripID: tripID, Days: days, Version: doc.Version}, nil
}

func (s *itineraryService) ListCandidates(ctx context.Context, tripID, userID string) ([]*model.LocationList, error) {
	if _, err := s.loadAuthorizedTrip(ctx, tripID, userID); err != nil {
		return nil, err
	}

	lists, err := s.lists.FindByTripID(ctx, tripID)
	if err != nil {
		s.cfg.Log.Error("Failed to list candidate locations",
			"trip_id", tripID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to list candidate locations", err)
	}
	return lists, nil
}

// controller returns the trip's sync controller, creating it on first use.
func (s *itineraryService) controller(tripID string) *syncer.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctrl, ok := s.controllers[tripID]; ok {
		return ctrl
	}

	ctrl := syncer.NewController(tripID, s.cfg.DebounceInterval, persistFunc(s.persist), s.cfg.Log)
	s.controllers[tripID] = ctrl
	return ctrl
}

// persist is the Persister behind every controller: upsert then publish.
func (s *itineraryService) persist(ctx context.Context, tripID string, data *model.ScheduleData) (int64, error) {
	doc, err := s.repo.Upsert(ctx, tripID, data)
	if err != nil {
		return 0, err
	}
	s.publishSaved(tripID, doc.Version)
	return doc.Version, nil
}

func (s *itineraryService) publishSaved(tripID string, version int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := events.ScheduleSavedEvent{
		TripID:  tripID,
		Version: version,
		SavedAt: time.Now().UTC(),
	}
	// Publish failures are logged by the publisher; a save is not rolled back
	// because its event could not be emitted.
	_ = s.publisher.PublishScheduleSaved(ctx, event)
}

// Close stops every per-trip sync controller. Pending debounced edits are
// dropped; callers should flush via SaveSchedule before shutdown if needed.
func (s *itineraryService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ctrl := range s.controllers {
		ctrl.Close()
	}
	s.controllers = make(map[string]*syncer.Controller)
}

func (s *itineraryService) sanitize(data *model.ScheduleData) {
	if data == nil {
		return
	}
	for i := range data.Days {
		for j := range data.Days[i].Locations {
			loc := &data.Days[i].Locations[j]
			loc.Name = sanitizer.NormalizeName(loc.Name)
			loc.Address = sanitizer.NormalizeAddress(loc.Address)
		}
	}
}

// persistFunc adapts a function to the syncer.Persister interface.
type persistFunc func(ctx context.Context, tripID string, data *model.ScheduleData) (int64, error)

func (f persistFunc) Persist(ctx context.Context, tripID string, data *model.ScheduleData) (int64, error) {
	return f(ctx, tripID, data)
}
