package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	listserrors "tripflow/internal/lists/errors"
	"tripflow/internal/lists/repository"
	tripserrors "tripflow/internal/trips/errors"
	"tripflow/pkg/config"
	apperrors "tripflow/pkg/errors"
	"tripflow/pkg/model"
	"tripflow/pkg/sanitizer"
)

// TripReader resolves trips for the membership check.
type TripReader interface {
	FindByID(ctx context.Context, id string) (*model.Trip, error)
}

type ListService interface {
	CreateList(ctx context.Context, tripID, userID, name string) (*model.LocationList, error)
	DeleteList(ctx context.Context, listID, userID string) error
	GetByTripID(ctx context.Context, tripID, userID string) ([]*model.LocationList, error)
	AddLocation(ctx context.Context, listID, userID string, loc model.CandidateLocation) (*model.CandidateLocation, error)
	RemoveLocation(ctx context.Context, listID, userID, locationID string) error
}

type listService struct {
	repo  repository.ListRepository
	trips TripReader
	cfg   *config.Config
}

func NewListService(repo repository.ListRepository, trips TripReader, cfg *config.Config) ListService {
	return &listService{
		repo:  repo,
		trips: trips,
		cfg:   cfg,
	}
}

func (s *listService) authorize(ctx context.Context, tripID, userID string) error {
	if tripID == "" {
		return apperrors.InvalidInput("Trip ID cannot be empty")
	}
	if userID == "" {
		return apperrors.Unauthorized("User identity is required")
	}

	trip, err := s.trips.FindByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, tripserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Trip", tripID)
		}
		if errors.Is(err, tripserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid trip ID format")
		}
		s.cfg.Log.Error("Failed to load trip", "trip_id", tripID, "error", err)
		return apperrors.Internal("Failed to load trip", err)
	}
	if !trip.IsMember(userID) {
		return apperrors.Forbidden("User is not a member of this trip")
	}
	return nil
}

func (s *listService) CreateList(ctx context.Context, tripID, userID, name string) (*model.LocationList, error) {
	if err := s.authorize(ctx, tripID, userID); err != nil {
		return nil, err
	}

	name = sanitizer.NormalizeName(name)
	if name == "" {
		return nil, apperrors.InvalidInput("List name cannot be empty")
	}

	list := &model.LocationList{
		TripID:    tripID,
		Name:      name,
		Locations: []model.CandidateLocation{},
	}
	if err := s.repo.Create(ctx, list); err != nil {
		s.cfg.Log.Error("Failed to create location list",
			"trip_id", tripID,
			"name", name,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create location list", err)
	}

	s.cfg.Log.Info("Location list created", "id", list.ID, "trip_id", tripID, "name", name)
	return list, nil
}

func (s *listService) DeleteList(ctx context.Context, listID, userID string) error {
	list, err := s.loadAuthorizedList(ctx, listID, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, list.ID); err != nil {
		return s.translate(err, listID, "delete location list")
	}

	s.cfg.Log.Info("Location list deleted", "id", listID, "trip_id", list.TripID)
	return nil
}

func (s *listService) GetByTripID(ctx context.Context, tripID, userID string) ([]*model.LocationList, error) {
	if err := s.authorize(ctx, tripID, userID); err != nil {
		return nil, err
	}

	lists, err := s.repo.FindByTripID(ctx, tripID)
	if err != nil {
		s.cfg.Log.Error("Failed to list location lists", "trip_id", tripID, "error", err)
		return nil, apperrors.Internal("Failed to list location lists", err)
	}
	return lists, nil
}

// AddLocation mints the candidate id server-side; client-supplied ids are
// ignored so catalog ids stay unique within the trip.
func (s *listService) AddLocation(ctx context.Context, listID, userID string, loc model.CandidateLocation) (*model.CandidateLocation, error) {
	list, err := s.loadAuthorizedList(ctx, listID, userID)
	if err != nil {
		return nil, err
	}

	loc.ID = uuid.NewString()
	loc.Name = sanitizer.NormalizeName(loc.Name)
	loc.Address = sanitizer.NormalizeAddress(loc.Address)
	if loc.Name == "" {
		return nil, apperrors.InvalidInput("Location name cannot be empty")
	}
	if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
		return nil, apperrors.InvalidInput("Location coordinates are out of range")
	}

	if err := s.repo.AddLocation(ctx, list.ID, loc); err != nil {
		return nil, s.translate(err, listID, "add location")
	}

	s.cfg.Log.Info("Location added to list",
		"list_id", listID,
		"location_id", loc.ID,
		"name", loc.Name,
	)
	return &loc, nil
}

func (s *listService) RemoveLocation(ctx context.Context, listID, userID, locationID string) error {
	list, err := s.loadAuthorizedList(ctx, listID, userID)
	if err != nil {
		return err
	}
	if locationID == "" {
		return apperrors.InvalidInput("Location ID cannot be empty")
	}

	if err := s.repo.RemoveLocation(ctx, list.ID, locationID); err != nil {
		return s.translate(err, listID, "remove location")
	}

	s.cfg.Log.Info("Location removed from list", "list_id", listID, "location_id", locationID)
	return nil
}

// loadAuthorizedList resolves a list and checks membership on its trip.
func (s *listService) loadAuthorizedList(ctx context.Context, listID, userID string) (*model.LocationList, error) {
	if listID == "" {
		return nil, apperrors.InvalidInput("List ID cannot be empty")
	}

	list, err := s.repo.FindByID(ctx, listID)
	if err != nil {
		return nil, s.translate(err, listID, "load location list")
	}
	if err := s.authorize(ctx, list.TripID, userID); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *listService) translate(err error, listID, op string) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, listserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Location list", listID)
	}
	if errors.Is(err, listserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid list ID format")
	}
	s.cfg.Log.Error("Location list operation failed",
		"operation", op,
		"list_id", listID,
		"error", err,
	)
	return apperrors.Internal("Failed to "+op, err)
}
