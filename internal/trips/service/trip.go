package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	tripserrors "tripflow/internal/trips/errors"
	"tripflow/internal/trips/repository"
	"tripflow/internal/trips/validator"
	"tripflow/pkg/config"
	apperrors "tripflow/pkg/errors"
	"tripflow/pkg/model"
	"tripflow/pkg/sanitizer"
)

// ScheduleCascader removes itinerary data that belongs to a deleted trip.
type ScheduleCascader interface {
	DeleteByTripID(ctx context.Context, tripID string) error
}

type TripService interface {
	Create(ctx context.Context, userID string, trip *model.Trip) error
	GetByID(ctx context.Context, tripID, userID string) (*model.Trip, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Trip, error)
	Update(ctx context.Context, tripID, userID string, updates *model.TripUpdate) error
	Delete(ctx context.Context, tripID, userID string) error
	AddMember(ctx context.Context, tripID, userID, newMemberID string) error
	RemoveMember(ctx context.Context, tripID, userID, memberID string) error
}

type tripService struct {
	repo      repository.TripRepository
	schedules ScheduleCascader
	validator *validator.TripValidator
	cfg       *config.Config
}

func NewTripService(
	repo repository.TripRepository,
	schedules ScheduleCascader,
	validator *validator.TripValidator,
	cfg *config.Config,
) TripService {
	return &tripService{
		repo:      repo,
		schedules: schedules,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *tripService) Create(ctx context.Context, userID string, trip *model.Trip) error {
	if userID == "" {
		return apperrors.Unauthorized("User identity is required")
	}

	trip.Name = sanitizer.NormalizeName(trip.Name)
	trip.Description = sanitizer.TrimAndNormalize(trip.Description)
	trip.OwnerID = userID
	trip.MemberIDs = ensureMember(trip.MemberIDs, userID)

	if err := s.validator.Validate(trip); err != nil {
		s.cfg.Log.Warn("Trip validation failed",
			"name", trip.Name,
			"owner_id", userID,
			"error", err,
		)
		return apperrors.Validation("Trip validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, trip); err != nil {
		s.cfg.Log.Error("Failed to create trip",
			"name", trip.Name,
			"owner_id", userID,
			"error", err,
		)
		return apperrors.Internal("Failed to create trip", err)
	}

	s.cfg.Log.Info("Trip created successfully",
		"id", trip.ID,
		"name", trip.Name,
		"owner_id", userID,
	)
	return nil
}

func (s *tripService) GetByID(ctx context.Context, tripID, userID string) (*model.Trip, error) {
	trip, err := s.load(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsMember(userID) {
		return nil, apperrors.Forbidden("User is not a member of this trip")
	}
	return trip, nil
}

func (s *tripService) ListByUser(ctx context.Context, userID string) ([]*model.Trip, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("User identity is required")
	}

	trips, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to list trips",
			"user_id", userID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to list trips", err)
	}
	return trips, nil
}

func (s *tripService) Update(ctx context.Context, tripID, userID string, updates *model.TripUpdate) error {
	trip, err := s.GetByID(ctx, tripID, userID)
	if err != nil {
		return err
	}

	updates.Name = sanitizer.NormalizeName(updates.Name)
	if updates.Description != nil {
		normalized := sanitizer.TrimAndNormalize(*updates.Description)
		updates.Description = &normalized
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		return apperrors.Validation("Trip validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	// A single-endpoint date change must still keep the range ordered
	// against the stored counterpart.
	start, end := trip.StartDate, trip.EndDate
	if updates.StartDate != nil {
		start = *updates.StartDate
	}
	if updates.EndDate != nil {
		end = *updates.EndDate
	}
	if end.Before(start) {
		return apperrors.Validation("Trip validation failed", map[string]any{
			"error": "end_date must not be before start_date",
		})
	}

	if err := s.repo.Update(ctx, tripID, updates); err != nil {
		return s.translate(err, tripID, "update trip")
	}

	s.cfg.Log.Info("Trip updated successfully", "id", tripID, "user_id", userID)
	return nil
}

// Delete removes the trip and its schedule document in one transaction.
// Owner-only.
func (s *tripService) Delete(ctx context.Context, tripID, userID string) error {
	trip, err := s.GetByID(ctx, tripID, userID)
	if err != nil {
		return err
	}
	if !trip.IsOwner(userID) {
		return apperrors.Forbidden("Only the trip owner can delete the trip")
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, tripID); err != nil {
			return err
		}
		return s.schedules.DeleteByTripID(sessCtx, tripID)
	})
	if err != nil {
		return s.translate(err, tripID, "delete trip")
	}

	s.cfg.Log.Info("Trip deleted successfully", "id", tripID, "owner_id", userID)
	return nil
}

func (s *tripService) AddMember(ctx context.Context, tripID, userID, newMemberID string) error {
	if newMemberID == "" {
		return apperrors.InvalidInput("Member ID cannot be empty")
	}

	if _, err := s.GetByID(ctx, tripID, userID); err != nil {
		return err
	}

	if err := s.repo.AddMember(ctx, tripID, newMemberID); err != nil {
		return s.translate(err, tripID, "add member")
	}

	s.cfg.Log.Info("Member added to trip",
		"trip_id", tripID,
		"member_id", newMemberID,
		"added_by", userID,
	)
	return nil
}

func (s *tripService) RemoveMember(ctx context.Context, tripID, userID, memberID string) error {
	trip, err := s.GetByID(ctx, tripID, userID)
	if err != nil {
		return err
	}
	if trip.IsOwner(memberID) {
		return apperrors.InvalidInput("The trip owner cannot be removed from the trip")
	}

	if err := s.repo.RemoveMember(ctx, tripID, memberID); err != nil {
		return s.translate(err, tripID, "remove member")
	}

	s.cfg.Log.Info("Member removed from trip",
		"trip_id", tripID,
		"member_id", memberID,
		"removed_by", userID,
	)
	return nil
}

func (s *tripService) load(ctx context.Context, tripID string) (*model.Trip, error) {
	if tripID == "" {
		return nil, apperrors.InvalidInput("Trip ID cannot be empty")
	}

	trip, err := s.repo.FindByID(ctx, tripID)
	if err != nil {
		return nil, s.translate(err, tripID, "load trip")
	}
	return trip, nil
}

// translate maps repository sentinel errors onto the API error taxonomy.
func (s *tripService) translate(err error, tripID, op string) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, tripserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Trip", tripID)
	}
	if errors.Is(err, tripserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid trip ID format")
	}
	s.cfg.Log.Error("Trip operation failed",
		"operation", op,
		"trip_id", tripID,
		"error", err,
	)
	return apperrors.Internal("Failed to "+op, err)
}

func ensureMember(members []string, userID string) []string {
	for _, id := range members {
		if id == userID {
			return members
		}
	}
	return append(members, userID)
}
