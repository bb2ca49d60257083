package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	tripserrors "tripflow/internal/trips/errors"
	"tripflow/internal/trips/validator"
	"tripflow/pkg/config"
	mongotx "tripflow/pkg/db/mongo"
	apperrors "tripflow/pkg/errors"
	"tripflow/pkg/logger"
	"tripflow/pkg/model"
)

type mockTripRepo struct {
	createFn       func(ctx context.Context, trip *model.Trip) error
	findByIDFn     func(ctx context.Context, id string) (*model.Trip, error)
	findByUserFn   func(ctx context.Context, userID string) ([]*model.Trip, error)
	updateFn       func(ctx context.Context, id string, updates *model.TripUpdate) error
	deleteFn       func(ctx context.Context, id string) error
	addMemberFn    func(ctx context.Context, id, userID string) error
	removeMemberFn func(ctx context.Context, id, userID string) error
}

func (m *mockTripRepo) Create(ctx context.Context, trip *model.Trip) error {
	return m.createFn(ctx, trip)
}

func (m *mockTripRepo) FindByID(ctx context.Context, id string) (*model.Trip, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockTripRepo) FindByUserID(ctx context.Context, userID string) ([]*model.Trip, error) {
	return m.findByUserFn(ctx, userID)
}

func (m *mockTripRepo) Update(ctx context.Context, id string, updates *model.TripUpdate) error {
	return m.updateFn(ctx, id, updates)
}

func (m *mockTripRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockTripRepo) AddMember(ctx context.Context, id, userID string) error {
	return m.addMemberFn(ctx, id, userID)
}

func (m *mockTripRepo) RemoveMember(ctx context.Context, id, userID string) error {
	return m.removeMemberFn(ctx, id, userID)
}

// Transactions run inline in tests; a nil SessionContext is fine for mocks
// that never touch mongo.
func (m *mockTripRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.SessionContext(nil))
}

type mockCascader struct {
	deleteByTripFn func(ctx context.Context, tripID string) error
}

func (m *mockCascader) DeleteByTripID(ctx context.Context, tripID string) error {
	return m.deleteByTripFn(ctx, tripID)
}

const (
	ownerID  = "user-owner"
	memberID = "user-member"
	tripID   = "64f000000000000000000001"
)

func storedTrip() *model.Trip {
	return &model.Trip{
		ID:        tripID,
		Name:      "Rome",
		StartDate: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 5, 12, 0, 0, 0, time.UTC),
		OwnerID:   ownerID,
		MemberIDs: []string{ownerID, memberID},
	}
}

func newTestService(repo *mockTripRepo, cascader ScheduleCascader) TripService {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Output: io.Discard}),
	}
	if cascader == nil {
		cascader = &mockCascader{deleteByTripFn: func(ctx context.Context, tripID string) error { return nil }}
	}
	return NewTripService(repo, cascader, validator.NewTripValidator(cfg.Log), cfg)
}

func TestCreateMakesCallerOwnerAndMember(t *testing.T) {
	var created *model.Trip
	repo := &mockTripRepo{
		createFn: func(ctx context.Context, trip *model.Trip) error {
			created = trip
			return nil
		},
	}
	svc := newTestService(repo, nil)

	trip := &model.Trip{
		Name:      "  Tokyo   trip ",
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := svc.Create(context.Background(), ownerID, trip); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.OwnerID != ownerID {
		t.Errorf("creator must become owner, got %q", created.OwnerID)
	}
	if !created.IsMember(ownerID) {
		t.Error("creator must be in the member list")
	}
	if created.Name != "Tokyo trip" {
		t.Errorf("name not sanitized: %q", created.Name)
	}
}

func TestCreateRejectsInvertedDateRange(t *testing.T) {
	repo := &mockTripRepo{
		createFn: func(ctx context.Context, trip *model.Trip) error {
			t.Fatal("invalid trip must not reach the repository")
			return nil
		},
	}
	svc := newTestService(repo, nil)

	trip := &model.Trip{
		Name:      "Backwards",
		StartDate: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	err := svc.Create(context.Background(), ownerID, trip)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
		t.Errorf("got code %s, want %s", appErr.Code, apperrors.CodeValidation)
	}
}

func TestGetByIDEnforcesMembership(t *testing.T) {
	repo := &mockTripRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Trip, error) {
			if id != tripID {
				return nil, tripserrors.ErrNotFound
			}
			return storedTrip(), nil
		},
	}
	svc := newTestService(repo, nil)

	if _, err := svc.GetByID(context.Background(), tripID, memberID); err != nil {
		t.Errorf("member should have access: %v", err)
	}

	_, err := svc.GetByID(context.Background(), tripID, "stranger")
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeForbidden {
		t.Errorf("got code %s, want %s", appErr.Code, apperrors.CodeForbidden)
	}

	_, err = svc.GetByID(context.Background(), "64f000000000000000000999", memberID)
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("got code %s, want %s", appErr.Code, apperrors.CodeNotFound)
	}
}

func TestUpdateKeepsDateRangeOrdered(t *testing.T) {
	repo := &mockTripRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Trip, error) {
			return storedTrip(), nil
		},
		updateFn: func(ctx context.Context, id string, updates *model.TripUpdate) error {
			return nil
		},
	}
	svc := newTestService(repo, nil)

	// Stored range is Jun 1 - Jun 5. Pushing start past the stored end must
	// fail even though the patch itself carries only one endpoint.
	badStart := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
	err := svc.Update(context.Background(), tripID, memberID, &model.TripUpdate{StartDate: &badStart})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
		t.Errorf("got code %s, want %s", appErr.Code, apperrors.CodeValidation)
	}

	goodStart := time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)
	if err := svc.Update(context.Background(), tripID, memberID, &model.TripUpdate{StartDate: &goodStart}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDeleteOwnerOnlyAndCascades(t *testing.T) {
	deletedTrip := false
	repo := &mockTripRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Trip, error) {
			return storedTrip(), nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deletedTrip = true
			return nil
		},
	}
	cascadedTrip := ""
	cascader := &mockCascader{
		deleteByTripFn: func(ctx context.Context, id string) error {
			cascadedTrip = id
			return nil
		},
	}
	svc := newTestService(repo, cascader)

	err := svc.Delete(context.Background(), tripID, memberID)
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeForbidden {
		t.Errorf("non-owner delete: got code %s, want %s", appErr.Code, apperrors.CodeForbidden)
	}
	if deletedTrip {
		t.Fatal("non-owner must not delete the trip")
	}

	if err := svc.Delete(context.Background(), tripID, ownerID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deletedTrip {
		t.Error("trip was not deleted")
	}
	if cascadedTrip != tripID {
		t.Errorf("schedule cascade missing, got %q", cascadedTrip)
	}
}

func TestRemoveMemberProtectsOwner(t *testing.T) {
	removed := false
	repo := &mockTripRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Trip, error) {
			return storedTrip(), nil
		},
		removeMemberFn: func(ctx context.Context, id, userID string) error {
			removed = true
			return nil
		},
	}
	svc := newTestService(repo, nil)

	err := svc.RemoveMember(context.Background(), tripID, memberID, ownerID)
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("got code %s, want %s", appErr.Code, apperrors.CodeInvalidInput)
	}
	if removed {
		t.Fatal("owner must not be removable")
	}

	if err := svc.RemoveMember(context.Background(), tripID, ownerID, memberID); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !removed {
		t.Error("member was not removed")
	}
}

func TestAddMemberRequiresMembership(t *testing.T) {
	repo := &mockTripRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Trip, error) {
			return storedTrip(), nil
		},
		addMemberFn: func(ctx context.Context, id, userID string) error {
			return nil
		},
	}
	svc := newTestService(repo, nil)

	err := svc.AddMember(context.Background(), tripID, "stranger", "user-new")
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeForbidden {
		t.Errorf("got code %s, want %s", appErr.Code, apperrors.CodeForbidden)
	}

	if err := svc.AddMember(context.Background(), tripID, memberID, "user-new"); err != nil {
		t.Errorf("any member may invite: %v", err)
	}

	err = svc.AddMember(context.Background(), tripID, memberID, "")
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("got code %s, want %s", appErr.Code, apperrors.CodeInvalidInput)
	}
}

func TestListByUserTranslatesErrors(t *testing.T) {
	repo := &mockTripRepo{
		findByUserFn: func(ctx context.Context, userID string) ([]*model.Trip, error) {
			return nil, errors.New("network down")
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.ListByUser(context.Background(), memberID)
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInternal {
		t.Errorf("got code %s, want %s", appErr.Code, apperrors.CodeInternal)
	}

	_, err = svc.ListByUser(context.Background(), "")
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeUnauthorized {
		t.Errorf("got code %s, want %s", appErr.Code, apperrors.CodeUnauthorized)
	}
}
