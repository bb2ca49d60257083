package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	itineraryerrors "tripflow/internal/itinerary/errors"
	"tripflow/internal/itinerary/events"
	"tripflow/internal/itinerary/validator"
	tripserrors "tripflow/internal/trips/errors"
	"tripflow/pkg/config"
	mongotx "tripflow/pkg/db/mongo"
	apperrors "tripflow/pkg/errors"
	"tripflow/pkg/logger"
	"tripflow/pkg/model"
)

type mockScheduleRepo struct {
	findByTripIDFn  func(ctx context.Context, tripID string) (*model.ScheduleDocument, error)
	upsertFn        func(ctx context.Context, tripID string, data *model.ScheduleData) (*model.ScheduleDocument, error)
	deleteVisitFn   func(ctx context.Context, tripID, dayID, visitID string) (*model.ScheduleDocument, error)
	deleteByTripFn  func(ctx context.Context, tripID string) error
	mu              sync.Mutex
	upsertCallCount int
}

func (m *mockScheduleRepo) FindByTripID(ctx context.Context, tripID string) (*model.ScheduleDocument, error) {
	return m.findByTripIDFn(ctx, tripID)
}

func (m *mockScheduleRepo) Upsert(ctx context.Context, tripID string, data *model.ScheduleData) (*model.ScheduleDocument, error) {
	m.mu.Lock()
	m.upsertCallCount++
	m.mu.Unlock()
	return m.upsertFn(ctx, tripID, data)
}

func (m *mockScheduleRepo) DeleteVisit(ctx context.Context, tripID, dayID, visitID string) (*model.ScheduleDocument, error) {
	return m.deleteVisitFn(ctx, tripID, dayID, visitID)
}

func (m *mockScheduleRepo) DeleteByTripID(ctx context.Context, tripID string) error {
	return m.deleteByTripFn(ctx, tripID)
}

func (m *mockScheduleRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return errors.New("not implemented")
}

func (m *mockScheduleRepo) upserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertCallCount
}

type mockTripReader struct {
	findByIDFn func(ctx context.Context, id string) (*model.Trip, error)
}

func (m *mockTripReader) FindByID(ctx context.Context, id string) (*model.Trip, error) {
	return m.findByIDFn(ctx, id)
}

type mockCandidateSource struct {
	findByTripIDFn func(ctx context.Context, tripID string) ([]*model.LocationList, error)
}

func (m *mockCandidateSource) FindByTripID(ctx context.Context, tripID string) ([]*model.LocationList, error) {
	return m.findByTripIDFn(ctx, tripID)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []events.ScheduleSavedEvent
}

func (m *mockPublisher) PublishScheduleSaved(ctx context.Context, event events.ScheduleSavedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) published() []events.ScheduleSavedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.ScheduleSavedEvent(nil), m.events...)
}

const (
	testTripID = "64f000000000000000000001"
	testUserID = "user-1"
	otherUser  = "user-9"
)

func testTrip() *model.Trip {
	return &model.Trip{
		ID:        testTripID,
		Name:      "Paris",
		StartDate: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 5, 3, 12, 0, 0, 0, time.UTC),
		OwnerID:   testUserID,
		MemberIDs: []string{testUserID, "user-2"},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		DebounceInterval: 20 * time.Millisecond,
		Log:              logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Output: io.Discard}),
	}
}

func validScheduleData() *model.ScheduleData {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return &model.ScheduleData{
		Days: []model.ScheduleDay{
			{
				DayID: "day-0",
				Date:  now,
				Locations: []model.ScheduleLocation{
					{
						ID:            "v1",
						Name:          "Louvre Museum",
						Lat:           48.8606,
						Lng:           2.3376,
						ArrivalTime:   "10:00",
						DepartureTime: "12:00",
						WayToCommute:  model.CommuteWalking,
						Type:          model.VisitType,
						CreatedAt:     now,
						UpdatedAt:     now,
					},
				},
			},
		},
	}
}

func newTestService(repo *mockScheduleRepo, trips *mockTripReader, lists *mockCandidateSource, pub events.Publisher) ItineraryService {
	cfg := testConfig()
	return NewItineraryService(repo, trips, lists, validator.NewScheduleValidator(cfg.Log), pub, cfg)
}

func memberTrips() *mockTripReader {
	return &mockTripReader{
		findByIDFn: func(ctx context.Context, id string) (*model.Trip, error) {
			if id != testTripID {
				return nil, tripserrors.ErrNotFound
			}
			return testTrip(), nil
		},
	}
}

func TestGetScheduleEmptySkeleton(t *testing.T) {
	repo := &mockScheduleRepo{
		findByTripIDFn: func(ctx context.Context, tripID string) (*model.ScheduleDocument, error) {
			return nil, itineraryerrors.ErrNotFound
		},
	}
	svc := newTestService(repo, memberTrips(), nil, nil)
	defer svc.Close()

	view, err := svc.GetSchedule(context.Background(), testTripID, testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.Version != 0 {
		t.Errorf("expected version 0 for an unsaved schedule, got %d", view.Version)
	}
	if len(view.Days) != 3 {
		t.Fatalf("expected 3 skeleton days, got %d", len(view.Days))
	}
	for i, day := range view.Days {
		if len(day.Locations) != 0 {
			t.Errorf("day %d should be empty", i)
		}
	}
}

func TestGetScheduleHydratesStoredDocument(t *testing.T) {
	stored := validScheduleData()
	repo := &mockScheduleRepo{
		findByTripIDFn: func(ctx context.Context, tripID string) (*model.ScheduleDocument, error) {
			return &model.ScheduleDocument{
				TripID:       tripID,
				ScheduleData: *stored,
				Version:      4,
			}, nil
		},
	}
	svc := newTestService(repo, memberTrips(), nil, nil)
	defer svc.Close()

	view, err := svc.GetSchedule(context.Background(), testTripID, testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.Version != 4 {
		t.Errorf("expected version 4, got %d", view.Version)
	}
	if len(view.Days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(view.Days))
	}
	if len(view.Days[0].Locations) != 1 || view.Days[0].Locations[0].ID != "v1" {
		t.Errorf("day-0 not hydrated: %+v", view.Days[0])
	}
}

func TestGetScheduleAccessControl(t *testing.T) {
	repo := &mockScheduleRepo{
		findByTripIDFn: func(ctx context.Context, tripID string) (*model.ScheduleDocument, error) {
			return nil, itineraryerrors.ErrNotFound
		},
	}
	svc := newTestService(repo, memberTrips(), nil, nil)
	defer svc.Close()

	tests := []struct {
		name     string
		tripID   string
		userID   string
		wantCode string
	}{
		{name: "non-member", tripID: testTripID, userID: otherUser, wantCode: apperrors.CodeForbidden},
		{name: "unknown trip", tripID: "64f000000000000000000099", userID: testUserID, wantCode: apperrors.CodeNotFound},
		{name: "missing identity", tripID: testTripID, userID: "", wantCode: apperrors.CodeUnauthorized},
		{name: "empty trip id", tripID: "", userID: testUserID, wantCode: apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetSchedule(context.Background(), tt.tripID, tt.userID)
			if err == nil {
				t.Fatal("expected error")
			}
			appErr := apperrors.AsAppError(err)
			if appErr.Code != tt.wantCode {
				t.Errorf("got code %s, want %s", appErr.Code, tt.wantCode)
			}
		})
	}
}

func TestSaveSchedulePersistsAndPublishes(t *testing.T) {
	repo := &mockScheduleRepo{
		findByTripIDFn: func(ctx context.Context, tripID string) (*model.ScheduleDocument, error) {
			return nil, itineraryerrors.ErrNotFound
		},
		upsertFn: func(ctx context.Context, tripID string, data *model.ScheduleData) (*model.ScheduleDocument, error) {
			return &model.ScheduleDocument{TripID: tripID, ScheduleData: *data, Version: 7}, nil
		},
	}
	pub := &mockPublisher{}
	svc := newTestService(repo, memberTrips(), nil, pub)
	defer svc.Close()

	view, err := svc.SaveSchedule(context.Background(), testTripID, testUserID, validScheduleData())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.Version != 7 {
		t.Errorf("expected version 7, got %d", view.Version)
	}
	if got := repo.upserts(); got != 1 {
		t.Errorf("expected 1 upsert, got %d", got)
	}

	published := pub.published()
	if len(published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(published))
	}
	if published[0].TripID != testTripID || published[0].Version != 7 {
		t.Errorf("unexpected event: %+v", published[0])
	}
}

func TestSaveScheduleRejectsInvalidBody(t *testing.T) {
	repo := &mockScheduleRepo{
		findByTripIDFn: func(ctx context.Context, tripID string) (*model.ScheduleDocument, error) {
			return nil, itineraryerrors.ErrNotFound
		},
	}
	svc := newTestService(repo, memberTrips(), nil, nil)
	defer svc.Close()

	data := validScheduleData()
	data.Days[0].Locations[0].ArrivalTime = "25:99"

	_, err := svc.SaveSchedule(context.Background(), testTripID, testUserID, data)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
		t.Errorf("got code %s, want %s", appErr.Code, apperrors.CodeValidation)
	}
	if got := repo.upserts(); got != 0 {
		t.Errorf("invalid body must not be persisted, got %d upserts", got)
	}
}

func TestApplyDragDebouncesPersistence(t *testing.T) {
	repo := &mockScheduleRepo{
		findByTripIDFn: func(ctx context.Context, tripID string) (*model.ScheduleDocument, error) {
			return &model.ScheduleDocument{
				TripID:       tripID,
				ScheduleData: *validScheduleData(),
				Version:      1,
			}, nil
		},
		upsertFn: func(ctx context.Context, tripID string, data *model.ScheduleData) (*model.ScheduleDocument, error) {
			return &model.ScheduleDocument{TripID: tripID, ScheduleData: *data, Version: 2}, nil
		},
	}
	svc := newTestService(repo, memberTrips(), nil, nil)
	defer svc.Close()

	src := model.DragSource{Kind: model.DragKindVisit, DayID: "day-0", VisitID: "v1"}
	tgt := model.DragTarget{DayID: "day-1"}

	view, err := svc.ApplyDrag(context.Background(), testTripID, testUserID, src, tgt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(view.Days[1].Locations) != 1 {
		t.Errorf("drag not applied to returned model: %+v", view.Days)
	}
	if got := repo.upserts(); got != 0 {
		t.Errorf("drag save must be debounced, got %d immediate upserts", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && repo.upserts() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if got := repo.upserts(); got != 1 {
		t.Errorf("expected exactly 1 debounced upsert, got %d", got)
	}
}

func TestDeleteVisitBypassesDebounce(t *testing.T) {
	deleted := false
	repo := &mockScheduleRepo{
		deleteVisitFn: func(ctx context.Context, tripID, dayID, visitID string) (*model.ScheduleDocument, error) {
			deleted = true
			return &model.ScheduleDocument{
				TripID:       tripID,
				ScheduleData: model.ScheduleData{Days: []model.ScheduleDay{{DayID: "day-0", Locations: []model.ScheduleLocation{}}}},
				Version:      3,
			}, nil
		},
	}
	pub := &mockPublisher{}
	svc := newTestService(repo, memberTrips(), nil, pub)
	defer svc.Close()

	view, err := svc.DeleteVisit(context.Background(), testTripID, testUserID, "day-0", "v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !deleted {
		t.Error("expected immediate repository delete")
	}
	if view.Version != 3 {
		t.Errorf("expected version 3, got %d", view.Version)
	}
	if len(pub.published()) != 1 {
		t.Errorf("expected schedule.saved event after delete")
	}
}

func TestListCandidates(t *testing.T) {
	lists := &mockCandidateSource{
		findByTripIDFn: func(ctx context.Context, tripID string) ([]*model.LocationList, error) {
			return []*model.LocationList{
				{ID: "l1", TripID: tripID, Name: "Museums", Locations: []model.CandidateLocation{{ID: "c1", Name: "Louvre"}}},
			}, nil
		},
	}
	svc := newTestService(&mockScheduleRepo{}, memberTrips(), lists, nil)
	defer svc.Close()

	got, err := svc.ListCandidates(context.Background(), testTripID, testUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Museums" {
		t.Errorf("unexpected lists: %+v", got)
	}
}
