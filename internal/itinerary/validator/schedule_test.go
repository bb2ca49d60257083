package validator

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"tripflow/pkg/logger"
	"tripflow/pkg/model"
)

func testValidator() *ScheduleValidator {
	log := logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT, Output: io.Discard})
	return NewScheduleValidator(log)
}

func validVisit(id string) model.ScheduleLocation {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return model.ScheduleLocation{
		ID:            id,
		Name:          "Louvre Museum",
		Address:       "Rue de Rivoli, Paris",
		Lat:           48.8606,
		Lng:           2.3376,
		ArrivalTime:   "10:00",
		DepartureTime: "12:30",
		WayToCommute:  model.CommuteWalking,
		Type:          model.VisitType,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func validSchedule() *model.ScheduleData {
	return &model.ScheduleData{
		Days: []model.ScheduleDay{
			{
				DayID:     "day-0",
				Date:      time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
				Locations: []model.ScheduleLocation{validVisit("v1"), validVisit("v2")},
			},
			{
				DayID:     "day-1",
				Date:      time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC),
				Locations: []model.ScheduleLocation{validVisit("v3")},
			},
		},
	}
}

func TestValidateAcceptsWellFormedSchedule(t *testing.T) {
	v := testValidator()
	if err := v.Validate(validSchedule()); err != nil {
		t.Fatalf("expected valid schedule, got: %v", err)
	}
}

func TestValidateAcceptsUnsetTimes(t *testing.T) {
	v := testValidator()
	data := validSchedule()
	data.Days[0].Locations[0].ArrivalTime = model.TimeUnset
	data.Days[0].Locations[0].DepartureTime = ""
	if err := v.Validate(data); err != nil {
		t.Fatalf("expected unset times to validate, got: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*model.ScheduleData)
		wantPart string
	}{
		{
			name:     "malformed day id",
			mutate:   func(d *model.ScheduleData) { d.Days[0].DayID = "monday" },
			wantPart: "day-<index>",
		},
		{
			name:     "day id with suffix",
			mutate:   func(d *model.ScheduleData) { d.Days[0].DayID = "day-1x" },
			wantPart: "day-<index>",
		},
		{
			name:     "bad arrival time",
			mutate:   func(d *model.ScheduleData) { d.Days[0].Locations[0].ArrivalTime = "25:00" },
			wantPart: "24-hour",
		},
		{
			name:     "bad time format",
			mutate:   func(d *model.ScheduleData) { d.Days[0].Locations[0].DepartureTime = "9am" },
			wantPart: "24-hour",
		},
		{
			name:     "unknown commute mode",
			mutate:   func(d *model.ScheduleData) { d.Days[0].Locations[0].WayToCommute = "TELEPORT" },
			wantPart: "DRIVING",
		},
		{
			name:     "missing visit id",
			mutate:   func(d *model.ScheduleData) { d.Days[0].Locations[0].ID = "" },
			wantPart: "required",
		},
		{
			name:     "missing name",
			mutate:   func(d *model.ScheduleData) { d.Days[0].Locations[1].Name = "" },
			wantPart: "required",
		},
		{
			name:     "latitude out of range",
			mutate:   func(d *model.ScheduleData) { d.Days[0].Locations[0].Lat = 91 },
			wantPart: "Lat",
		},
		{
			name:     "wrong entry type",
			mutate:   func(d *model.ScheduleData) { d.Days[0].Locations[0].Type = "note" },
			wantPart: "location",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testValidator()
			data := validSchedule()
			tt.mutate(data)

			err := v.Validate(data)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.wantPart) {
				t.Errorf("expected message containing %q, got %q", tt.wantPart, err.Error())
			}
		})
	}
}

func TestValidateRejectsDuplicateVisitIDAcrossDays(t *testing.T) {
	v := testValidator()
	data := validSchedule()
	data.Days[1].Locations[0].ID = "v1"

	err := v.Validate(data)
	if err == nil {
		t.Fatal("expected duplicate visit id to be rejected")
	}
	if !strings.Contains(err.Error(), "v1") {
		t.Errorf("expected message naming the duplicate id, got %q", err.Error())
	}
}

func TestValidateRejectsDuplicateDayID(t *testing.T) {
	v := testValidator()
	data := validSchedule()
	data.Days[1].DayID = "day-0"

	err := v.Validate(data)
	if err == nil {
		t.Fatal("expected duplicate day id to be rejected")
	}
	if !strings.Contains(err.Error(), "duplicate day id") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestValidateNilSchedule(t *testing.T) {
	v := testValidator()
	if err := v.Validate(nil); err == nil {
		t.Fatal("expected nil schedule to be rejected")
	}
}
