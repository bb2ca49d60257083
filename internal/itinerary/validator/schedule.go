package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"tripflow/pkg/logger"
	"tripflow/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

var dayIDPattern = regexp.MustCompile(`^day-\d+$`)

type ScheduleValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewScheduleValidator(log *logger.Logger) *ScheduleValidator {
	v := validator.New()

	if err := v.RegisterValidation("day_id", validateDayID); err != nil {
		log.Fatal("Failed to register 'day_id' validator", "error", err)
	}
	if err := v.RegisterValidation("visit_time", validateVisitTime); err != nil {
		log.Fatal("Failed to register 'visit_time' validator", "error", err)
	}
	if err := v.RegisterValidation("commute_mode", validateCommuteMode); err != nil {
		log.Fatal("Failed to register 'commute_mode' validator", "error", err)
	}

	log.Info("Schedule validator initialized successfully")

	return &ScheduleValidator{
		validate: v,
		logger:   log,
	}
}

func validateDayID(fl validator.FieldLevel) bool {
	return dayIDPattern.MatchString(fl.Field().String())
}

// validateVisitTime accepts an empty value, the unset sentinel, or a
// 24-hour HH:MM wall-clock time.
func validateVisitTime(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" || value == model.TimeUnset {
		return true
	}

	var hour, minute int
	if _, err := fmt.Sscanf(value, "%02d:%02d", &hour, &minute); err != nil {
		return false
	}
	if len(value) != 5 || value[2] != ':' {
		return false
	}
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}

func validateCommuteMode(fl validator.FieldLevel) bool {
	switch model.CommuteMode(fl.Field().String()) {
	case "", model.CommuteDriving, model.CommuteWalking, model.CommuteTransit:
		return true
	}
	return false
}

// Validate checks a full schedule body: struct tags first, then the
// cross-visit invariants the tag system cannot express.
func (v *ScheduleValidator) Validate(data *model.ScheduleData) error {
	if data == nil {
		return ValidationErrors{{Field: "days", Message: "schedule body is required"}}
	}

	if err := v.validate.Struct(data); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateStructure(data)
}

// validateStructure enforces document-wide uniqueness: day ids must not
// repeat, and a visit id must not appear twice anywhere in the document.
func (v *ScheduleValidator) validateStructure(data *model.ScheduleData) error {
	var errs ValidationErrors

	seenDays := make(map[string]struct{}, len(data.Days))
	seenVisits := make(map[string]string)

	for _, day := range data.Days {
		if _, dup := seenDays[day.DayID]; dup {
			errs = append(errs, ValidationError{
				Field:   "dayId",
				Message: fmt.Sprintf("duplicate day id %q", day.DayID),
			})
		}
		seenDays[day.DayID] = struct{}{}

		for _, loc := range day.Locations {
			if firstDay, dup := seenVisits[loc.ID]; dup {
				errs = append(errs, ValidationError{
					Field:   "locations.id",
					Message: fmt.Sprintf("visit id %q appears in both %q and %q", loc.ID, firstDay, day.DayID),
				})
				continue
			}
			seenVisits[loc.ID] = day.DayID
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *ScheduleValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "eq":
			message = fmt.Sprintf("%s must equal %q", err.Field(), err.Param())
		case "day_id":
			message = "dayId must match day-<index>, e.g. day-0"
		case "visit_time":
			message = "time must be HH:MM in 24-hour format or the unset marker --:--"
		case "commute_mode":
			message = "wayToCommute must be one of DRIVING, WALKING, TRANSIT"
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
