package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

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

type TripValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTripValidator(log *logger.Logger) *TripValidator {
	v := validator.New()

	if err := v.RegisterValidation("date_range", validateDateRange); err != nil {
		log.Fatal("Failed to register 'date_range' validator", "error", err)
	}

	log.Info("Trip validator initialized successfully")

	return &TripValidator{
		validate: v,
		logger:   log,
	}
}

// validateDateRange runs on EndDate and compares against the sibling
// StartDate field. Single-day trips (equal dates) are allowed.
func validateDateRange(fl validator.FieldLevel) bool {
	endDate, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}

	startField := fl.Parent().FieldByName("StartDate")
	if !startField.IsValid() {
		return false
	}
	startDate, ok := startField.Interface().(time.Time)
	if !ok {
		return false
	}

	return !endDate.Before(startDate)
}

func (v *TripValidator) Validate(trip *model.Trip) error {
	if err := v.validate.Struct(trip); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// ValidateUpdate checks a partial update; the date pair is only comparable
// when both endpoints are present in the patch.
func (v *TripValidator) ValidateUpdate(updates *model.TripUpdate) error {
	if err := v.validate.Struct(updates); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if updates.StartDate != nil && updates.EndDate != nil && updates.EndDate.Before(*updates.StartDate) {
		return ValidationErrors{{
			Field:   "EndDate",
			Message: "end_date must not be before start_date",
		}}
	}
	return nil
}

func (v *TripValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid object ID", err.Field())
		case "date_range":
			message = "end_date must not be before start_date"
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
