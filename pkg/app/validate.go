package app

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/smith3v/mood-tracker/pkg/db"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	if err := v.RegisterValidation("mood", func(fl validator.FieldLevel) bool {
		return db.MoodCategory(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, _, err := db.ParseClock(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidationError lists the rejected input fields with a short reason each.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = validationMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "mood":
		return "is not a known mood"
	case "clock":
		return "must be a time like 20:00"
	}
	return "is invalid"
}

type SignInInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"max=100"`
}

type ProfileInput struct {
	Name   *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Age    *int     `json:"age" validate:"omitempty,min=0,max=130"`
	Weight *float64 `json:"weight" validate:"omitempty,gt=0,lt=500"`
	Height *float64 `json:"height" validate:"omitempty,gt=0,lt=300"`
	Gender *string  `json:"gender" validate:"omitempty,max=32"`
	Clear  []string `json:"clear" validate:"dive,oneof=age weight height gender"`
}

// MoodInput is today's mood as entered by the user. Intensity outside 1..10
// is clamped, not rejected.
type MoodInput struct {
	Mood       db.MoodCategory `json:"mood" validate:"required,mood"`
	Intensity  int             `json:"intensity"`
	Notes      *string         `json:"notes" validate:"omitempty,max=2000"`
	Triggers   []string        `json:"triggers" validate:"dive,required,max=64"`
	Activities []string        `json:"activities" validate:"dive,required,max=64"`
}

type SettingsInput struct {
	NotificationsEnabled *bool   `json:"notificationsEnabled"`
	DailyReminderAt      *string `json:"dailyReminderAt" validate:"omitempty,clock"`
	ClearReminder        bool    `json:"clearReminder"`
	PreferredLanguage    *string `json:"preferredLanguage" validate:"omitempty,oneof=de en"`
	AutoSyncHealthData   *bool   `json:"autoSyncHealthData"`
}
