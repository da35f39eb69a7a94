package service

import (
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// StudentInput is the plain record validated before any write reaches the
// store. It is independent of any presentation layer.
type StudentInput struct {
	Name   string `validate:"required,person_name"`
	Roll   string `validate:"required,roll_number"`
	Course string `validate:"required"`
	Marks  int    `validate:"gte=0,lte=100"`
}

var (
	nameRe = regexp.MustCompile(`^[A-Za-z .\-]+$`)
	rollRe = regexp.MustCompile(`^[0-9]{1,12}$`)
)

// NewValidator returns a validator with the roster field rules registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
		return nameRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("roll_number", func(fl validator.FieldLevel) bool {
		return rollRe.MatchString(fl.Field().String())
	})
	return v
}

// FieldErrors maps field names to user-facing validation messages.
type FieldErrors map[string]string

// Error implements the error interface with a deterministic field order.
func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+f[field])
	}
	return strings.Join(parts, "; ")
}

// ValidateStudent checks the input and returns per-field messages, or nil
// when the record is valid.
func ValidateStudent(v *validator.Validate, in StudentInput) FieldErrors {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return FieldErrors{"record": err.Error()}
	}
	fields := FieldErrors{}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Name":
			fields["name"] = "name must be letters, space, period or hyphen"
		case "Roll":
			fields["roll"] = "roll must be numeric (1-12 digits)"
		case "Course":
			fields["course"] = "course is required"
		case "Marks":
			fields["marks"] = "marks must be between 0 and 100"
		}
	}
	return fields
}
