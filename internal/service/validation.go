package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/finalproject-api/pkg/database"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
)

const requiredMessage = "This field is required."

// NewValidator returns a validator that reports fields by their json names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		}
		return name
	})
	return v
}

// validationError converts validator output into field keyed messages.
func validationError(err error, message string) error {
	fields := appErrors.FieldErrors{}
	if !addValidationErrors(fields, err) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return appErrors.WithFields(appErrors.ErrValidation, message, fields)
}

// addValidationErrors copies validator failures into fields. It reports false when err did not come from the validator.
func addValidationErrors(fields appErrors.FieldErrors, err error) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		name := fe.Field()
		if idx := strings.IndexByte(name, '['); idx > 0 {
			name = name[:idx]
		}
		fields.Add(name, describeFieldError(fe))
	}
	return true
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return requiredMessage
	case "email":
		return "Enter a valid email address."
	case "uuid":
		return fmt.Sprintf("%q is not a valid UUID.", fmt.Sprint(fe.Value()))
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	}
	return fmt.Sprintf("Failed the %q rule.", fe.Tag())
}

// requireFields adds a required message for each missing name.
func requireFields(fields appErrors.FieldErrors, missing []string) {
	for _, name := range missing {
		fields.Add(name, requiredMessage)
	}
}

func invalidUUIDs(fields appErrors.FieldErrors, field string, ids ...string) {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			fields.Add(field, fmt.Sprintf("%q is not a valid UUID.", id))
		}
	}
}

// validID reports whether id can match a UUID primary key. Anything else is treated as a missing record.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func notFound(noun string) error {
	return appErrors.Clone(appErrors.ErrNotFound, noun+" not found")
}

// uniqueFields maps database unique constraints to the payload field they guard.
var uniqueFields = map[string]struct {
	field   string
	message string
}{
	"users_username_key":      {"username", "A user with that username already exists."},
	"students_student_id_key": {"student_id", "student with this student id already exists."},
	"students_email_key":      {"email", "student with this email already exists."},
	"advisors_email_key":      {"email", "advisor with this email already exists."},
	"advisor_roles_role_key":  {"role", "advisor role with this role already exists."},
	"students_user_id_key":    {"user", "This user already has a student profile."},
	"advisors_user_id_key":    {"user", "This user already has an advisor profile."},
}

// conflictError turns a unique violation into a CONFLICT error keyed by field, and returns nil for any other error.
func conflictError(err error) error {
	constraint, ok := database.UniqueViolation(err)
	if !ok {
		return nil
	}
	fields := appErrors.FieldErrors{}
	if guard, known := uniqueFields[constraint]; known {
		fields.Add(guard.field, guard.message)
	} else {
		fields.Add("non_field_errors", "record already exists")
	}
	return appErrors.WithFields(appErrors.ErrConflict, "record already exists", fields)
}
