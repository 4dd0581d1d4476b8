package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/todo-api/internal/models"
	"github.com/go-playground/validator/v10"
)

const (
	// MinTitleLength is the minimum length of a todo title after trimming
	MinTitleLength = 3
	// MaxTitleLength is the maximum length of a todo title after trimming
	MaxTitleLength = 100
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("priority", validatePriority); err != nil {
		panic(fmt.Sprintf("failed to register priority validator: %v", err))
	}
}

// TodoInput is the decoded body of a create or update request.
// Done is kept untyped so a non-boolean value can be reported instead of failing the decode.
type TodoInput struct {
	Title    *string `json:"title"`
	Done     any     `json:"done"`
	Priority *string `json:"priority"`
}

// todoFields carries the normalized values that go through the validator
type todoFields struct {
	Title    string `validate:"required,min=3,max=100"`
	Priority string `validate:"required,priority"`
}

// validatePriority validates that a string is a valid Priority enum value
func validatePriority(fl validator.FieldLevel) bool {
	return models.Priority(fl.Field().String()).IsValid()
}

// ValidateTodoInput checks a request body and returns every violation found.
// The title is checked when requireTitle is set or when it is present; priority and done
// are only checked when supplied. An empty result means the input is valid.
func ValidateTodoInput(in *TodoInput, requireTitle bool) []string {
	if in == nil {
		in = &TodoInput{}
	}

	var violations []string
	var fields todoFields
	var names []string

	if in.Title != nil || requireTitle {
		if in.Title != nil {
			fields.Title = SanitizeTitle(*in.Title)
		}
		names = append(names, "Title")
	}
	if in.Priority != nil {
		fields.Priority = *in.Priority
		names = append(names, "Priority")
	}

	if len(names) > 0 {
		if err := Validate.StructPartial(fields, names...); err != nil {
			var validationErrors validator.ValidationErrors
			if errors.As(err, &validationErrors) {
				for _, fieldError := range validationErrors {
					violations = append(violations, messageFor(fieldError))
				}
			} else {
				violations = append(violations, "Validation failed")
			}
		}
	}

	if in.Done != nil {
		if _, ok := in.Done.(bool); !ok {
			violations = append(violations, "Done must be a boolean")
		}
	}

	return violations
}

func messageFor(fe validator.FieldError) string {
	switch fe.Field() {
	case "Title":
		switch fe.Tag() {
		case "min":
			return fmt.Sprintf("Title must be at least %s characters", fe.Param())
		case "max":
			return fmt.Sprintf("Title cannot exceed %s characters", fe.Param())
		default:
			return "Title is required and cannot be empty"
		}
	case "Priority":
		return PriorityMessage()
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// PriorityMessage describes the allowed priority values
func PriorityMessage() string {
	names := make([]string, 0, len(models.Priorities()))
	for _, p := range models.Priorities() {
		names = append(names, string(p))
	}
	return "Priority must be one of: " + strings.Join(names, ", ")
}

// SanitizeTitle removes control characters and trims surrounding whitespace
func SanitizeTitle(title string) string {
	var sanitized strings.Builder
	sanitized.Grow(len(title))
	for _, r := range title {
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return strings.TrimSpace(sanitized.String())
}
