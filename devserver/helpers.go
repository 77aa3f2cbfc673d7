package devserver

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator"
)

type ErrorPayload struct {
	// Message is a string, or a list of strings for validation errors
	Message interface{} `json:"message"`
}

func writeJSON(rw http.ResponseWriter, payload interface{}, statusCode int) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(payload)
}

func writeError(rw http.ResponseWriter, message interface{}, statusCode int) {
	writeJSON(rw, ErrorPayload{Message: message}, statusCode)
}

func newValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		// if whitespace in password return false
		err := validate.Var(fl.Field().String(), "contains= ")
		if err == nil {
			return false
		}
		return len(fl.Field().String()) >= 6
	})

	_ = validate.RegisterValidation("contact_type", func(fl validator.FieldLevel) bool {
		_, ok := normalizeContactType(fl.Field().String())
		return ok
	})

	return validate
}

// validationMessages turns validator errors into one message per failed field
func validationMessages(err error) []string {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	msgs := []string{}
	for _, fieldErr := range validationErrs {
		field := strings.ToLower(fieldErr.Field())
		switch fieldErr.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s should not be empty", field))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be an email", field))
		case "password":
			msgs = append(msgs, fmt.Sprintf("%s must be at least 6 characters, without spaces", field))
		case "contact_type":
			msgs = append(msgs, fmt.Sprintf("%s must be one of the following values: employee, client", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return msgs
}

// normalizeContactType maps any casing of employee/client to the stored form.
// Empty means client.
func normalizeContactType(value string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "client":
		return "client", true
	case "employee":
		return "employee", true
	}
	return "", false
}

// formValue reports whether key was sent at all, even if empty
func formValue(form *multipart.Form, key string) (string, bool) {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[0]), true
}

func stringPtr(value string) *string {
	return &value
}
