package contacts

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
	"github.com/pkg/errors"
)

const (
	ContactTypeEmployee = "employee"
	ContactTypeClient   = "client"
)

// Field is the contact attribute a search is scoped to
type Field string

const (
	FieldName  Field = "name"
	FieldPhone Field = "phone"
	FieldEmail Field = "email"
)

var (
	validFields = map[Field]bool{FieldName: true, FieldPhone: true, FieldEmail: true}

	validate = newValidator()
)

func ParseField(value string) (Field, error) {
	field := Field(strings.ToLower(strings.TrimSpace(value)))
	if !validFields[field] {
		return "", fmt.Errorf("invalid search field %q, should be name, phone, or email", value)
	}
	return field, nil
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Contact is the directory's record. A draft is a Contact whose ID was not
// assigned by the server (zero, or a negative provisional id).
type Contact struct {
	ID         int       `json:"id"`
	Name       string    `json:"name" validate:"notblank"`
	Phone      string    `json:"phone" validate:"notblank"`
	Email      string    `json:"email,omitempty"`
	Image      string    `json:"image,omitempty"`
	IsEmployee bool      `json:"isEmployee"`
	Location   *Location `json:"location,omitempty"`
}

func (c Contact) IsDraft() bool {
	return c.ID <= 0
}

// ContactType is the wire encoding of IsEmployee
func (c Contact) ContactType() string {
	if c.IsEmployee {
		return ContactTypeEmployee
	}
	return ContactTypeClient
}

func (c Contact) Role() string {
	if c.IsEmployee {
		return "Employee"
	}
	return "Client"
}

// sameKey reports whether both contacts share the de-duplication key.
// Comparison is exact and case sensitive.
func (c Contact) sameKey(other Contact) bool {
	return keyOf(c) == keyOf(other)
}

type contactKey struct {
	name  string
	phone string
}

func keyOf(c Contact) contactKey {
	return contactKey{name: c.Name, phone: c.Phone}
}

// Validate checks the fields the backend requires on create and update
func Validate(contact Contact) error {
	err := validate.Struct(contact)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(ErrInvalidContact, err.Error())
	}

	msgs := []string{}
	for _, fieldErr := range validationErrs {
		msgs = append(msgs, fmt.Sprintf("%s is required", strings.ToLower(fieldErr.Field())))
	}

	return errors.Wrap(ErrInvalidContact, strings.Join(msgs, ", "))
}

func newValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}
