package contacts

import "errors"

var (
	// ErrDuplicateContact is returned by Add when the directory already holds a
	// contact with the same name and phone. No request is sent.
	ErrDuplicateContact = errors.New("contact with the same name and phone number already exists")

	ErrInvalidContact = errors.New("invalid contact")
)
