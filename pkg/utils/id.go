package utils

import "github.com/google/uuid"

// NewID returns a random canonical row ID.
func NewID() string {
	return uuid.New().String()
}
