package utils

import (
	"github.com/google/uuid"
)

// NewRandomID returns a new unique ID for jobs / etags.
func NewRandomID() string {
	return uuid.New().String()
}

// IsValidID returns true if the given string is an ID we could have minted.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
