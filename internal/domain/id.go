package domain

import "github.com/google/uuid"

// NewCheckID creates a unique identifier for a check.
func NewCheckID() string {
	return uuid.New().String()
}
