package utils

import "github.com/google/uuid"

// NewSessionID returns a random RFC 4122 v4 identifier for a tuning session.
func NewSessionID() string {
	return uuid.NewString()
}

// ValidID reports whether s parses as a UUID.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
