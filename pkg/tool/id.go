package tool

import "github.com/google/uuid"

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// GenerateTraceID returns a random request id for requests that arrive without one.
func GenerateTraceID() string {
	return uuid.New().String()
}
