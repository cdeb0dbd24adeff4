package logging

import "github.com/google/uuid"

// GenerateRequestID returns a random (version 4) UUID string used to
// correlate the log lines of one access check.
func GenerateRequestID() string {
	return uuid.NewString()
}

// ForRequest returns l tagged with a fresh request ID.
func ForRequest(l Logger) (Logger, string) {
	id := GenerateRequestID()
	return l.WithRequestID(id), id
}
