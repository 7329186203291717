package metarule

import "github.com/google/uuid"

// NewRunID generates a fresh random correlation id (a UUID string). The
// logger built by NewLogger (log.go) and Problem (maxsat.go) do not record
// one; nothing in this module calls NewRunID.
func NewRunID() string {
	return uuid.NewString()
}
