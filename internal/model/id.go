package model

import "github.com/google/uuid"

// IDGenerator produces entity IDs.
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator generates time-sortable UUIDv7 IDs.
//
// UUIDv7 embeds a millisecond timestamp in the leading bits, so IDs created
// later sort after earlier ones. The store uses the ID as a final tie-break
// when ordering rows.
type UUIDv7Generator struct{}

// NewID returns a new hyphenated UUIDv7.
//
// Panics if UUID generation fails (reading the random source failed).
func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
