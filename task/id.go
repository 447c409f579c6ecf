package task

import "github.com/google/uuid"

// ID is a stable, opaque 128-bit random task identity. Two tasks compare
// equal iff their ids match.
type ID [16]byte

// NewID generates a fresh random task identity.
func NewID() ID {
	return ID(uuid.New())
}

// String renders the id in canonical UUID form.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the zero value (never assigned).
func (id ID) IsZero() bool {
	return id == ID{}
}
