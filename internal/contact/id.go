package contact

import (
	"github.com/google/uuid"
)

// maxIDAttempts bounds the retries when a generated id collides.
const maxIDAttempts = 16

// IDGenerator produces identifiers for new contacts.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() string

// NewID calls f.
func (f IDGeneratorFunc) NewID() string {
	return f()
}

// UUIDGenerator issues random (version 4) UUID strings.
type UUIDGenerator struct{}

// NewID returns a new random UUID.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// FreshID asks gen for an id that is not yet used in existing. It returns
// false if every attempt collided.
func FreshID(gen IDGenerator, existing Snapshot) (string, bool) {
	for i := 0; i < maxIDAttempts; i++ {
		id := gen.NewID()
		if id != "" && !existing.HasID(id) {
			return id, true
		}
	}
	return "", false
}
