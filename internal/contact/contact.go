// Package contact holds the contact book's data model: the Contact record,
// raw form Input, the read-only Snapshot used for duplicate checks, the
// pure Validate function and id generation.
package contact

import (
	"slices"

	"golang.org/x/text/unicode/norm"
)

// Contact is one entry of the contact book. Contacts are never updated
// after creation.
type Contact struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Number string `json:"number" yaml:"number"`
}

// Input holds the raw field values submitted by the form.
type Input struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// Normalize returns the input with the name in Unicode NFC, so that a
// decomposed letter such as "й" compares and validates like its
// precomposed form.
func (in Input) Normalize() Input {
	return Input{
		Name:   NormalizeName(in.Name),
		Number: in.Number,
	}
}

// IsEmpty reports whether both fields are blank.
func (in Input) IsEmpty() bool {
	return in.Name == "" && in.Number == ""
}

// NormalizeName puts a name into NFC.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// Snapshot is an immutable, ordered copy of a contact collection.
type Snapshot struct {
	contacts []Contact
}

// NewSnapshot copies contacts into a Snapshot.
func NewSnapshot(contacts []Contact) Snapshot {
	return Snapshot{contacts: slices.Clone(contacts)}
}

// Len returns the number of contacts.
func (s Snapshot) Len() int {
	return len(s.contacts)
}

// All returns a copy of the contacts in order.
func (s Snapshot) All() []Contact {
	return slices.Clone(s.contacts)
}

// FindByName returns the first contact whose name equals name exactly.
func (s Snapshot) FindByName(name string) (Contact, bool) {
	name = NormalizeName(name)
	for _, c := range s.contacts {
		if NormalizeName(c.Name) == name {
			return c, true
		}
	}
	return Contact{}, false
}

// HasID reports whether a contact with the given id is present.
func (s Snapshot) HasID(id string) bool {
	return slices.ContainsFunc(s.contacts, func(c Contact) bool {
		return c.ID == id
	})
}
