// Package store is the owner of the contact collection. It keeps contacts in
// insertion order in memory, hands out read-only snapshots, applies adds and
// deletes, and tells subscribers about every change.
package store

import (
	"slices"
	"sync"

	"github.com/conneroisu/contactbook/internal/contact"
	"github.com/conneroisu/contactbook/internal/errors"
)

// ChangeKind says what happened to the collection.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeDeleted ChangeKind = "deleted"
)

// Change describes one mutation.
type Change struct {
	Kind    ChangeKind
	Contact contact.Contact
	// Count is the collection size after the change.
	Count int
}

// Memory is an ordered, mutex-protected contact collection.
type Memory struct {
	mu          sync.RWMutex
	contacts    []contact.Contact
	subscribers map[int]func(Change)
	nextSubID   int
}

// NewMemory creates a store holding initial, in order.
func NewMemory(initial ...contact.Contact) *Memory {
	return &Memory{
		contacts:    slices.Clone(initial),
		subscribers: make(map[int]func(Change)),
	}
}

// Snapshot returns a read-only copy of the current contacts.
func (m *Memory) Snapshot() contact.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return contact.NewSnapshot(m.contacts)
}

// Len returns the number of contacts.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.contacts)
}

// Add appends c. An id that is already present is rejected.
func (m *Memory) Add(c contact.Contact) error {
	m.mu.Lock()
	if slices.ContainsFunc(m.contacts, func(existing contact.Contact) bool { return existing.ID == c.ID }) {
		m.mu.Unlock()
		return errors.ErrDuplicateID(c.ID)
	}
	m.contacts = append(m.contacts, c)
	change := Change{Kind: ChangeAdded, Contact: c, Count: len(m.contacts)}
	subs := m.subscribersLocked()
	m.mu.Unlock()

	notifyAll(subs, change)
	return nil
}

// Delete removes the contact with the given id.
func (m *Memory) Delete(id string) error {
	m.mu.Lock()
	idx := slices.IndexFunc(m.contacts, func(c contact.Contact) bool { return c.ID == id })
	if idx < 0 {
		m.mu.Unlock()
		return errors.ErrContactNotFound(id)
	}
	removed := m.contacts[idx]
	m.contacts = slices.Delete(m.contacts, idx, idx+1)
	change := Change{Kind: ChangeDeleted, Contact: removed, Count: len(m.contacts)}
	subs := m.subscribersLocked()
	m.mu.Unlock()

	notifyAll(subs, change)
	return nil
}

// Subscribe registers fn for every future change and returns a function
// that removes it. fn runs after the store lock is released.
func (m *Memory) Subscribe(fn func(Change)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

func (m *Memory) subscribersLocked() []func(Change) {
	subs := make([]func(Change), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notifyAll(subs []func(Change), change Change) {
	for _, fn := range subs {
		fn(change)
	}
}
