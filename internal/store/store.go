package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/clinicdesk/schedcal/internal/model"
)

var (
	ErrDuplicateID = errors.New("store: duplicate appointment id")
	ErrNotFound    = errors.New("store: appointment not found")
)

// Op identifies the mutation that produced a Change.
type Op string

const (
	OpAdd        Op = "add"
	OpUpdate     Op = "update"
	OpDelete     Op = "delete"
	OpReplaceAll Op = "replace_all"
)

// Change describes a single store mutation. For OpDelete only the ID of the
// removed appointment is meaningful; for OpReplaceAll the Appointment field
// is zero.
type Change struct {
	Op          Op
	Appointment model.Appointment
}

// Listener receives every committed mutation together with a snapshot of the
// full collection after the mutation. The snapshot is a copy the listener may
// keep.
type Listener func(change Change, snapshot []model.Appointment)

// Store owns the canonical ordered collection of appointments. All writes go
// through its methods; there is no other way to reach the collection.
// Insertion order is preserved and is the default display order.
type Store struct {
	mu        sync.RWMutex
	items     []model.Appointment
	index     map[string]int
	listeners []Listener
}

func New() *Store {
	return &Store{index: make(map[string]int)}
}

// Subscribe registers a listener for future mutations. Listeners are invoked
// synchronously, in registration order, after the mutation commits.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Add appends the appointment to the collection. The ID must not already be
// present.
func (s *Store) Add(a model.Appointment) error {
	s.mu.Lock()
	if _, ok := s.index[a.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateID, a.ID)
	}
	s.index[a.ID] = len(s.items)
	s.items = append(s.items, a)
	listeners, snapshot := s.listeners, s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, Change{Op: OpAdd, Appointment: a}, snapshot)
	return nil
}

// Update replaces the entry whose ID matches, keeping its position.
func (s *Store) Update(a model.Appointment) error {
	s.mu.Lock()
	i, ok := s.index[a.ID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, a.ID)
	}
	s.items[i] = a
	listeners, snapshot := s.listeners, s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, Change{Op: OpUpdate, Appointment: a}, snapshot)
	return nil
}

// Delete removes the entry with the given ID and reports whether anything was
// removed. Deleting an absent ID is not an error.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	removed := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].ID] = j
	}
	listeners, snapshot := s.listeners, s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, Change{Op: OpDelete, Appointment: removed}, snapshot)
	return true
}

// ReplaceAll swaps in a wholly new collection. Used during hydration. The
// durable slot is externally editable, so the list may carry duplicate IDs;
// a later occurrence silently replaces the earlier one in place, keeping
// identifier uniqueness intact.
func (s *Store) ReplaceAll(list []model.Appointment) {
	s.mu.Lock()
	items := make([]model.Appointment, 0, len(list))
	index := make(map[string]int, len(list))
	for _, a := range list {
		if i, ok := index[a.ID]; ok {
			items[i] = a
			continue
		}
		index[a.ID] = len(items)
		items = append(items, a)
	}
	s.items = items
	s.index = index
	listeners, snapshot := s.listeners, s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, Change{Op: OpReplaceAll}, snapshot)
}

// All returns a copy of the collection in insertion order.
func (s *Store) All() []model.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Get returns the appointment with the given ID, if present.
func (s *Store) Get(id string) (model.Appointment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return model.Appointment{}, false
	}
	return s.items[i], true
}

// Len returns the number of appointments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) snapshotLocked() []model.Appointment {
	return append([]model.Appointment(nil), s.items...)
}

func notify(listeners []Listener, c Change, snapshot []model.Appointment) {
	for _, l := range listeners {
		l(c, snapshot)
	}
}
