package mirror

import (
	"sync"

	"favehub/internal/domain/event"
)

// Events is the in-memory copy of the remote catalog the UI renders from.
// The loader replaces it wholesale; the favorite reconciler and the CRUD
// controller patch narrow slices of it. The lock keeps those writers from
// trampling each other: a favorite flip touches exactly one entry and a
// CRUD write never discards another record's in-flight flip.
type Events struct {
	mu    sync.RWMutex
	items []event.Event
}

func New() *Events {
	return &Events{}
}

// ReplaceAll swaps in a fresh query result, preserving its order.
func (m *Events) ReplaceAll(items []event.Event) {
	copied := make([]event.Event, len(items))
	copy(copied, items)

	m.mu.Lock()
	m.items = copied
	m.mu.Unlock()
}

// All returns a copy of the current entries in display order.
func (m *Events) All() []event.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]event.Event, len(m.items))
	copy(out, m.items)

	return out
}

func (m *Events) Get(id string) (event.Event, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.items {
		if e.ID == id {
			return e, true
		}
	}

	return event.Event{}, false
}

func (m *Events) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}

// Append adds a newly created entry without disturbing the rest.
func (m *Events) Append(e event.Event) {
	m.mu.Lock()
	m.items = append(m.items, e)
	m.mu.Unlock()
}

// Replace swaps the entry with the same id for the merged record. Returns
// false when the id is not mirrored.
func (m *Events) Replace(e event.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.items {
		if m.items[i].ID == e.ID {
			m.items[i] = e
			return true
		}
	}

	return false
}

func (m *Events) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true
		}
	}

	return false
}

// SetFavorite flips a single user's membership in one entry's favoritedBy
// set. Adding is idempotent; removing a missing member is a no-op.
func (m *Events) SetFavorite(eventID, userID string, on bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.items {
		if m.items[i].ID != eventID {
			continue
		}

		if on {
			if !m.items[i].IsFavoritedBy(userID) {
				m.items[i].FavoritedBy = append(m.items[i].FavoritedBy, userID)
			}
			return true
		}

		next := make([]string, 0, len(m.items[i].FavoritedBy))
		for _, id := range m.items[i].FavoritedBy {
			if id != userID {
				next = append(next, id)
			}
		}
		m.items[i].FavoritedBy = next

		return true
	}

	return false
}
