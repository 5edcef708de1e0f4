package memory

import (
	"context"
	"sync"
	"time"

	"favehub/internal/docstore"

	"github.com/google/uuid"
)

// Store is the in-process document store used by tests and local runs.
// It mirrors the remote contract closely enough that the sync core cannot
// tell the difference: ANDed equality predicates, single-field ordering,
// duplicate-free set mutations.
type Store struct {
	mu   sync.RWMutex
	docs map[string]map[string]map[string]any // collection -> id -> fields
}

func New() *Store {
	return &Store{
		docs: make(map[string]map[string]map[string]any),
	}
}

func (s *Store) Query(ctx context.Context, collection string, predicates []docstore.Predicate, orderBy *docstore.OrderBy) ([]docstore.Snapshot, error) {
	for _, p := range predicates {
		if p.Op != docstore.OpEqual {
			return nil, docstore.ErrInvalidOp
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]docstore.Snapshot, 0)

	for id, fields := range s.docs[collection] {
		if !docstore.MatchesAll(fields, predicates) {
			continue
		}
		out = append(out, docstore.Snapshot{ID: id, Fields: cloneFields(fields)})
	}

	if orderBy != nil {
		docstore.SortSnapshots(out, *orderBy)
	}

	return out, nil
}

func (s *Store) GetByID(ctx context.Context, collection, id string) (docstore.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.docs[collection][id]
	if !ok {
		return docstore.Snapshot{}, docstore.ErrNotFound
	}

	return docstore.Snapshot{ID: id, Fields: cloneFields(fields)}, nil
}

func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]map[string]any)
	}
	s.docs[collection][id] = cloneFields(fields)

	return id, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[collection][id]
	if !ok {
		return docstore.ErrNotFound
	}

	for k, v := range fields {
		doc[k] = v
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[collection][id]; !ok {
		return docstore.ErrNotFound
	}
	delete(s.docs[collection], id)

	return nil
}

func (s *Store) PatchSet(ctx context.Context, collection, id, field string, op docstore.SetOp, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[collection][id]
	if !ok {
		return docstore.ErrNotFound
	}

	members := asStringSet(doc[field])

	switch op {
	case docstore.SetAdd:
		for _, m := range members {
			if m == value {
				doc[field] = members
				return nil
			}
		}
		members = append(members, value)
	case docstore.SetRemove:
		next := members[:0]
		for _, m := range members {
			if m != value {
				next = append(next, m)
			}
		}
		members = next
	default:
		return docstore.ErrInvalidField
	}

	doc[field] = members

	return nil
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch sv := v.(type) {
		case []string:
			out[k] = append([]string(nil), sv...)
		case time.Time:
			out[k] = sv
		default:
			out[k] = v
		}
	}

	return out
}

// asStringSet tolerates both []string and []any field shapes, the latter
// is what a decoded JSON document carries.
func asStringSet(v any) []string {
	switch sv := v.(type) {
	case nil:
		return nil
	case []string:
		return append([]string(nil), sv...)
	case []any:
		out := make([]string, 0, len(sv))
		for _, m := range sv {
			s, ok := m.(string)
			if ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
