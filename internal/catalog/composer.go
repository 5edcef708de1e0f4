package catalog

import (
	"strings"
	"unicode/utf8"

	"favehub/internal/docstore"
	"favehub/internal/domain/event"
)

// Search terms shorter than this (after trimming) are treated as "no
// search" so near-empty input never triggers a broad client-side scan.
const minSearchLen = 3

// Scope is the fixed ownership/visibility predicate of a view: the owner
// management view only ever sees its own records, the public browse view
// only ever sees non-private ones.
type Scope struct {
	OwnerID    string
	PublicOnly bool
}

func OwnerScope(userID string) Scope {
	return Scope{OwnerID: userID}
}

func PublicScope() Scope {
	return Scope{PublicOnly: true}
}

// Filters holds the user-selected refinement criteria. Category is one of
// the closed enumeration values or blank/"All" for no category filter.
type Filters struct {
	Category   string
	SearchTerm string
}

// Spec is a composed query: server-side predicates plus ordering, and the
// client-side search refinement that the store cannot express.
type Spec struct {
	Predicates []docstore.Predicate
	Order      docstore.OrderBy
	search     string
}

// Compose anchors on the scope predicate, adds a category equality filter
// only for a concrete category, and always orders newest first. The search
// term never becomes a store predicate: the store has no substring match,
// so the refinement stays client side.
func Compose(scope Scope, filters Filters) Spec {
	preds := make([]docstore.Predicate, 0, 2)

	if scope.PublicOnly {
		preds = append(preds, docstore.Predicate{Field: event.FieldIsPrivate, Op: docstore.OpEqual, Value: false})
	} else {
		preds = append(preds, docstore.Predicate{Field: event.FieldOwnerID, Op: docstore.OpEqual, Value: scope.OwnerID})
	}

	if c := event.Category(filters.Category); c.Valid() {
		preds = append(preds, docstore.Predicate{Field: event.FieldCategory, Op: docstore.OpEqual, Value: string(c)})
	}

	search := strings.ToLower(strings.TrimSpace(filters.SearchTerm))
	if utf8.RuneCountInString(search) < minSearchLen {
		search = ""
	}

	return Spec{
		Predicates: preds,
		Order:      docstore.OrderBy{Field: event.FieldCreatedAt, Direction: docstore.Descending},
		search:     search,
	}
}

func (s Spec) SearchActive() bool {
	return s.search != ""
}

// Refine applies the case-insensitive substring match against event names.
// With no active search it returns the input unchanged.
func (s Spec) Refine(events []event.Event) []event.Event {
	if s.search == "" {
		return events
	}

	out := make([]event.Event, 0, len(events))
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.Name), s.search) {
			out = append(out, e)
		}
	}

	return out
}
