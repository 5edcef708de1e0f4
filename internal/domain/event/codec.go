package event

import (
	"fmt"

	"favehub/internal/docstore"
)

// Fields flattens an event into the full stored document. Used on create,
// where every field including the empty favorites set is written once.
func Fields(e Event) map[string]any {
	return map[string]any{
		FieldName:        e.Name,
		FieldDescription: e.Description,
		FieldDateTime:    e.StartAt,
		FieldCategory:    string(e.Category),
		FieldIsPrivate:   e.IsPrivate,
		FieldOwnerID:     e.OwnerID,
		FieldCreatedAt:   e.CreatedAt,
		FieldFavoritedBy: append([]string{}, e.FavoritedBy...),
	}
}

// EditableFields is the owner-edit patch. It deliberately excludes ownerId,
// createdAt and favoritedBy so an edit can never clobber the favorite
// reconciler's set-patches or the immutable creation facts.
func EditableFields(e Event) map[string]any {
	return map[string]any{
		FieldName:        e.Name,
		FieldDescription: e.Description,
		FieldDateTime:    e.StartAt,
		FieldCategory:    string(e.Category),
		FieldIsPrivate:   e.IsPrivate,
	}
}

// FromSnapshot decodes a stored document. Timestamp fields may arrive as a
// native time value or as the store's wrapper type; both normalize the
// same way.
func FromSnapshot(snap docstore.Snapshot) (Event, error) {
	e := Event{ID: snap.ID}

	var ok bool

	if e.Name, ok = snap.Fields[FieldName].(string); !ok {
		return Event{}, fmt.Errorf("document %s: missing or invalid %q", snap.ID, FieldName)
	}

	e.Description, _ = snap.Fields[FieldDescription].(string)

	if e.StartAt, ok = docstore.AsTime(snap.Fields[FieldDateTime]); !ok {
		return Event{}, fmt.Errorf("document %s: missing or invalid %q", snap.ID, FieldDateTime)
	}

	category, _ := snap.Fields[FieldCategory].(string)
	e.Category = ParseCategory(category)

	e.IsPrivate, _ = snap.Fields[FieldIsPrivate].(bool)

	if e.OwnerID, ok = snap.Fields[FieldOwnerID].(string); !ok {
		return Event{}, fmt.Errorf("document %s: missing or invalid %q", snap.ID, FieldOwnerID)
	}

	if e.CreatedAt, ok = docstore.AsTime(snap.Fields[FieldCreatedAt]); !ok {
		return Event{}, fmt.Errorf("document %s: missing or invalid %q", snap.ID, FieldCreatedAt)
	}

	e.FavoritedBy = stringSet(snap.Fields[FieldFavoritedBy])

	return e, nil
}

func stringSet(v any) []string {
	switch sv := v.(type) {
	case []string:
		return append([]string{}, sv...)
	case []any:
		out := make([]string, 0, len(sv))
		for _, m := range sv {
			if s, ok := m.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
