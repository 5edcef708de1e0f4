package event

import (
	"testing"
	"time"

	"favehub/internal/docstore"
)

func TestFieldsIncludesFullDocument(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	created := time.Date(2025, 2, 20, 8, 0, 0, 0, time.UTC)

	e := Event{
		ID:          "ignored-on-write",
		Name:        "Jazz Night",
		Description: "Late set",
		StartAt:     start,
		Category:    CategoryMusic,
		IsPrivate:   true,
		OwnerID:     "owner-1",
		CreatedAt:   created,
		FavoritedBy: []string{"u1"},
	}

	fields := Fields(e)

	if fields[FieldName] != "Jazz Night" || fields[FieldCategory] != "Music" {
		t.Fatalf("fields %+v", fields)
	}
	if fields[FieldOwnerID] != "owner-1" || fields[FieldCreatedAt] != created {
		t.Fatalf("fields %+v", fields)
	}
	if fields[FieldIsPrivate] != true {
		t.Fatalf("isPrivate = %v", fields[FieldIsPrivate])
	}

	// the stored set is detached from the event's slice
	fields[FieldFavoritedBy].([]string)[0] = "swapped"
	if e.FavoritedBy[0] != "u1" {
		t.Fatal("Fields aliases the event's favorites slice")
	}
}

func TestEditableFieldsExcludesImmutables(t *testing.T) {
	e := Event{
		Name:        "Jazz Night",
		OwnerID:     "owner-1",
		CreatedAt:   time.Now().UTC(),
		FavoritedBy: []string{"u1"},
	}

	fields := EditableFields(e)

	for _, banned := range []string{FieldOwnerID, FieldCreatedAt, FieldFavoritedBy} {
		if _, ok := fields[banned]; ok {
			t.Fatalf("editable patch carries %q", banned)
		}
	}
	if len(fields) != 5 {
		t.Fatalf("editable field count = %d", len(fields))
	}
}

func TestFromSnapshot(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	created := time.Date(2025, 2, 20, 8, 0, 0, 0, time.UTC)

	// native times and wrapper timestamps decode identically
	tests := []struct {
		name   string
		fields map[string]any
	}{
		{
			name: "native_times",
			fields: map[string]any{
				FieldName:        "Jazz Night",
				FieldDescription: "Late set",
				FieldDateTime:    start,
				FieldCategory:    "Music",
				FieldIsPrivate:   true,
				FieldOwnerID:     "owner-1",
				FieldCreatedAt:   created,
				FieldFavoritedBy: []string{"u1", "u2"},
			},
		},
		{
			name: "wrapper_timestamps_and_json_set",
			fields: map[string]any{
				FieldName:        "Jazz Night",
				FieldDescription: "Late set",
				FieldDateTime:    docstore.NewTimestamp(start),
				FieldCategory:    "Music",
				FieldIsPrivate:   true,
				FieldOwnerID:     "owner-1",
				FieldCreatedAt:   docstore.NewTimestamp(created),
				FieldFavoritedBy: []any{"u1", "u2"},
			},
		},
		{
			name: "rfc3339_strings",
			fields: map[string]any{
				FieldName:        "Jazz Night",
				FieldDescription: "Late set",
				FieldDateTime:    "2025-03-01T10:00:00Z",
				FieldCategory:    "Music",
				FieldIsPrivate:   true,
				FieldOwnerID:     "owner-1",
				FieldCreatedAt:   "2025-02-20T08:00:00Z",
				FieldFavoritedBy: []any{"u1", "u2"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := FromSnapshot(docstore.Snapshot{ID: "e1", Fields: tt.fields})
			if err != nil {
				t.Fatalf("FromSnapshot: %v", err)
			}

			if e.ID != "e1" || e.Name != "Jazz Night" || e.Category != CategoryMusic {
				t.Fatalf("event %+v", e)
			}
			if !e.StartAt.Equal(start) || !e.CreatedAt.Equal(created) {
				t.Fatalf("times %v / %v", e.StartAt, e.CreatedAt)
			}
			if !e.IsPrivate || e.OwnerID != "owner-1" {
				t.Fatalf("event %+v", e)
			}
			if len(e.FavoritedBy) != 2 || !e.IsFavoritedBy("u2") {
				t.Fatalf("favoritedBy %v", e.FavoritedBy)
			}
		})
	}
}

func TestFromSnapshotDefaults(t *testing.T) {
	e, err := FromSnapshot(docstore.Snapshot{ID: "e1", Fields: map[string]any{
		FieldName:      "Bare",
		FieldDateTime:  time.Now().UTC(),
		FieldOwnerID:   "owner-1",
		FieldCreatedAt: time.Now().UTC(),
		FieldCategory:  "Gardening",
	}})
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}

	// unknown categories collapse to Other, a missing set decodes empty
	if e.Category != CategoryOther {
		t.Fatalf("category = %q", e.Category)
	}
	if e.FavoritedBy == nil || len(e.FavoritedBy) != 0 {
		t.Fatalf("favoritedBy %#v", e.FavoritedBy)
	}
	if e.IsPrivate {
		t.Fatal("missing isPrivate decoded as true")
	}
}

func TestFromSnapshotRejectsBrokenDocuments(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"missing_name", map[string]any{FieldDateTime: now, FieldOwnerID: "o", FieldCreatedAt: now}},
		{"missing_datetime", map[string]any{FieldName: "X", FieldOwnerID: "o", FieldCreatedAt: now}},
		{"missing_owner", map[string]any{FieldName: "X", FieldDateTime: now, FieldCreatedAt: now}},
		{"bad_created_at", map[string]any{FieldName: "X", FieldDateTime: now, FieldOwnerID: "o", FieldCreatedAt: 12345}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromSnapshot(docstore.Snapshot{ID: "e1", Fields: tt.fields}); err == nil {
				t.Fatal("expected decode error")
			}
		})
	}
}

func TestNewFromCreateRequest(t *testing.T) {
	req := CreateEventRequest{
		Name:     "Fresh",
		StartAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Category: "Social",
	}

	e := NewFromCreateRequest(req, "owner-1")

	if e.OwnerID != "owner-1" || e.Category != CategorySocial {
		t.Fatalf("event %+v", e)
	}
	if e.CreatedAt.IsZero() || e.CreatedAt.Location() != time.UTC {
		t.Fatalf("createdAt %v", e.CreatedAt)
	}
	if e.FavoritedBy == nil || len(e.FavoritedBy) != 0 {
		t.Fatalf("favoritedBy %#v", e.FavoritedBy)
	}
}
