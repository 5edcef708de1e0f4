package mirror

import (
	"testing"
	"time"

	"favehub/internal/domain/event"
)

func sample(id, name string) event.Event {
	return event.Event{
		ID:        id,
		Name:      name,
		StartAt:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Category:  event.CategoryOther,
		CreatedAt: time.Now().UTC(),
	}
}

func TestReplaceAllPreservesOrder(t *testing.T) {
	m := New()
	m.ReplaceAll([]event.Event{sample("a", "First"), sample("b", "Second"), sample("c", "Third")})

	got := m.All()
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].ID != want {
			t.Fatalf("order[%d] = %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestReplaceAllDetachesFromCallerSlice(t *testing.T) {
	src := []event.Event{sample("a", "First")}
	m := New()
	m.ReplaceAll(src)

	src[0].Name = "Mutated"

	got, _ := m.Get("a")
	if got.Name != "First" {
		t.Fatal("mirror aliases the caller's slice")
	}
}

func TestAllReturnsCopy(t *testing.T) {
	m := New()
	m.ReplaceAll([]event.Event{sample("a", "First")})

	out := m.All()
	out[0].Name = "Mutated"

	got, _ := m.Get("a")
	if got.Name != "First" {
		t.Fatal("All leaks internal storage")
	}
}

func TestReplaceAndRemove(t *testing.T) {
	m := New()
	m.ReplaceAll([]event.Event{sample("a", "First"), sample("b", "Second")})

	updated := sample("b", "Renamed")
	if !m.Replace(updated) {
		t.Fatal("Replace reported miss for mirrored id")
	}
	if got, _ := m.Get("b"); got.Name != "Renamed" {
		t.Fatalf("entry %+v", got)
	}

	if m.Replace(sample("zzz", "Ghost")) {
		t.Fatal("Replace reported hit for unknown id")
	}

	if !m.Remove("a") {
		t.Fatal("Remove reported miss for mirrored id")
	}
	if m.Len() != 1 {
		t.Fatalf("len = %d", m.Len())
	}
	if _, ok := m.Get("a"); ok {
		t.Fatal("removed entry still present")
	}
	if m.Remove("a") {
		t.Fatal("second Remove reported hit")
	}
}

func TestSetFavorite(t *testing.T) {
	m := New()
	m.ReplaceAll([]event.Event{sample("a", "First")})

	if !m.SetFavorite("a", "u1", true) {
		t.Fatal("flip reported miss")
	}
	if got, _ := m.Get("a"); !got.IsFavoritedBy("u1") {
		t.Fatal("membership not added")
	}

	// adding twice keeps a single membership
	m.SetFavorite("a", "u1", true)
	if got, _ := m.Get("a"); len(got.FavoritedBy) != 1 {
		t.Fatalf("favoritedBy = %v", got.FavoritedBy)
	}

	m.SetFavorite("a", "u2", true)
	m.SetFavorite("a", "u1", false)

	got, _ := m.Get("a")
	if got.IsFavoritedBy("u1") || !got.IsFavoritedBy("u2") {
		t.Fatalf("favoritedBy = %v", got.FavoritedBy)
	}

	// removing an absent member is a quiet no-op
	if !m.SetFavorite("a", "stranger", false) {
		t.Fatal("no-op removal reported miss")
	}

	if m.SetFavorite("nope", "u1", true) {
		t.Fatal("flip on unknown id reported hit")
	}
}
