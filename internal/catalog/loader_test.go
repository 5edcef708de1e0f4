package catalog

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"favehub/internal/docstore"
	"favehub/internal/docstore/memory"
	"favehub/internal/domain/event"
	"favehub/internal/mirror"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fake store implementation of the docstore.Store interface

type fakeStore struct {
	queryFn func(ctx context.Context, collection string, predicates []docstore.Predicate, orderBy *docstore.OrderBy) ([]docstore.Snapshot, error)
}

func (f *fakeStore) Query(ctx context.Context, collection string, predicates []docstore.Predicate, orderBy *docstore.OrderBy) ([]docstore.Snapshot, error) {
	if f.queryFn != nil {
		return f.queryFn(ctx, collection, predicates, orderBy)
	}
	return []docstore.Snapshot{}, nil
}

func (f *fakeStore) GetByID(ctx context.Context, collection, id string) (docstore.Snapshot, error) {
	return docstore.Snapshot{}, docstore.ErrNotFound
}

func (f *fakeStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return errors.New("not implemented")
}

func (f *fakeStore) Delete(ctx context.Context, collection, id string) error {
	return errors.New("not implemented")
}

func (f *fakeStore) PatchSet(ctx context.Context, collection, id, field string, op docstore.SetOp, value string) error {
	return errors.New("not implemented")
}

func snapshotOf(e event.Event) docstore.Snapshot {
	return docstore.Snapshot{ID: e.ID, Fields: event.Fields(e)}
}

func TestLoadReplacesMirror(t *testing.T) {
	now := time.Now().UTC()

	a := event.Event{ID: "a", Name: "Go Meetup", OwnerID: "u1", Category: event.CategorySocial, CreatedAt: now}
	b := event.Event{ID: "b", Name: "Jazz Night", OwnerID: "u2", Category: event.CategoryMusic, CreatedAt: now.Add(-time.Hour)}

	store := &fakeStore{
		queryFn: func(ctx context.Context, collection string, predicates []docstore.Predicate, orderBy *docstore.OrderBy) ([]docstore.Snapshot, error) {
			if collection != event.Collection {
				t.Fatalf("queried collection %q", collection)
			}
			return []docstore.Snapshot{snapshotOf(a), snapshotOf(b)}, nil
		},
	}

	m := mirror.New()
	m.ReplaceAll([]event.Event{{ID: "stale", Name: "Old", OwnerID: "u", CreatedAt: now}})

	l := NewLoader(store, m, testLogger())

	got, err := l.Load(context.Background(), Compose(PublicScope(), Filters{}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("got %+v", got)
	}

	if m.Len() != 2 {
		t.Fatalf("mirror not replaced, len=%d", m.Len())
	}
	if _, ok := m.Get("stale"); ok {
		t.Fatal("stale entry survived the replacement")
	}
}

func TestLoadFailurePreservesMirror(t *testing.T) {
	now := time.Now().UTC()

	store := &fakeStore{
		queryFn: func(ctx context.Context, collection string, predicates []docstore.Predicate, orderBy *docstore.OrderBy) ([]docstore.Snapshot, error) {
			return nil, errors.New("connectivity")
		},
	}

	m := mirror.New()
	m.ReplaceAll([]event.Event{{ID: "keep", Name: "Keeper", OwnerID: "u", CreatedAt: now}})

	l := NewLoader(store, m, testLogger())

	_, err := l.Load(context.Background(), Compose(PublicScope(), Filters{}))

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}

	if _, ok := m.Get("keep"); !ok {
		t.Fatal("previous mirror state was discarded on failure")
	}
}

func TestLoadDecodeFailure(t *testing.T) {
	store := &fakeStore{
		queryFn: func(ctx context.Context, collection string, predicates []docstore.Predicate, orderBy *docstore.OrderBy) ([]docstore.Snapshot, error) {
			return []docstore.Snapshot{{ID: "broken", Fields: map[string]any{"name": 42}}}, nil
		},
	}

	l := NewLoader(store, mirror.New(), testLogger())

	_, err := l.Load(context.Background(), Compose(PublicScope(), Filters{}))

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
}

func TestLoadInFlightIndicator(t *testing.T) {
	store := &fakeStore{}
	l := NewLoader(store, mirror.New(), testLogger())

	store.queryFn = func(ctx context.Context, collection string, predicates []docstore.Predicate, orderBy *docstore.OrderBy) ([]docstore.Snapshot, error) {
		// raised before the remote call begins
		if !l.Loading() {
			t.Error("Loading() false during query")
		}
		return []docstore.Snapshot{}, nil
	}

	if _, err := l.Load(context.Background(), Compose(PublicScope(), Filters{})); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if l.Loading() {
		t.Fatal("Loading() still true after load finished")
	}
}

func TestLoadSupersession(t *testing.T) {
	now := time.Now().UTC()

	first := event.Event{ID: "first", Name: "First", OwnerID: "u", CreatedAt: now}
	second := event.Event{ID: "second", Name: "Second", OwnerID: "u", CreatedAt: now}

	release := make(chan struct{})
	started := make(chan struct{})
	calls := 0

	store := &fakeStore{}
	m := mirror.New()
	l := NewLoader(store, m, testLogger())

	store.queryFn = func(ctx context.Context, collection string, predicates []docstore.Predicate, orderBy *docstore.OrderBy) ([]docstore.Snapshot, error) {
		calls++
		if calls == 1 {
			close(started)
			<-release // hold the first load on the wire
			return []docstore.Snapshot{snapshotOf(first)}, nil
		}
		return []docstore.Snapshot{snapshotOf(second)}, nil
	}

	firstDone := make(chan error, 1)

	go func() {
		_, err := l.Load(context.Background(), Compose(PublicScope(), Filters{}))
		firstDone <- err
	}()

	<-started

	// the second load is issued while the first is still in flight
	got, err := l.Load(context.Background(), Compose(PublicScope(), Filters{}))
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "second" {
		t.Fatalf("second load got %+v", got)
	}

	close(release)

	if err := <-firstDone; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("first load err = %v, want ErrSuperseded", err)
	}

	// the stale first result must not have overwritten the newer state
	if _, ok := m.Get("second"); !ok {
		t.Fatal("mirror lost the latest load's result")
	}
	if _, ok := m.Get("first"); ok {
		t.Fatal("superseded load committed its result")
	}
}

func seedMemoryStore(t *testing.T, events ...event.Event) *memory.Store {
	t.Helper()

	store := memory.New()
	for _, e := range events {
		if _, err := store.Add(context.Background(), event.Collection, event.Fields(e)); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	return store
}

func TestPublicBrowseExcludesPrivate(t *testing.T) {
	now := time.Now().UTC()

	a := event.Event{Name: "A", OwnerID: "u1", Category: event.CategoryMusic, IsPrivate: false, CreatedAt: now}
	b := event.Event{Name: "B", OwnerID: "u2", Category: event.CategorySports, IsPrivate: true, CreatedAt: now.Add(time.Minute)}

	store := seedMemoryStore(t, a, b)

	tests := []struct {
		name     string
		category string
	}{
		{name: "category_music", category: "Music"},
		{name: "category_all", category: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader(store, mirror.New(), testLogger())

			got, err := l.Load(context.Background(), Compose(PublicScope(), Filters{Category: tt.category}))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}

			// B matches "All" by category but must stay invisible for
			// being private
			if len(got) != 1 || got[0].Name != "A" {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestOwnerScopedCategoryQuery(t *testing.T) {
	now := time.Now().UTC()

	events := []event.Event{
		{Name: "Mine Sports", OwnerID: "me", Category: event.CategorySports, CreatedAt: now},
		{Name: "Mine Music", OwnerID: "me", Category: event.CategoryMusic, CreatedAt: now},
		{Name: "Theirs Sports", OwnerID: "them", Category: event.CategorySports, CreatedAt: now},
	}

	store := seedMemoryStore(t, events...)

	for _, category := range []string{"Sports", "Music", "Social", "Other"} {
		t.Run(category, func(t *testing.T) {
			l := NewLoader(store, mirror.New(), testLogger())

			got, err := l.Load(context.Background(), Compose(OwnerScope("me"), Filters{Category: category}))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}

			for _, e := range got {
				if e.OwnerID != "me" {
					t.Fatalf("foreign event leaked into owner scope: %+v", e)
				}
				if string(e.Category) != category {
					t.Fatalf("category filter leaked %+v", e)
				}
			}
		})
	}
}

func TestLoadOrdersNewestFirst(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	store := seedMemoryStore(t,
		event.Event{Name: "oldest", OwnerID: "u", CreatedAt: base},
		event.Event{Name: "newest", OwnerID: "u", CreatedAt: base.Add(2 * time.Hour)},
		event.Event{Name: "middle", OwnerID: "u", CreatedAt: base.Add(time.Hour)},
	)

	l := NewLoader(store, mirror.New(), testLogger())

	got, err := l.Load(context.Background(), Compose(OwnerScope("u"), Filters{}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(got) != 3 || got[0].Name != "newest" || got[1].Name != "middle" || got[2].Name != "oldest" {
		t.Fatalf("got order %v %v %v", got[0].Name, got[1].Name, got[2].Name)
	}
}
