package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"favehub/internal/docstore"
	"favehub/internal/domain/event"
	"favehub/internal/mirror"
)

// ToggleError wraps a failed remote set-patch. By the time the caller sees
// it the optimistic local flip has already been rolled back.
type ToggleError struct {
	EventID string
	Err     error
}

func (e *ToggleError) Error() string {
	return fmt.Sprintf("favorite toggle for %s: %v", e.EventID, e.Err)
}

func (e *ToggleError) Unwrap() error {
	return e.Err
}

// Reconciler keeps the per-user favorites index consistent with the
// remote documents. A toggle is two-phase: flip locally first so the UI
// never waits on the store, then send the matching atomic set-patch. The
// patch is add/remove only, never a full-field overwrite, so concurrent
// togglers on other users' sessions cannot lose updates. If the patch
// fails the local flip is compensated and the failure returned.
type Reconciler struct {
	store  docstore.Store
	mirror *mirror.Events
	log    *slog.Logger

	mu    sync.RWMutex
	index map[string]map[string]struct{} // userID -> favorited event ids
}

func NewReconciler(store docstore.Store, m *mirror.Events, log *slog.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		mirror: m,
		log:    log,
		index:  make(map[string]map[string]struct{}),
	}
}

// IsFavorite is a pure local read against the index.
func (r *Reconciler) IsFavorite(userID, eventID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.index[userID][eventID]

	return ok
}

// Favorites returns the ids the user has favorited among mirrored events.
func (r *Reconciler) Favorites(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.index[userID]))
	for id := range r.index[userID] {
		out = append(out, id)
	}

	return out
}

// Rebuild derives the user's index from the mirrored collection. Called
// after a catalog load replaces the mirror.
func (r *Reconciler) Rebuild(userID string) {
	set := make(map[string]struct{})
	for _, e := range r.mirror.All() {
		if e.IsFavoritedBy(userID) {
			set[e.ID] = struct{}{}
		}
	}

	r.mu.Lock()
	r.index[userID] = set
	r.mu.Unlock()
}

// Toggle flips the user's membership bit for one event. The returned bool
// is the new membership state after a successful toggle.
func (r *Reconciler) Toggle(ctx context.Context, userID, eventID string) (bool, error) {
	e, ok := r.mirror.Get(eventID)
	if !ok {
		return false, &ToggleError{EventID: eventID, Err: event.ErrNotFound}
	}

	// membership comes from the local mirror, no round trip
	on := !e.IsFavoritedBy(userID)

	// phase one: optimistic flip of both the index and the mirrored event
	r.flip(userID, eventID, on)
	r.mirror.SetFavorite(eventID, userID, on)

	op := docstore.SetRemove
	if on {
		op = docstore.SetAdd
	}

	// phase two: the matching remote set-patch
	err := r.store.PatchSet(ctx, event.Collection, eventID, event.FieldFavoritedBy, op, userID)
	if err != nil {
		// compensate: undo the flip so local state never silently diverges
		r.flip(userID, eventID, !on)
		r.mirror.SetFavorite(eventID, userID, !on)
		r.log.Error("favorite patch failed, rolled back", "event_id", eventID, "user_id", userID, "err", err)

		return !on, &ToggleError{EventID: eventID, Err: err}
	}

	return on, nil
}

func (r *Reconciler) flip(userID, eventID string, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.index[userID]
	if set == nil {
		set = make(map[string]struct{})
		r.index[userID] = set
	}

	if on {
		set[eventID] = struct{}{}
	} else {
		delete(set, eventID)
	}
}
