package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"favehub/internal/docstore"
	"favehub/internal/domain/event"
	"favehub/internal/mirror"
)

// ErrSuperseded marks a load whose result was discarded because a newer
// load was issued before this one resolved.
var ErrSuperseded = errors.New("load superseded by a newer request")

// LoadError wraps any query or decode failure. The previous mirror state
// is always preserved on failure; the caller surfaces a generic notice and
// may retry by reissuing the triggering intent.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("catalog load: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader executes composed query specs and maintains the mirror. Reloads
// are explicit: callers invoke Load on discrete intents (view mounted,
// category changed, search submitted). Concurrent loads race, so each one
// takes a monotonically increasing token and only the latest issued may
// commit its result; stale resolvers discard theirs.
type Loader struct {
	store  docstore.Store
	mirror *mirror.Events
	log    *slog.Logger

	mu       sync.Mutex
	inFlight int
	token    uint64
}

func NewLoader(store docstore.Store, m *mirror.Events, log *slog.Logger) *Loader {
	return &Loader{
		store:  store,
		mirror: m,
		log:    log,
	}
}

// Mirror exposes the collection this loader maintains.
func (l *Loader) Mirror() *mirror.Events {
	return l.mirror
}

// Loading reports whether any load is still in flight.
func (l *Loader) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.inFlight > 0
}

// Load executes the spec, decodes the result, applies the client-side
// search refinement and replaces the mirror wholesale. The in-flight
// indicator is raised before the remote call and lowered on every exit.
func (l *Loader) Load(ctx context.Context, spec Spec) ([]event.Event, error) {
	l.mu.Lock()
	l.token++
	tok := l.token
	l.inFlight++
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.inFlight--
		l.mu.Unlock()
	}()

	snaps, err := l.store.Query(ctx, event.Collection, spec.Predicates, &spec.Order)
	if err != nil {
		l.log.Error("catalog query failed", "err", err)
		return nil, &LoadError{Err: err}
	}

	events := make([]event.Event, 0, len(snaps))
	for _, snap := range snaps {
		e, derr := event.FromSnapshot(snap)
		if derr != nil {
			l.log.Error("catalog snapshot decode failed", "id", snap.ID, "err", derr)
			return nil, &LoadError{Err: derr}
		}
		events = append(events, e)
	}

	events = spec.Refine(events)

	l.mu.Lock()
	defer l.mu.Unlock()

	if tok != l.token {
		// a newer load was issued while this one was on the wire
		l.log.Debug("catalog load superseded", "token", tok, "latest", l.token)
		return nil, ErrSuperseded
	}

	l.mirror.ReplaceAll(events)

	return events, nil
}
