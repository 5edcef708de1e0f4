package manage

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

var (
	ErrNoSelection          = errors.New("no event selected")
	ErrNotOwner             = errors.New("event is not owned by the current user")
	ErrConfirmationRequired = errors.New("delete requires confirmation")
)

// WriteError carries which operation failed so callers can surface the
// matching notice variant.
type WriteError struct {
	Op  string // create, update or delete
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("event %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient human-readable outcome. Notices are not queued; a
// new one replaces any prior unseen one.
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Text string     `json:"text"`
}

// Controller owns the selected-event state machine of the owner
// management view and the three write paths. Every successful write keeps
// the local mirror in sync without re-querying the catalog; every failed
// write leaves the mirror untouched.
type Controller struct {
	store  docstore.Store
	mirror *mirror.Events
	log    *slog.Logger

	mu       sync.Mutex
	selected *event.Event
	notice   *Notice
}

func NewController(store docstore.Store, m *mirror.Events, log *slog.Logger) *Controller {
	return &Controller{
		store:  store,
		mirror: m,
		log:    log,
	}
}

// Select moves the state machine to Some(event); the form binder reflects
// the record into editable fields from there.
func (c *Controller) Select(id string) (event.Event, error) {
	e, ok := c.mirror.Get(id)
	if !ok {
		return event.Event{}, event.ErrNotFound
	}

	c.mu.Lock()
	c.selected = &e
	c.mu.Unlock()

	return e, nil
}

// Cancel clears the selection without touching the record.
func (c *Controller) Cancel() {
	c.mu.Lock()
	c.selected = nil
	c.mu.Unlock()
}

func (c *Controller) Selected() (event.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected == nil {
		return event.Event{}, false
	}

	return *c.selected, true
}

// ConsumeNotice returns and clears the pending notice, if any.
func (c *Controller) ConsumeNotice() (Notice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.notice == nil {
		return Notice{}, false
	}

	n := *c.notice
	c.notice = nil

	return n, true
}

func (c *Controller) setNotice(kind NoticeKind, text string) {
	c.mu.Lock()
	c.notice = &Notice{Kind: kind, Text: text}
	c.mu.Unlock()
}

// Submit drives the form's write path: with no selection it creates a new
// event owned by the caller, with a selection it patches the full editable
// field set of the selected record.
func (c *Controller) Submit(ctx context.Context, ownerID string, req event.UpdateEventRequest) (event.Event, error) {
	c.mu.Lock()
	selected := c.selected
	c.mu.Unlock()

	if selected == nil {
		return c.create(ctx, ownerID, req)
	}

	return c.update(ctx, ownerID, *selected, req)
}

func (c *Controller) create(ctx context.Context, ownerID string, req event.UpdateEventRequest) (event.Event, error) {
	e := event.NewFromCreateRequest(event.CreateEventRequest(req), ownerID)

	id, err := c.store.Add(ctx, event.Collection, event.Fields(e))
	if err != nil {
		c.log.Error("event create failed", "err", err)
		c.setNotice(NoticeError, "Could not add event.")

		return event.Event{}, &WriteError{Op: "create", Err: err}
	}

	// append the assigned id to the mirror, no full reload
	e.ID = id
	c.mirror.Append(e)
	c.setNotice(NoticeSuccess, "Event added.")

	return e, nil
}

func (c *Controller) update(ctx context.Context, ownerID string, selected event.Event, req event.UpdateEventRequest) (event.Event, error) {
	if selected.OwnerID != ownerID {
		return event.Event{}, &WriteError{Op: "update", Err: ErrNotOwner}
	}

	merged := selected
	merged.Name = req.Name
	merged.Description = req.Description
	merged.StartAt = req.StartAt
	merged.Category = event.ParseCategory(req.Category)
	merged.IsPrivate = req.IsPrivate

	err := c.store.Update(ctx, event.Collection, merged.ID, event.EditableFields(merged))
	if err != nil {
		c.log.Error("event update failed", "id", merged.ID, "err", err)
		c.setNotice(NoticeError, "Could not update event.")

		if errors.Is(err, docstore.ErrNotFound) {
			err = event.ErrNotFound
		}

		return event.Event{}, &WriteError{Op: "update", Err: err}
	}

	// the mirror entry may have picked up favorite flips since selection;
	// keep its favoritedBy and only merge the editable fields
	if current, ok := c.mirror.Get(merged.ID); ok {
		merged.FavoritedBy = current.FavoritedBy
	}
	c.mirror.Replace(merged)

	// keep it selected so the save is reflected immediately
	c.mu.Lock()
	c.selected = &merged
	c.mu.Unlock()

	c.setNotice(NoticeSuccess, "Event updated.")

	return merged, nil
}

// Delete removes the selected record. The caller must pass an explicit
// confirmation; without it nothing is touched.
func (c *Controller) Delete(ctx context.Context, ownerID string, confirmed bool) error {
	c.mu.Lock()
	selected := c.selected
	c.mu.Unlock()

	if selected == nil {
		return &WriteError{Op: "delete", Err: ErrNoSelection}
	}

	if selected.OwnerID != ownerID {
		return &WriteError{Op: "delete", Err: ErrNotOwner}
	}

	if !confirmed {
		return &WriteError{Op: "delete", Err: ErrConfirmationRequired}
	}

	err := c.store.Delete(ctx, event.Collection, selected.ID)
	if err != nil {
		c.log.Error("event delete failed", "id", selected.ID, "err", err)
		c.setNotice(NoticeError, "Could not delete event.")

		if errors.Is(err, docstore.ErrNotFound) {
			err = event.ErrNotFound
		}

		return &WriteError{Op: "delete", Err: err}
	}

	c.mirror.Remove(selected.ID)

	c.mu.Lock()
	c.selected = nil
	c.mu.Unlock()

	c.setNotice(NoticeSuccess, "Event deleted.")

	return nil
}
