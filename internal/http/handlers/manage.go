package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"favehub/internal/cache"
	"favehub/internal/catalog"
	"favehub/internal/docstore"
	"favehub/internal/domain/event"
	"favehub/internal/form"
	"favehub/internal/manage"
	"favehub/internal/mirror"
	"favehub/internal/session"

	"github.com/gin-gonic/gin"
)

// ManageHandler serves the owner management view. Each owner gets their
// own workspace: an owner-scoped mirror, a loader and a CRUD controller
// holding the selected-event state. The ownership scope is enforced at
// query time, never at display time.
// Workspaces are session state, so the map is capped: past the limit the
// least recently used one is dropped and rebuilt from a fresh load on
// that user's next request.
const defaultMaxWorkspaces = 1024

type ManageHandler struct {
	store       docstore.Store
	log         *slog.Logger
	browseCache *cache.Cache

	mu            sync.Mutex
	workspaces    map[string]*workspace
	maxWorkspaces int
}

type workspace struct {
	mirror     *mirror.Events
	loader     *catalog.Loader
	controller *manage.Controller
	lastUsed   time.Time
}

func NewManageHandler(store docstore.Store, log *slog.Logger, browseCache *cache.Cache) *ManageHandler {
	return &ManageHandler{
		store:         store,
		log:           log,
		browseCache:   browseCache,
		workspaces:    make(map[string]*workspace),
		maxWorkspaces: defaultMaxWorkspaces,
	}
}

func (h *ManageHandler) workspace(userID string) *workspace {
	h.mu.Lock()
	defer h.mu.Unlock()

	ws, ok := h.workspaces[userID]
	if !ok {
		if len(h.workspaces) >= h.maxWorkspaces {
			h.evictOldest()
		}

		m := mirror.New()
		ws = &workspace{
			mirror:     m,
			loader:     catalog.NewLoader(h.store, m, h.log),
			controller: manage.NewController(h.store, m, h.log),
		}
		h.workspaces[userID] = ws
	}

	ws.lastUsed = time.Now()

	return ws
}

// evictOldest drops the least recently used workspace, discarding that
// user's selection state. Callers hold the lock.
func (h *ManageHandler) evictOldest() {
	var oldestID string
	var oldest time.Time

	for id, ws := range h.workspaces {
		if oldestID == "" || ws.lastUsed.Before(oldest) {
			oldestID = id
			oldest = ws.lastUsed
		}
	}

	if oldestID != "" {
		delete(h.workspaces, oldestID)
	}
}

func currentUser(ctx *gin.Context) (session.User, bool) {
	return session.FromContext(ctx.Request.Context()).CurrentUser()
}

// formLocation resolves the wall-clock timezone the form renders in. The
// client names its zone; without one the form stays in UTC.
func formLocation(ctx *gin.Context) *time.Location {
	name := ctx.Query("tz")
	if name == "" {
		name = ctx.GetHeader("X-Timezone")
	}
	if name == "" {
		return time.UTC
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}

	return loc
}

// ListOwn handles GET /manage/events?category=&q=, always scoped to the
// caller's own records.
func (h *ManageHandler) ListOwn(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Sign in to manage events", nil)
		return
	}

	ws := h.workspace(user.ID)

	spec := catalog.Compose(catalog.OwnerScope(user.ID), catalog.Filters{
		Category:   ctx.Query("category"),
		SearchTerm: ctx.Query("q"),
	})

	events, err := ws.loader.Load(ctx.Request.Context(), spec)
	if err != nil {
		if errors.Is(err, catalog.ErrSuperseded) {
			events = ws.mirror.All()
		} else {
			RespondInternal(ctx, "Could not load your events")
			return
		}
	}

	resp := gin.H{"items": events, "count": len(events)}
	if selected, ok := ws.controller.Selected(); ok {
		resp["selected"] = selected.ID
	}

	ctx.JSON(http.StatusOK, resp)
}

// Select handles POST /manage/events/:id/select, moving the controller to
// edit mode and reflecting the record into form field values.
func (h *ManageHandler) Select(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Sign in to manage events", nil)
		return
	}

	ws := h.workspace(user.ID)

	e, err := ws.controller.Select(ctx.Param("id"))
	if err != nil {
		RespondNotFound(ctx, "Event not found")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"event":  e,
		"fields": form.FromEvent(e, formLocation(ctx)),
	})
}

// Cancel handles POST /manage/cancel, returning the form to create mode.
func (h *ManageHandler) Cancel(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Sign in to manage events", nil)
		return
	}

	h.workspace(user.ID).controller.Cancel()

	ctx.Status(http.StatusNoContent)
}

// Submit handles POST /manage/submit: the single reusable form's write
// path. With no selection it creates, with one it updates.
func (h *ManageHandler) Submit(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Sign in to manage events", nil)
		return
	}

	var fields form.Fields
	if !BindJSON(ctx, &fields) {
		return
	}

	req, err := fields.ToRequest(formLocation(ctx))
	if err != nil {
		RespondBadRequest(ctx, "Invalid form values", gin.H{"reason": err.Error()})
		return
	}

	if req.Name == "" {
		RespondBadRequest(ctx, "Invalid form values", gin.H{"fields": []FieldError{
			{Field: "name", Rule: "required", Message: "is required"},
		}})
		return
	}

	ws := h.workspace(user.ID)

	e, err := ws.controller.Submit(ctx.Request.Context(), user.ID, req)
	notice, _ := ws.controller.ConsumeNotice()

	if err != nil {
		if errors.Is(err, manage.ErrNotOwner) {
			RespondError(ctx, http.StatusForbidden, "forbidden", "Not your event", nil)
			return
		}
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}

		RespondError(ctx, http.StatusInternalServerError, "write_failed", notice.Text, nil)
		return
	}

	// the public browse listing is stale now
	if h.browseCache != nil {
		h.browseCache.Clear()
	}

	ctx.JSON(http.StatusOK, gin.H{"event": e, "notice": notice})
}

// Delete handles DELETE /manage/selected?confirm=true. Without the
// explicit confirmation nothing happens.
func (h *ManageHandler) Delete(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Sign in to manage events", nil)
		return
	}

	confirmed, _ := strconv.ParseBool(ctx.Query("confirm"))

	ws := h.workspace(user.ID)

	err := ws.controller.Delete(ctx.Request.Context(), user.ID, confirmed)
	notice, _ := ws.controller.ConsumeNotice()

	if err != nil {
		switch {
		case errors.Is(err, manage.ErrNoSelection):
			RespondBadRequest(ctx, "No event selected", nil)
		case errors.Is(err, manage.ErrConfirmationRequired):
			RespondBadRequest(ctx, "Deletion must be confirmed", nil)
		case errors.Is(err, manage.ErrNotOwner):
			RespondError(ctx, http.StatusForbidden, "forbidden", "Not your event", nil)
		case errors.Is(err, event.ErrNotFound):
			RespondNotFound(ctx, "Event not found")
		default:
			RespondError(ctx, http.StatusInternalServerError, "write_failed", notice.Text, nil)
		}
		return
	}

	if h.browseCache != nil {
		h.browseCache.Clear()
	}

	ctx.JSON(http.StatusOK, gin.H{"notice": notice})
}

// Notice handles GET /manage/notice, consuming the pending transient
// notice if any.
func (h *ManageHandler) Notice(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Sign in to manage events", nil)
		return
	}

	notice, ok := h.workspace(user.ID).controller.ConsumeNotice()
	if !ok {
		ctx.Status(http.StatusNoContent)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"notice": notice})
}
