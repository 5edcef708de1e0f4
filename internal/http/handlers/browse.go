package handlers

import (
	"errors"
	"net/http"

	"favehub/internal/cache"
	"favehub/internal/catalog"
	"favehub/internal/domain/event"
	"favehub/internal/favorites"
	"favehub/internal/observability"
	"favehub/internal/session"
	"favehub/internal/utils"

	"github.com/gin-gonic/gin"
)

// BrowseHandler serves the public catalog view: scoped to non-private
// events, refined by category and search, newest first. The favorite
// reconciler layers the current user's membership on top.
type BrowseHandler struct {
	loader *catalog.Loader
	faves  *favorites.Reconciler
	cache  *cache.Cache
	prom   *observability.Prom
}

func NewBrowseHandler(loader *catalog.Loader, faves *favorites.Reconciler, c *cache.Cache, prom *observability.Prom) *BrowseHandler {
	return &BrowseHandler{
		loader: loader,
		faves:  faves,
		cache:  c,
		prom:   prom,
	}
}

type browseResponse struct {
	Items []event.Event `json:"items"`
	Count int           `json:"count"`
}

// ListEvents handles GET /events?category=&q=. Every call is an explicit
// reload intent; the composed query runs server side and the search term
// refines client side.
func (h *BrowseHandler) ListEvents(ctx *gin.Context) {
	filters := catalog.Filters{
		Category:   ctx.Query("category"),
		SearchTerm: ctx.Query("q"),
	}

	cacheKey := utils.BuildBrowseCacheKey(filters.Category, filters.SearchTerm)

	if h.cache != nil {
		if cached, ok := h.cache.Get(cacheKey); ok {
			if resp, ok := cached.(browseResponse); ok {
				h.respond(ctx, resp)
				return
			}
		}
	}

	spec := catalog.Compose(catalog.PublicScope(), filters)

	events, err := h.loader.Load(ctx.Request.Context(), spec)
	if err != nil {
		// a superseding load already produced newer state; serve that
		if errors.Is(err, catalog.ErrSuperseded) {
			h.respond(ctx, browseResponse{Items: h.loader.Mirror().All(), Count: h.loader.Mirror().Len()})
			return
		}

		RespondInternal(ctx, "Could not load events")
		return
	}

	resp := browseResponse{Items: events, Count: len(events)}

	if h.cache != nil {
		h.cache.Set(cacheKey, resp)
	}

	h.respond(ctx, resp)
}

func (h *BrowseHandler) respond(ctx *gin.Context, resp browseResponse) {
	s := session.FromContext(ctx.Request.Context())
	if user, ok := s.CurrentUser(); ok {
		h.faves.Rebuild(user.ID)
		RespondJSONWithETag(ctx, http.StatusOK, gin.H{
			"items":     resp.Items,
			"count":     resp.Count,
			"favorites": h.faves.Favorites(user.ID),
		})
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, resp)
}

// ToggleFavorite handles POST /events/:id/favorite. The flip is applied
// locally before the remote patch; a failed patch is compensated and
// surfaced.
func (h *BrowseHandler) ToggleFavorite(ctx *gin.Context) {
	user, ok := session.FromContext(ctx.Request.Context()).CurrentUser()
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Sign in to favorite events", nil)
		return
	}

	on, err := h.faves.Toggle(ctx.Request.Context(), user.ID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}

		if h.prom != nil {
			h.prom.ToggleResults.WithLabelValues("rolled_back").Inc()
		}
		RespondError(ctx, http.StatusBadGateway, "toggle_failed", "Could not save favorite, change was undone", nil)
		return
	}

	if h.prom != nil {
		h.prom.ToggleResults.WithLabelValues("committed").Inc()
	}

	// cached listings embed favoritedBy; drop them so the next read
	// reflects the flip instead of contradicting the favorites index
	if h.cache != nil {
		h.cache.Clear()
	}

	ctx.JSON(http.StatusOK, gin.H{"favorited": on})
}

// ListFavorites handles GET /favorites: the mirrored events the current
// user has favorited.
func (h *BrowseHandler) ListFavorites(ctx *gin.Context) {
	user, ok := session.FromContext(ctx.Request.Context()).CurrentUser()
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Sign in to see favorites", nil)
		return
	}

	items := make([]event.Event, 0)
	for _, e := range h.loader.Mirror().All() {
		if e.IsFavoritedBy(user.ID) {
			items = append(items, e)
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}
