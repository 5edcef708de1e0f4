package http

import (
	"log/slog"
	"os"
	"time"

	"favehub/internal/auth"
	"favehub/internal/cache"
	"favehub/internal/catalog"
	"favehub/internal/docstore"
	"favehub/internal/favorites"
	"favehub/internal/http/handlers"
	"favehub/internal/http/middlewares"
	"favehub/internal/mirror"
	"favehub/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Log            *slog.Logger
	Store          docstore.Store
	JWT            *auth.Manager
	Prom           *observability.Prom
	BrowseCacheTTL time.Duration
	AllowedOrigins []string
	Ping           func() error
}

func NewRouter(deps Deps) *gin.Engine {
	if os.Getenv("APP_ENV") != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(deps.Log))
	r.Use(middlewares.SecurityHeaders())
	if len(deps.AllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(deps.AllowedOrigins))
	}
	r.Use(otelgin.Middleware("favehub"))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	sessionMW := middlewares.NewSessionMiddleware(deps.JWT)
	r.Use(sessionMW.Resolve())

	// health + metrics
	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// the shared public browse view: one mirror, one loader, one
	// reconciler; per-user favorite indexes live inside the reconciler
	browseMirror := mirror.New()
	browseLoader := catalog.NewLoader(deps.Store, browseMirror, deps.Log)
	reconciler := favorites.NewReconciler(deps.Store, browseMirror, deps.Log)
	browseCache := cache.New(deps.BrowseCacheTTL)

	browseHandler := handlers.NewBrowseHandler(browseLoader, reconciler, browseCache, deps.Prom)
	manageHandler := handlers.NewManageHandler(deps.Store, deps.Log, browseCache)

	// public browse
	r.GET("/events", browseHandler.ListEvents)

	// favorites require a session
	authed := r.Group("/", sessionMW.RequireSession())
	authed.POST("/events/:id/favorite", browseHandler.ToggleFavorite)
	authed.GET("/favorites", browseHandler.ListFavorites)

	// owner management view
	mgmt := r.Group("/manage", sessionMW.RequireSession())
	mgmt.GET("/events", manageHandler.ListOwn)
	mgmt.POST("/events/:id/select", manageHandler.Select)
	mgmt.POST("/cancel", manageHandler.Cancel)
	mgmt.POST("/submit", manageHandler.Submit)
	mgmt.DELETE("/selected", manageHandler.Delete)
	mgmt.GET("/notice", manageHandler.Notice)

	return r
}
