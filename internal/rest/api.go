// Package rest wires the portal's HTTP surface: the public content API,
// the token-gated admin console API, and static serving of uploads.
package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/chatri/govportal/analytics"
	"github.com/chatri/govportal/content/application"
	"github.com/chatri/govportal/content/domain"
	"github.com/chatri/govportal/internal/auth"
	"github.com/chatri/govportal/internal/blobstore"
)

// URL path segments for the two collections.
const (
	pathNews          = "news"
	pathAnnouncements = "announcements"
)

type Handler struct {
	services map[string]*application.Service
	reads    *analytics.ReadLogger
	events   analytics.EventRepository
	blobs    *blobstore.Store
	gate     *auth.Gate
	renderer application.BodyRenderer
}

func NewHandler(
	news *application.Service,
	announcements *application.Service,
	reads *analytics.ReadLogger,
	events analytics.EventRepository,
	blobs *blobstore.Store,
	gate *auth.Gate,
	renderer application.BodyRenderer,
) *Handler {
	return &Handler{
		services: map[string]*application.Service{
			pathNews:          news,
			pathAnnouncements: announcements,
		},
		reads:    reads,
		events:   events,
		blobs:    blobs,
		gate:     gate,
		renderer: renderer,
	}
}

// Register attaches every route to the engine.
func (h *Handler) Register(router *gin.Engine) {
	public := router.Group("/api")
	{
		public.GET("/:kind", h.ListRecords)
		public.GET("/:kind/:slug", h.GetRecord)
	}

	router.POST("/admin/api/login", h.Login)

	admin := router.Group("/admin/api", h.gate.Middleware())
	{
		admin.GET("/:kind", h.AdminListRecords)
		admin.GET("/:kind/:slug", h.AdminGetRecord)
		admin.POST("/:kind", h.CreateRecord)
		admin.PUT("/:kind/:slug", h.UpdateRecord)
		admin.DELETE("/:kind/:slug", h.DeleteRecord)

		admin.POST("/uploads", h.Upload)

		admin.GET("/analytics/summary", h.AnalyticsSummary)
		admin.GET("/analytics/top", h.AnalyticsTop)
		admin.GET("/analytics/recent", h.AnalyticsRecent)
	}

	router.Static(blobstore.PublicPrefix, h.blobs.Dir())
}

// serviceFor resolves the :kind path segment. Unknown kinds abort with 404.
func (h *Handler) serviceFor(c *gin.Context) (*application.Service, bool) {
	svc, ok := h.services[c.Param("kind")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
		return nil, false
	}
	return svc, true
}

// writeError maps the content error taxonomy onto status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
