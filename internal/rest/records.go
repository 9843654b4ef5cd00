package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/chatri/govportal/api"
	"github.com/chatri/govportal/content/application"
	"github.com/chatri/govportal/content/domain"
)

// ListRecords returns the publicly visible records of a collection, newest
// first.
func (h *Handler) ListRecords(c *gin.Context) {
	svc, ok := h.serviceFor(c)
	if !ok {
		return
	}

	records, err := svc.List(c.Request.Context(), false)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]*api.Record, 0, len(records))
	for _, r := range records {
		out = append(out, api.FromDomain(r))
	}
	c.JSON(http.StatusOK, out)
}

// GetRecord returns one visible record by slug. Hidden, scheduled,
// expired, and absent records all answer 404, so existence does not leak.
// A successful read is recorded in analytics, fire-and-forget.
func (h *Handler) GetRecord(c *gin.Context) {
	svc, ok := h.serviceFor(c)
	if !ok {
		return
	}

	record, err := svc.GetBySlug(c.Request.Context(), c.Param("slug"), false)
	if err != nil {
		writeError(c, err)
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}

	h.reads.LogRead(svc.Kind(), record.Slug, record.Title)

	c.JSON(http.StatusOK, h.present(record, c.Query("format")))
}

// present renders the wire form, optionally with the body expanded to
// HTML and paragraphs for page templates.
func (h *Handler) present(record *domain.Record, format string) *api.Record {
	out := api.FromDomain(record)
	if format != "html" {
		return out
	}

	html, err := h.renderer.Render(record.Content)
	if err != nil {
		// Rendering is best-effort; the raw body is still in the payload.
		log.Warn().Err(err).Str("slug", record.Slug).Msg("Failed to render record body")
		return out
	}
	out.ContentHTML = html
	out.Paragraphs = application.SplitParagraphs(record.Content)
	return out
}
