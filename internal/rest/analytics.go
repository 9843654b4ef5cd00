package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chatri/govportal/analytics"
)

// AnalyticsSummary returns lifetime read totals per entity kind.
func (h *Handler) AnalyticsSummary(c *gin.Context) {
	totals, err := h.events.TotalsByKind(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"totals": totals})
}

// AnalyticsTop returns the most-read leaderboard, most recently read
// first.
func (h *Handler) AnalyticsTop(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	top, err := h.events.TopRecords(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": top})
}

// AnalyticsRecent returns the newest read events. The limit query
// parameter is clamped by the repository; junk input falls back to the
// default feed size.
func (h *Handler) AnalyticsRecent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	events, err := h.events.RecentEvents(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"limit":  analytics.ClampFeedLimit(limit),
		"events": events,
	})
}
