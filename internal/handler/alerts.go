package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetWatchlist(c *gin.Context) {
	items := h.monitor.Items()
	c.JSON(http.StatusOK, gin.H{"count": len(items), "items": items})
}

// GetAlerts returns the outcome of the last monitor cycle per watchlist item.
func (h *Handler) GetAlerts(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-alerts")
	defer span.End()

	statuses := h.monitor.Statuses()
	triggered := 0
	for _, s := range statuses {
		if s.Triggered {
			triggered++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     len(statuses),
		"triggered": triggered,
		"alerts":    statuses,
	})
}
