package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/trip-hazards/internal/service"
	"github.com/jengzang/trip-hazards/pkg/response"
)

// StatsHandler handles HTTP requests for statistics
type StatsHandler struct {
	hazardService *service.HazardService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(hazardService *service.HazardService) *StatsHandler {
	return &StatsHandler{hazardService: hazardService}
}

// GetTotals handles GET /api/v1/stats
func (h *StatsHandler) GetTotals(c *gin.Context) {
	totals, err := h.hazardService.Totals()
	if err != nil {
		respondError(c, err, "Failed to get statistics")
		return
	}

	response.Success(c, totals)
}
