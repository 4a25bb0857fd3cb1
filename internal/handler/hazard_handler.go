package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/trip-hazards/internal/service"
	"github.com/jengzang/trip-hazards/pkg/response"
)

// Content types of the rendered documents
const (
	ContentTypeKML     = "application/vnd.google-earth.kml+xml"
	ContentTypeGeoJSON = "application/geo+json"
)

// HazardHandler handles HTTP requests for trip hazards
type HazardHandler struct {
	service *service.HazardService
}

// NewHazardHandler creates a new hazard handler
func NewHazardHandler(service *service.HazardService) *HazardHandler {
	return &HazardHandler{service: service}
}

// GetHazards handles GET /api/v1/trips/:id/hazards
//
// format=geojson returns a FeatureCollection of the trip line and its
// hazards; simplify sets the line tolerance in meters.
func (h *HazardHandler) GetHazards(c *gin.Context) {
	id, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		hazards, err := h.service.GetHazards(id)
		if err != nil {
			respondError(c, err, "Failed to get hazards")
			return
		}
		response.Success(c, gin.H{"trip_id": id, "hazards": hazards})

	case "geojson":
		tolerance, err := strconv.ParseFloat(c.DefaultQuery("simplify", "0"), 64)
		if err != nil || tolerance < 0 {
			response.BadRequest(c, "Invalid simplify parameter")
			return
		}
		r, err := h.service.RenderGeoJSON(c.Request.Context(), id, tolerance)
		if err != nil {
			respondError(c, err, "Failed to render hazards")
			return
		}
		data, err := r.MarshalJSON()
		if err != nil {
			respondError(c, err, "Failed to render hazards")
			return
		}
		c.Data(http.StatusOK, ContentTypeGeoJSON, data)

	default:
		response.BadRequest(c, "Invalid format parameter")
	}
}

// GetHazardsKML handles GET /api/v1/trips/:id/hazards.kml
func (h *HazardHandler) GetHazardsKML(c *gin.Context) {
	id, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.RenderKML(c.Request.Context(), &buf, id); err != nil {
		respondError(c, err, "Failed to render hazards")
		return
	}

	c.Header("Content-Disposition", "attachment; filename=trip-"+strconv.FormatInt(id, 10)+".kml")
	c.Data(http.StatusOK, ContentTypeKML, buf.Bytes())
}

// DetectHazards handles POST /api/v1/trips/:id/hazards
func (h *HazardHandler) DetectHazards(c *gin.Context) {
	id, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	hazards, err := h.service.DetectForTrip(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to detect hazards")
		return
	}

	response.Success(c, gin.H{"trip_id": id, "hazards": hazards})
}
