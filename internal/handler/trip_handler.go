package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/service"
	"github.com/jengzang/trip-hazards/pkg/response"
)

// TripHandler handles HTTP requests for trips
type TripHandler struct {
	service        *service.TripService
	maxUploadBytes int64
	bestWorkers    int
}

// NewTripHandler creates a new trip handler
func NewTripHandler(service *service.TripService, maxUploadBytes int64, bestWorkers int) *TripHandler {
	return &TripHandler{service: service, maxUploadBytes: maxUploadBytes, bestWorkers: bestWorkers}
}

// GetTrips handles GET /api/v1/trips
func (h *TripHandler) GetTrips(c *gin.Context) {
	var filter models.TripFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	trips, err := h.service.GetTrips(filter)
	if err != nil {
		respondError(c, err, "Failed to get trips")
		return
	}

	response.Success(c, trips)
}

// GetTripByID handles GET /api/v1/trips/:id
func (h *TripHandler) GetTripByID(c *gin.Context) {
	id, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	trip, err := h.service.GetTripByID(id)
	if err != nil {
		respondError(c, err, "Failed to get trip")
		return
	}

	response.Success(c, trip)
}

// GetTripPath handles GET /api/v1/trips/:id/path
func (h *TripHandler) GetTripPath(c *gin.Context) {
	id, ok := parseID(c, "id", "trip")
	if !ok {
		return
	}

	path, err := h.service.GetPath(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get trip path")
		return
	}

	response.Success(c, gin.H{"trip_id": id, "samples": path})
}

// UploadTrip handles POST /api/v1/trips
//
// The trip is read from a multipart "file" field or else from the raw body.
// Query parameters: batch, name, format (kml|nmea), clean (bool).
func (h *TripHandler) UploadTrip(c *gin.Context) {
	clean, err := strconv.ParseBool(c.DefaultQuery("clean", "false"))
	if err != nil {
		response.BadRequest(c, "Invalid clean parameter")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	opts := service.ImportOptions{
		BatchID: c.Query("batch"),
		Name:    c.Query("name"),
		Format:  c.Query("format"),
		Clean:   clean,
		Source:  "upload",
	}

	var body io.Reader = c.Request.Body
	if c.ContentType() == "multipart/form-data" {
		file, err := c.FormFile("file")
		if err != nil {
			respondError(c, fmt.Errorf("%w: missing file field", service.ErrInvalidArgument), "Failed to read upload")
			return
		}
		f, err := file.Open()
		if err != nil {
			respondError(c, err, "Failed to read upload")
			return
		}
		defer f.Close()
		body = f
		opts.Source = file.Filename
	}

	trip, err := h.service.Import(body, opts)
	if err != nil {
		respondError(c, err, "Failed to import trip")
		return
	}

	response.Created(c, trip)
}

// ImportBatchRequest represents the request body for a server-side batch import
type ImportBatchRequest struct {
	Dir   string `json:"dir" binding:"required"`
	Clean bool   `json:"clean"`
}

// ImportBatch handles POST /api/admin/batches
func (h *TripHandler) ImportBatch(c *gin.Context) {
	var req ImportBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.service.ImportDirectory(req.Dir, req.Clean)
	if err != nil {
		respondError(c, err, "Failed to import batch")
		return
	}

	response.Created(c, result)
}

// GetBestTrip handles GET /api/v1/batches/:batch/best
func (h *TripHandler) GetBestTrip(c *gin.Context) {
	workers := h.bestWorkers
	if raw := c.Query("workers"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(c, "Invalid workers parameter")
			return
		}
		workers = n
	}

	best, err := h.service.BestInBatch(c.Request.Context(), c.Param("batch"), workers)
	if err != nil {
		respondError(c, err, "Failed to choose best trip")
		return
	}

	response.Success(c, best)
}

// GetBatchStats handles GET /api/v1/batches/:batch/stats
func (h *TripHandler) GetBatchStats(c *gin.Context) {
	summary, err := h.service.BatchStats(c.Param("batch"))
	if err != nil {
		respondError(c, err, "Failed to get batch statistics")
		return
	}

	response.Success(c, summary)
}
