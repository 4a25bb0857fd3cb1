package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/trip-hazards/internal/cleaning"
	"github.com/jengzang/trip-hazards/internal/kml"
	"github.com/jengzang/trip-hazards/internal/middleware"
	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/repository"
	"github.com/jengzang/trip-hazards/internal/service"
	"github.com/jengzang/trip-hazards/pkg/response"
)

// respondError maps err onto a status code. Anything unrecognized is logged
// and reported as a 500 with message.
func respondError(c *gin.Context, err error, message string) {
	var (
		tooLarge  *http.MaxBytesError
		rejection *cleaning.RejectionError
		malformed *models.MalformedSampleError
		parseErr  *kml.ParseError
	)

	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.As(err, &tooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, "Upload too large")
	case errors.As(err, &rejection):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, models.ErrEmptyInput),
		errors.Is(err, kml.ErrNoTrack),
		errors.As(err, &malformed),
		errors.As(err, &parseErr):
		response.BadRequest(c, err.Error())
	default:
		log.Printf("[API] %s: %v", message, err)
		_ = c.Error(err)
		response.InternalError(c, message)
	}
}

// parseID reads a numeric path parameter, answering 400 when it is not one.
func parseID(c *gin.Context, name, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid "+what+" ID")
		return 0, false
	}
	return id, true
}

// currentUser returns the authenticated subject, or fallback without auth.
func currentUser(c *gin.Context, fallback string) string {
	if user := c.GetString(middleware.UserKey); user != "" {
		return user
	}
	return fallback
}
