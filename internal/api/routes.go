package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/models"
)

// RouteHandler serves route queries.
type RouteHandler struct {
	svc RouteFinder
	log *logrus.Logger
}

// NewRouteHandler creates a RouteHandler.
func NewRouteHandler(svc RouteFinder, log *logrus.Logger) *RouteHandler {
	return &RouteHandler{svc: svc, log: log}
}

// FindPath handles GET /find-path/:latitude/:longitude[/:runs].
//
// Unparsable or out-of-range input is answered with 200 and an empty route
// rather than an error status; clients rely on that shape.
func (h *RouteHandler) FindPath(c *gin.Context) {
	lat, okLat := parseCoordinate(c.Param("latitude"))
	lon, okLon := parseCoordinate(c.Param("longitude"))
	runs, okRuns := parseRuns(c.Param("runs"), h.svc.DefaultRuns())

	if !okLat || !okLon || !okRuns {
		h.log.WithFields(logrus.Fields{
			"latitude":  c.Param("latitude"),
			"longitude": c.Param("longitude"),
			"runs":      c.Param("runs"),
		}).Debug("find-path: unparsable input")

		c.JSON(http.StatusOK, models.EmptyRoute().Result())

		return
	}

	route, err := h.svc.FindPath(c.Request.Context(), lat, lon, runs)
	if err != nil {
		h.log.WithError(err).Error("find-path failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "route search failed")

		return
	}

	c.JSON(http.StatusOK, route.Result())
}
