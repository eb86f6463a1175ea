package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/aestheticclinic/clinic-backend/internal/domain"
)

// respondError maps domain errors to client-facing statuses. Anything
// unrecognized is a storage or programming fault: logged, and returned as
// a generic 500 without leaking internals.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrSlotConflict), errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrOutsideAvailability),
		errors.Is(err, domain.ErrDayFullyBooked),
		errors.Is(err, domain.ErrConfirmedCannotCancel),
		errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		logger.WithFields(logrus.Fields{
			"Path":  c.FullPath(),
			"Error": err,
		}).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}

// pathID parses the numeric :id parameter.
func pathID(c *gin.Context) (uint, bool) {
	id, err := parseUint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
		return 0, false
	}
	return id, true
}
