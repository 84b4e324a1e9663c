package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"bookingrule/internal/app/bookingwindow"
	"bookingrule/internal/app/middleware"
	"bookingrule/internal/domain/availability"
	"bookingrule/internal/domain/shared/daterange"
)

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, bookingwindow.ErrSessionNotFound), errors.Is(err, availability.ErrRangeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, availability.ErrOverlappingRange),
		errors.Is(err, availability.ErrConcurrentUpdate),
		errors.Is(err, bookingwindow.ErrSessionConflict):
		status = http.StatusConflict
	case errors.Is(err, middleware.ErrValidation),
		errors.Is(err, daterange.ErrParse),
		errors.Is(err, daterange.ErrInvalidDate),
		errors.Is(err, daterange.ErrInvalidRange):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
