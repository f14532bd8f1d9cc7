package handlers

import (
	"log"
	"net/http"

	"briar/internal/apperr"

	"github.com/gin-gonic/gin"
)

// Fail maps a service error to its HTTP status. Operational errors
// pass through with their message; anything unclassified is a 500 and
// the detail stays out of the response.
func Fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Forbidden:
		status = http.StatusForbidden
	case apperr.Conflict:
		status = http.StatusConflict
	case apperr.Validation:
		status = http.StatusUnprocessableEntity
	case apperr.BadRequest:
		status = http.StatusBadRequest
	default:
		log.Printf("Unexpected error: %v", err)
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
