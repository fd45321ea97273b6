package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thaistayandfly/travel-itinerary/internal/domain"
	"github.com/thaistayandfly/travel-itinerary/internal/http/middleware"
)

// RespondDomainError maps domain errors to HTTP responses. Verification
// failures carry the upstream code plus a translation key so the client
// can show the localized message inline and retry.
func RespondDomainError(c *gin.Context, err error) {
	reqID := middleware.GetRequestID(c)

	if verr, ok := domain.IsVerification(err); ok {
		c.JSON(http.StatusForbidden, gin.H{
			"error":      verr.Error(),
			"code":       verr.Code,
			"messageKey": verr.MessageKey(),
			"retryable":  true,
			"request_id": reqID,
		})
		return
	}

	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(), "code": "validation_error", "request_id": reqID,
		})
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(), "code": "not_found", "request_id": reqID,
		})
	case domain.IsUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": err.Error(), "code": "unavailable", "request_id": reqID,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "internal error", "code": "internal_error", "request_id": reqID,
		})
	}
}
