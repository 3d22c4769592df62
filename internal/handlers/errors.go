package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"blockon/api/internal/middleware"
	"blockon/api/internal/service"
)

const internalMessage = "internal server error"

// statusFor maps service errors to a status code and a client-safe message.
// Anything unrecognised is an internal failure.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrDuplicateAccount):
		return http.StatusConflict, service.ErrDuplicateAccount.Error()
	case errors.Is(err, service.ErrEmailNotVerified):
		return http.StatusConflict, service.ErrEmailNotVerified.Error()
	case errors.Is(err, service.ErrAlreadyRegistered):
		return http.StatusConflict, service.ErrAlreadyRegistered.Error()
	case errors.Is(err, service.ErrAuthenticationFailed):
		return http.StatusForbidden, service.ErrAuthenticationFailed.Error()
	case errors.Is(err, service.ErrInvalidIdentity):
		return http.StatusBadRequest, service.ErrInvalidIdentity.Error()
	case errors.Is(err, service.ErrPasswordRequired):
		return http.StatusBadRequest, service.ErrPasswordRequired.Error()
	case errors.Is(err, service.ErrInvalidImage):
		return http.StatusBadRequest, service.ErrInvalidImage.Error()
	case errors.Is(err, service.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, service.ErrImageTooLarge.Error()
	case errors.Is(err, service.ErrChallengeThrottled):
		return http.StatusTooManyRequests, service.ErrChallengeThrottled.Error()
	case errors.Is(err, service.ErrDispatchFailed):
		return http.StatusBadGateway, service.ErrDispatchFailed.Error()
	case errors.Is(err, service.ErrTokenIssuanceFailed):
		return http.StatusInternalServerError, service.ErrTokenIssuanceFailed.Error()
	default:
		return http.StatusInternalServerError, internalMessage
	}
}

// respondError writes {message} for err and logs server-side failures.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).
			Str("route", c.FullPath()).
			Str("request_id", middleware.RequestIDFrom(c)).
			Msg("request failed")
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"message": message})
}
