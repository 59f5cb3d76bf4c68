package http

import (
	"errors"
	"net/http"

	"livequiz-service/internal/domain"
	"livequiz-service/internal/logger"
	"github.com/gin-gonic/gin"
)

// statusFor maps use case errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidAnswer):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrPlayerNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyAnswered),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrJoinClosed),
		errors.Is(err, domain.ErrAnsweringClosed),
		errors.Is(err, domain.ErrLifelineUsed),
		errors.Is(err, domain.ErrLifelineUnavailable),
		errors.Is(err, domain.ErrQuizExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDailyLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// clientError is the message a caller may see; internal failures stay in the log.
func clientError(err error) (int, errorBody) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		return status, errorBody{Error: "internal error"}
	}
	body := errorBody{Error: err.Error()}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
		body.Error = ve.Message
	}
	return status, body
}

func writeError(c *gin.Context, err error) {
	status, body := clientError(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, body)
}
