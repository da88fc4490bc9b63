package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"orderbackend/internal/apperrors"
	"orderbackend/internal/logging"
)

func requestLogger(c *gin.Context) *slog.Logger {
	return logging.FromContext(c.Request.Context(), slog.Default())
}

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		requestLogger(c).Error("panic recovered", "route", route, "panic", r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "detail": "internal server error"})
	}
}

func ensureDBConnection(ctx context.Context, ping func(context.Context) error) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return ping(checkCtx)
}

// respondWithError translates a service error into the error envelope.
func respondWithError(c *gin.Context, route string, err error) {
	status := apperrors.HTTPStatus(err)
	logger := requestLogger(c)
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "route", route, "status", status, "error", err)
	} else {
		logger.Warn("request error", "route", route, "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "detail": apperrors.Message(err)})
}

// respondWithBindError answers 400 with the first failing field.
func respondWithBindError(c *gin.Context, route string, err error) {
	respondWithError(c, route, apperrors.Validation("%s", bindErrorDetail(err)))
}

func bindErrorDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body: " + err.Error()
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must have length %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
