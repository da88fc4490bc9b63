package middleware

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"orderbackend/internal/apperrors"
	"orderbackend/internal/logging"
)

const ClaimsKey = "claims"

func abortAuth(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"success": false, "detail": apperrors.Message(err)})
}

// AuthGuard accepts HS256 bearer tokens signed with secret whose claims satisfy allow.
func AuthGuard(secret string, logger *slog.Logger, allow func(jwt.MapClaims) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logging.FromContext(c.Request.Context(), logger)

		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			abortAuth(c, apperrors.Unauthorized("missing token"))
			return
		}

		parts := strings.Fields(raw)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortAuth(c, apperrors.Unauthorized("invalid token"))
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			log.Warn("token validation failed", "error", err)
			abortAuth(c, apperrors.Unauthorized("unauthorized"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortAuth(c, apperrors.Unauthorized("unauthorized"))
			return
		}

		if allow != nil && !allow(claims) {
			log.Warn("token lacks required role", "sub", claims["sub"])
			abortAuth(c, apperrors.Forbidden("forbidden"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// IsAdmin accepts role "admin" or a true is_admin flag.
func IsAdmin(claims jwt.MapClaims) bool {
	if role, _ := claims["role"].(string); role == "admin" {
		return true
	}
	isAdmin, _ := claims["is_admin"].(bool)
	return isAdmin
}

func AdminAuth(secret string, logger *slog.Logger) gin.HandlerFunc {
	return AuthGuard(secret, logger, IsAdmin)
}
