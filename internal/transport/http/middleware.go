package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/minevox/minevox-server/internal/auth"
)

// ContextKeyUsername is the gin context key for the authenticated username.
const ContextKeyUsername = "username"

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AuthMiddleware validates bearer tokens when a secret is configured. With
// no secret the server is open and the middleware passes everything through.
// WebSocket clients that cannot set headers may send the token as a query
// parameter instead.
func AuthMiddleware(cfg *auth.Config, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled() {
			c.Next()
			return
		}

		token := bearerToken(c)
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			logger.Debug().Str("path", c.Request.URL.Path).Msg("missing token")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing token"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(cfg, token)
		if err != nil {
			logger.Debug().Err(err).Msg("invalid token")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextKeyUsername, claims.Username)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// LoggerMiddleware logs HTTP requests after they complete.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
