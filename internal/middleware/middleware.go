package middleware

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/majdjoubi/halqa/internal/helpers"
	"github.com/majdjoubi/halqa/internal/models"
	"github.com/majdjoubi/halqa/internal/services"
)

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		requestID, _ := c.Get("request_id")

		logger.Info("HTTP Request",
			"request_id", requestID,
			"method", method,
			"path", path,
			"status", statusCode,
			"latency", latency,
			"client_ip", clientIP,
		)
	}
}

// ErrorHandler provides centralized error handling
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			requestID, _ := c.Get("request_id")

			logger.Error("Request error",
				"request_id", requestID,
				"error", err.Error(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)

			// Don't return error details in production
			c.JSON(500, gin.H{
				"error":      "Internal server error",
				"request_id": requestID,
			})
		}
	}
}

// AuthMiddleware resolves the access token cookie into a Principal and
// attaches it to the request context. An expired token is transparently
// refreshed from the refresh token cookie when possible.
func AuthMiddleware(authService *services.AuthService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "Unauthorized access",
				"error":   "access token not found in cookie",
			})
			c.Abort()
			return
		}

		session, err := authService.SessionFor(c.Request.Context(), token)
		if err != nil {
			refreshToken, refreshErr := c.Cookie("refresh_token")
			if refreshErr != nil {
				c.JSON(http.StatusUnauthorized, gin.H{
					"message": "Unauthorized access",
					"error":   "invalid or expired token",
				})
				c.Abort()
				return
			}

			result, refreshErr := authService.Refresh(c.Request.Context(), refreshToken)
			if refreshErr != nil {
				logger.Error("Token refresh failed", "error", refreshErr)
				c.JSON(http.StatusUnauthorized, gin.H{
					"message": "Unauthorized access",
					"error":   "token expired and refresh failed",
				})
				c.Abort()
				return
			}

			logger.Info("Token refreshed successfully",
				"user_id", result.Identity.ID,
				"expires_in", result.Tokens.ExpiresIn,
			)
			SetAuthCookies(c, result.Tokens.AccessToken, result.Tokens.RefreshToken, result.Tokens.ExpiresIn)
			token = result.Tokens.AccessToken

			session, err = authService.SessionFor(c.Request.Context(), token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{
					"message": "Unauthorized access",
					"error":   "refreshed token validation failed",
				})
				c.Abort()
				return
			}
		}

		principal := &helpers.Principal{
			UserID:          session.ID,
			Email:           session.Email,
			Role:            string(session.Role),
			Name:            session.Profile.Name(),
			ProfileImageURL: session.Profile.ImageURL(),
			HasProfile:      session.Profile != nil,
		}

		c.Set("user", principal)
		c.Set("access_token", token)
		c.Next()
	}
}

// SetAuthCookies writes the access and refresh token cookies the way the
// sign-in handler does, so refreshed sessions look identical to fresh ones.
func SetAuthCookies(c *gin.Context, accessToken, refreshToken string, expiresIn int) {
	isProduction := os.Getenv("GIN_MODE") == "production"

	c.SetCookie(
		"access_token",
		accessToken,
		expiresIn,
		"/",
		"", // let Gin pick current domain
		isProduction,
		true,
	)
	c.SetCookie(
		"refresh_token",
		refreshToken,
		3600*24*30, // 30 days
		"/",
		"",
		isProduction,
		true,
	)
}

// ClearAuthCookies expires both auth cookies.
func ClearAuthCookies(c *gin.Context) {
	isProduction := os.Getenv("GIN_MODE") == "production"
	c.SetCookie("access_token", "", -1, "/", "", isProduction, true)
	c.SetCookie("refresh_token", "", -1, "/", "", isProduction, true)
}

// RequireRole aborts with 403 unless the principal carries the given role.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, exists := c.Get("user")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		principal, ok := claims.(*helpers.Principal)
		if !ok || !principal.HasRole(string(role)) {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}
