package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"

	"dialaservice/internal/helpers"
	"dialaservice/internal/models"
)

// Context keys set by the middleware chain.
const (
	RequestIDKey   = "request_id"
	UserKey        = "user"
	AccessTokenKey = "access_token"
)

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
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

		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get(RequestIDKey)

		logger.Info("HTTP Request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// ErrorHandler logs errors attached with c.Error and answers 500 when the
// handler has not written a response itself.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		requestID, _ := c.Get(RequestIDKey)

		logger.Error("Request error",
			"request_id", requestID,
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		if c.Writer.Written() {
			return
		}
		// Don't return error details in production
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":    false,
			"error":      "Internal server error",
			"request_id": requestID,
		})
	}
}

// Sessions is what the auth guard needs from the user service.
type Sessions interface {
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
	GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error)
}

func unauthorized(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success":     false,
		"message":     "Unauthorized access",
		"error":       reason,
		"redirect_to": "/",
	})
}

func bearerToken(c *gin.Context) string {
	if token, err := c.Cookie(helpers.AccessTokenCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// AuthMiddleware validates the access token, refreshing it from the
// refresh_token cookie when it has expired, and loads the caller's role from
// the profiles table.
func AuthMiddleware(validator helpers.TokenValidator, sessions Sessions, secureCookies bool, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		var claims *helpers.CustomClaims
		reason := "JWT token not found"
		if token != "" {
			var err error
			if claims, err = validator.ValidateToken(token); err != nil {
				reason = err.Error()
			}
		}

		// The access cookie expires with the token, so a missing token still
		// gets a refresh attempt.
		if claims == nil {
			refreshToken, err := c.Cookie(helpers.RefreshTokenCookie)
			if err != nil || refreshToken == "" {
				unauthorized(c, reason)
				return
			}

			tokenRes, err := sessions.RefreshToken(c.Request.Context(), refreshToken)
			if err != nil || tokenRes == nil || tokenRes.AccessToken == "" {
				logger.Error("Token refresh failed", "error", err)
				unauthorized(c, "Token expired and refresh failed")
				return
			}
			logger.Info("Token refreshed successfully",
				"user_id", tokenRes.User.ID,
				"expires_in", tokenRes.ExpiresIn,
			)
			helpers.SetSessionCookies(c, tokenRes.AccessToken, tokenRes.ExpiresIn, tokenRes.RefreshToken, secureCookies)

			token = tokenRes.AccessToken
			if claims, err = validator.ValidateToken(token); err != nil {
				unauthorized(c, "Refreshed token validation failed")
				return
			}
		}

		enhanced := &helpers.EnhancedClaims{
			CustomClaims: claims,
			Role:         models.RoleGuest,
			UserID:       claims.Subject,
			Email:        claims.Email,
		}

		userID, parseErr := uuid.Parse(claims.Subject)
		if parseErr != nil {
			logger.Error("Invalid user ID in token", "user_id", claims.Subject, "error", parseErr)
		} else if user, err := sessions.GetUser(c.Request.Context(), userID, token); err != nil {
			// Accounts that have not filled in the account form yet fall back
			// to the role kept in auth metadata.
			logger.Info("Profile not found, using token role", "user_id", claims.Subject, "error", err)
			if role := claims.MetadataRole(); role != "" && role != models.RoleAdmin {
				enhanced.Role = role
			}
		} else {
			if user.Role != "" {
				enhanced.Role = user.Role
			}
			enhanced.Fullname = user.FullName
			enhanced.PhoneNumber = user.PhoneNumber
			enhanced.City = user.City
			enhanced.AvatarURL = user.AvatarURL
			enhanced.CreatedAt = user.CreatedAt.Format(time.RFC3339)
		}

		c.Set(UserKey, enhanced)
		c.Set(AccessTokenKey, token)
		c.Next()
	}
}

// RequireRole lets the request through only when the caller's profile role is
// one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(UserKey)
		claims, ok := value.(*helpers.EnhancedClaims)
		if !exists || !ok {
			unauthorized(c, "Unauthorized")
			return
		}
		for _, role := range roles {
			if claims.HasRole(role) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "Access denied",
		})
	}
}
