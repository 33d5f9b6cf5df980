package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/pkg/apperrors"
	"github.com/gtech-mulearn/mulearn/internal/pkg/auth"
)

// Context keys set by JWTAuth
const (
	ContextUserID = "userID"
	ContextMUID   = "muid"
	ContextRoles  = "roles"
	ContextClaims = "claims"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.Trim(c.GetHeader("Authorization"), "\"' ")
		if authHeader == "" {
			unauthorized(c, "Authentication required")
			return
		}

		var tokenString string
		// Swagger UI users often paste the raw token without a scheme
		if strings.Count(authHeader, ".") == 2 && !strings.Contains(authHeader, " ") {
			tokenString = authHeader
		} else {
			var err error
			tokenString, err = auth.ExtractBearerToken(authHeader)
			if err != nil {
				unauthorized(c, "Invalid token format")
				return
			}
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Token has expired"
			}
			unauthorized(c, msg)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextMUID, claims.MUID)
		c.Set(ContextRoles, claims.Roles)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}

// RoleRequired lets the request through when the token carries any of roles
func (m *AuthMiddleware) RoleRequired(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			unauthorized(c, "Authentication required")
			return
		}

		if !claims.HasRole(roles...) {
			HandleAPIError(c, apperrors.NewCustomError(apperrors.ErrPermissionDenied,
				"You don't have sufficient permissions for this operation"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserID returns the authenticated user's id, empty when JWTAuth did not run
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// GetClaims returns the claims stored by JWTAuth
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, exists := c.Get(ContextClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(http.StatusUnauthorized, msg))
}
