package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"soko_backend/internal/auth"
	"soko_backend/internal/models"
)

const (
	ctxExternalID = "externalID"
	ctxEmail      = "email"
	ctxRole       = "role"
)

// AuthMiddleware verifies the bearer token and stores the caller identity
// in the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing or invalid"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.ParseToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ctxExternalID, claims.ExternalID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// RequireRoles aborts unless the caller holds one of the given roles.
// It runs before the handler touches any data.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		role, ok := CallerRole(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: no role"})
			return
		}

		if !roleSet[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: insufficient permissions"})
			return
		}

		c.Next()
	}
}

// AdminOnly gates every verification, listing, download and migration
// operation.
func AdminOnly() gin.HandlerFunc {
	return RequireRoles(models.UserRoleAdmin)
}

// CallerRole extracts the caller's role from the request context.
func CallerRole(c *gin.Context) (models.UserRole, bool) {
	roleVal, exists := c.Get(ctxRole)
	if !exists {
		return "", false
	}

	role, ok := roleVal.(models.UserRole)
	if !ok {
		roleStr, isString := roleVal.(string)
		if !isString {
			return "", false
		}
		role = models.UserRole(roleStr)
	}
	return role, true
}

// CallerEmail extracts the caller's email from the request context.
func CallerEmail(c *gin.Context) string {
	email, exists := c.Get(ctxEmail)
	if !exists {
		return ""
	}
	s, _ := email.(string)
	return s
}

// CallerExternalID extracts the identity provider subject.
func CallerExternalID(c *gin.Context) string {
	id, exists := c.Get(ctxExternalID)
	if !exists {
		return ""
	}
	s, _ := id.(string)
	return s
}
