package middleware

import (
	"net/http"
	"strings"

	"github.com/waste3d/learnhub/pkg/course"
	"github.com/waste3d/learnhub/services/catalog/internal/application/usecase"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userId"
	ctxRole   = "role"
	ctxToken  = "token"
)

func AuthMiddleware(auth *usecase.AuthUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		userID, _ := claims.UserID()

		c.Set(ctxUserID, userID)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxToken, parts[1])

		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role course.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if Role(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: " + string(role) + "s only"})
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) uint {
	v, _ := c.Get(ctxUserID)
	id, _ := v.(uint)
	return id
}

func Role(c *gin.Context) course.Role {
	v, _ := c.Get(ctxRole)
	r, _ := v.(course.Role)
	return r
}

func Token(c *gin.Context) string {
	return c.GetString(ctxToken)
}
