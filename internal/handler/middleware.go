package handler

import (
	"log"
	"strings"
	"time"

	"corebank/internal/service"
	"corebank/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserIDKey = "auth_user_id"
	ctxRolesKey  = "auth_roles"
)

// LoggerMiddleware logs one line per request.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if query != "" {
			path = path + "?" + query
		}

		log.Printf("[HTTP] %d | %13v | %15s | %-7s %s",
			status,
			latency,
			c.ClientIP(),
			c.Request.Method,
			path,
		)
	}
}

// RecoveryMiddleware keeps a handler panic from taking the process down.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[PANIC] %v", err)
				c.AbortWithStatusJSON(500, gin.H{
					"code":    500,
					"message": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// CORSMiddleware allows cross-origin API calls.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// AuthMiddleware validates the bearer token and, when requiredRoles is
// non-empty, requires at least one of them.
func AuthMiddleware(authService *service.AuthService, requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}

		claims, err := authService.ParseToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			response.Unauthorized(c, "malformed token subject")
			c.Abort()
			return
		}

		if len(requiredRoles) > 0 && !anyRole(claims.Roles, requiredRoles) {
			response.Forbidden(c, "insufficient role")
			c.Abort()
			return
		}

		c.Set(ctxUserIDKey, userID)
		c.Set(ctxRolesKey, claims.Roles)
		c.Next()
	}
}

func anyRole(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// currentUserID returns the authenticated user id set by AuthMiddleware.
func currentUserID(c *gin.Context) int64 {
	id, _ := c.Get(ctxUserIDKey)
	userID, _ := id.(int64)
	return userID
}

// hasRole reports whether the authenticated user carries the named role.
func hasRole(c *gin.Context, name string) bool {
	v, _ := c.Get(ctxRolesKey)
	roles, _ := v.([]string)
	for _, r := range roles {
		if r == name {
			return true
		}
	}
	return false
}
