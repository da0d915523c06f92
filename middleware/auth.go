package middleware

import (
	"net/http"
	"os"
	"strings"

	"echonest/session"

	"github.com/gin-gonic/gin"
)

// JWTAuth validates the bearer token and attaches the session it carries to
// the request context, where the coordinators' session provider reads it.
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip middleware for OPTIONS requests (CORS preflight)
		if c.Request.Method == "OPTIONS" {
			c.Next()
			return
		}

		// Try the Authorization header first, then the query parameter
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			token := c.Query("token")
			if token == "" {
				c.JSON(http.StatusUnauthorized, gin.H{
					"error":   "Authentication required",
					"message": "No authorization token provided",
				})
				c.Abort()
				return
			}
			authHeader = "Bearer " + token
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid authorization header",
				"message": "Format should be: Bearer <token>",
			})
			c.Abort()
			return
		}

		sess, err := session.Parse(os.Getenv("JWT_SECRET"), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid token",
				"message": "Token validation failed",
			})
			c.Abort()
			return
		}

		c.Set("userId", sess.UserID)
		c.Request = c.Request.WithContext(session.NewContext(c.Request.Context(), sess))

		c.Next()
	}
}
