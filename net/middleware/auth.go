// Package middleware provides the gin middleware used by apikit services:
// JWT authentication, request logging, and prometheus metrics.
package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mentorhub/apikit/logging/logger"
	"github.com/mentorhub/apikit/net/resp"
	"github.com/mentorhub/apikit/security/jwt"
)

// claimsKey is the gin context key under which validated claims are stored.
const claimsKey = "auth_claims"

// Auth authenticates requests with a Bearer token. Requests without a valid
// token are rejected with 401 and the handler chain is aborted.
func Auth(tm *jwt.TokenManager, log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.StdLogger()
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			log.Warn(c.Request.Context(), "Missing or invalid Authorization header", "path", c.Request.URL.Path)
			resp.Fail(c.Writer, resp.UnAuthorized("Missing or invalid Authorization header"))
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(header[len("Bearer "):])
		if tokenString == "" {
			log.Warn(c.Request.Context(), "Empty token in Authorization header", "path", c.Request.URL.Path)
			resp.Fail(c.Writer, resp.UnAuthorized("Empty token in Authorization header"))
			c.Abort()
			return
		}

		claims, err := tm.Validate(tokenString)
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				message = "Token has expired"
			}
			log.Warn(c.Request.Context(), message, "path", c.Request.URL.Path, "error", err)
			resp.Fail(c.Writer, resp.UnAuthorized(message))
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// Token returns the validated claims stored by Auth.
func Token(c *gin.Context) (jwt.Claims, bool) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(jwt.Claims)
	return claims, ok
}

// TokenDict renders the request identity in the shape the config endpoint
// and audit records expect.
func TokenDict(c *gin.Context) map[string]any {
	claims, _ := Token(c)
	roles := claims.Roles()
	if roles == nil {
		roles = []string{}
	}
	return map[string]any{
		"user_id":   claims.UserID(),
		"roles":     roles,
		"remote_ip": c.ClientIP(),
	}
}
