package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"blockon/api/internal/security"
)

const (
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "access_token"

	claimsKey = "decoded"
)

// Auth verifies the session token from the access_token cookie or an
// Authorization bearer header and exposes the decoded claims. A cookie that
// fails verification does not hide a valid bearer token.
func Auth(tokens *security.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		candidates := tokenCandidates(c)
		if len(candidates) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
			return
		}

		for _, tokenStr := range candidates {
			claims, err := tokens.Parse(tokenStr)
			if err != nil {
				continue
			}
			c.Set(claimsKey, *claims)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
	}
}

// Claims returns the session claims stored by Auth.
func Claims(c *gin.Context) (security.SessionClaims, bool) {
	val, ok := c.Get(claimsKey)
	if !ok {
		return security.SessionClaims{}, false
	}
	claims, ok := val.(security.SessionClaims)
	return claims, ok
}

// tokenCandidates lists the presented tokens, cookie first.
func tokenCandidates(c *gin.Context) []string {
	var out []string
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		out = append(out, cookie)
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		if bearer := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")); bearer != "" {
			out = append(out, bearer)
		}
	}
	return out
}
