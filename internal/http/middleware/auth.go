package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ramtsps/Art-Academy-Website/internal/jwt"
)

const sessionClaimsKey = "sessionClaims"

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(token string) (*jwt.SessionClaims, error)
}

// Auth validates the Authorization header and attaches claims.
type Auth struct {
	Verifier TokenVerifier
}

// RequireToken ensures the request carries a valid bearer token.
func (m *Auth) RequireToken(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "No token provided"})
		return
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "No token provided"})
		return
	}

	claims, err := m.Verifier.VerifyToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid token"})
		return
	}
	c.Set(sessionClaimsKey, claims)
	c.Next()
}

// GetSessionClaims exposes verified session claims to handlers.
func GetSessionClaims(c *gin.Context) (*jwt.SessionClaims, bool) {
	value, ok := c.Get(sessionClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*jwt.SessionClaims)
	return claims, ok
}
