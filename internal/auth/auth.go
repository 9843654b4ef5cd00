// Package auth implements the portal's single-admin session gate. One
// credential pair is configured; a successful login hands back a
// deterministic token derived from it. There are no per-user sessions,
// expiry, or roles.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the cookie the admin console stores its token in.
const SessionCookie = "portal_session"

// Gate validates the shared admin credential and the session token minted
// from it. The token is sha256("user:pass") in hex - deterministic and
// unsalted, so rotating either credential invalidates every session.
type Gate struct {
	username string
	password string
	token    string
}

func NewGate(username, password string) *Gate {
	sum := sha256.Sum256([]byte(username + ":" + password))
	return &Gate{
		username: username,
		password: password,
		token:    hex.EncodeToString(sum[:]),
	}
}

// Login checks the credential pair and returns the session token on
// success. Comparison is constant-time.
func (g *Gate) Login(username, password string) (string, bool) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	if !userOK || !passOK {
		return "", false
	}
	return g.token, true
}

// Valid reports whether token is the current session token.
func (g *Gate) Valid(token string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(g.token)) == 1
}

// Middleware rejects requests that carry neither a valid bearer token nor
// a valid session cookie. Handlers behind it may treat the caller as the
// admin identity.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.Valid(tokenFromRequest(c)) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
}

func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}
