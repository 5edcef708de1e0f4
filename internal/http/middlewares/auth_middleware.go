package middlewares

import (
	"net/http"
	"strings"

	"favehub/internal/auth"
	"favehub/internal/session"

	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

// SessionMiddleware resolves the request's session from a bearer token.
// Authentication itself is someone else's problem; this is only the thin
// session lookup the sync core assumes has already happened.
type SessionMiddleware struct {
	jwt TokenVerifier
}

func NewSessionMiddleware(jwt TokenVerifier) *SessionMiddleware {
	return &SessionMiddleware{jwt: jwt}
}

// Resolve attaches a session to every request: authenticated when a valid
// bearer token is present, anonymous otherwise. Routes that require a
// user layer RequireSession on top.
func (m *SessionMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := m.resolve(c)
		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), s))
		c.Next()
	}
}

func (m *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.FromContext(c.Request.Context())
		if !s.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Sign in to use this view",
				},
			})
			return
		}

		c.Next()
	}
}

func (m *SessionMiddleware) resolve(c *gin.Context) session.Session {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return session.Anonymous
	}

	raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if raw == "" {
		return session.Anonymous
	}

	claims, err := m.jwt.VerifyToken(raw)
	if err != nil {
		return session.Anonymous
	}

	return session.Static{User: session.User{ID: claims.UserID, Email: claims.Email}}
}
