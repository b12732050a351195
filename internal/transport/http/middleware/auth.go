package middleware

import (
	"strings"

	"github.com/ErlanBelekov/auth-starter/internal/reqctx"
	"github.com/ErlanBelekov/auth-starter/internal/token"
	"github.com/ErlanBelekov/auth-starter/internal/transport/http/respond"
	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie = "access_token"

	ContextUserID = "userID"
	ContextEmail  = "email"
)

type AccessTokenParser interface {
	ParseAccessToken(raw string) (*token.Claims, error)
}

// Auth validates the access token from the Authorization header, falling
// back to the access_token cookie, and sets "userID" in the gin context.
func Auth(parser AccessTokenParser, r *respond.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c)
		if raw == "" {
			raw, _ = c.Cookie(AccessTokenCookie)
		}
		if raw == "" {
			r.Unauthorized(c)
			return
		}

		claims, err := parser.ParseAccessToken(raw)
		if err != nil {
			r.Unauthorized(c)
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextEmail, claims.Email)
		c.Request = c.Request.WithContext(reqctx.WithUserID(c.Request.Context(), claims.Subject))
		c.Next()
	}
}

// BearerToken returns the token of an "Authorization: Bearer" header, or "".
func BearerToken(c *gin.Context) string {
	scheme, tok, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}
