package middleware

import (
	"github.com/ErlanBelekov/auth-starter/internal/reqctx"
	"github.com/gin-gonic/gin"
)

type LanguageResolver interface {
	Resolve(explicit, acceptLanguage string) string
}

// Language negotiates the response language from ?lang= and
// Accept-Language and stores it in the request context.
func Language(resolver LanguageResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := resolver.Resolve(c.Query("lang"), c.GetHeader("Accept-Language"))
		c.Request = c.Request.WithContext(reqctx.WithLanguage(c.Request.Context(), lang))
		c.Header("Content-Language", lang)
		c.Next()
	}
}
