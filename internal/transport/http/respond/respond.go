// Package respond writes JSON success and error bodies in the caller's
// language. Handlers and middleware share one Responder.
package respond

import (
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/auth-starter/internal/apierror"
	"github.com/ErlanBelekov/auth-starter/internal/domain"
	"github.com/ErlanBelekov/auth-starter/internal/i18n"
	"github.com/ErlanBelekov/auth-starter/internal/reqctx"
	"github.com/gin-gonic/gin"
)

type Responder struct {
	builder *apierror.Builder
	logger  *slog.Logger
}

func New(builder *apierror.Builder, logger *slog.Logger) *Responder {
	return &Responder{builder: builder, logger: logger.With("component", "http_errors")}
}

// Error aborts the request with the envelope for err. Errors that map to
// SYSTEM.INTERNAL_ERROR are logged; their text never reaches the client.
func (r *Responder) Error(c *gin.Context, err error) {
	apiErr := r.builder.FromError(Language(c), err)
	if apiErr.Code == apierror.CodeInternal {
		r.logger.ErrorContext(c.Request.Context(), "unhandled error",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", apiErr.Status,
			"code", apiErr.Code,
			"error", err,
		)
	}
	c.AbortWithStatusJSON(apiErr.Status, apiErr)
}

// Code aborts the request with a known error code.
func (r *Responder) Code(c *gin.Context, code string, status int) {
	c.AbortWithStatusJSON(status, r.builder.New(Language(c), code, status))
}

// Notice writes {"message": ...} with the notice rendered in the caller's
// language.
func (r *Responder) Notice(c *gin.Context, status int, n domain.Notice) {
	c.JSON(status, gin.H{"message": r.builder.Message(Language(c), string(n))})
}

func (r *Responder) Unauthorized(c *gin.Context) {
	r.Code(c, apierror.CodeUnauthorized, http.StatusUnauthorized)
}

// Language is the language negotiated for this request.
func Language(c *gin.Context) string {
	if lang := reqctx.Language(c.Request.Context()); lang != "" {
		return lang
	}
	return i18n.DefaultLanguage
}
