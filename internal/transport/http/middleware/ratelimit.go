package middleware

import (
	"net/http"
	"time"

	"github.com/ErlanBelekov/auth-starter/internal/apierror"
	"github.com/ErlanBelekov/auth-starter/internal/metrics"
	"github.com/ErlanBelekov/auth-starter/internal/transport/http/respond"
	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/gin-gonic/gin"
)

// RateLimit allows rps requests per second per client IP, with a burst of
// the same size. The client IP comes from gin, so it honours the engine's
// trusted proxy settings.
func RateLimit(rps float64, r *respond.Responder) gin.HandlerFunc {
	lmt := tollbooth.NewLimiter(rps, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetBurst(max(1, int(rps)))

	return func(c *gin.Context) {
		if httpErr := tollbooth.LimitByKeys(lmt, []string{c.ClientIP()}); httpErr != nil {
			metrics.RateLimitedTotal.Inc()
			r.Code(c, apierror.CodeRateLimited, http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
