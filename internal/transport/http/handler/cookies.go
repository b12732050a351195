package handler

import (
	"net/http"
	"time"

	"github.com/ErlanBelekov/auth-starter/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

const (
	refreshTokenCookie = "refresh_token"
	oauthStateCookie   = "oauth_state"

	accessCookieMaxAge = 24 * time.Hour
	oauthStateMaxAge   = 10 * time.Minute

	refreshCookiePath = "/auth"
)

// CookieConfig controls the flags of every cookie the API sets.
type CookieConfig struct {
	Domain     string
	Secure     bool
	RefreshTTL time.Duration
}

// Production cookies are sent cross-site to the frontend, which requires
// SameSite=None and therefore Secure.
func (cc CookieConfig) sameSite() http.SameSite {
	if cc.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (cc CookieConfig) set(c *gin.Context, name, value, path string, maxAge time.Duration) {
	c.SetSameSite(cc.sameSite())
	c.SetCookie(name, value, int(maxAge.Seconds()), path, cc.Domain, cc.Secure, true)
}

func (cc CookieConfig) clear(c *gin.Context, name, path string) {
	c.SetSameSite(cc.sameSite())
	c.SetCookie(name, "", -1, path, cc.Domain, cc.Secure, true)
}

func (cc CookieConfig) setSession(c *gin.Context, accessToken, refreshToken string) {
	cc.set(c, middleware.AccessTokenCookie, accessToken, "/", accessCookieMaxAge)
	cc.set(c, refreshTokenCookie, refreshToken, refreshCookiePath, cc.RefreshTTL)
}

func (cc CookieConfig) clearSession(c *gin.Context) {
	cc.clear(c, middleware.AccessTokenCookie, "/")
	cc.clear(c, refreshTokenCookie, refreshCookiePath)
}
