package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const DefaultCookieName = "gtd_session"

// RenewedTokenHeader carries a renewed token for clients that authenticate
// with a bearer header instead of the cookie.
const RenewedTokenHeader = "X-Session-Token"

type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

func (cc CookieConfig) name() string {
	if strings.TrimSpace(cc.Name) == "" {
		return DefaultCookieName
	}
	return cc.Name
}

// Set writes the session cookie. It is HttpOnly and SameSite=Lax.
func (cc CookieConfig) Set(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cc.name(), token, maxAge, "/", cc.Domain, cc.Secure, true)
}

func (cc CookieConfig) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cc.name(), "", -1, "/", cc.Domain, cc.Secure, true)
}

// Token returns the bearer token if present, else the cookie value. The second
// result reports whether the token came from the cookie.
func (cc CookieConfig) Token(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:]), false
	}
	if v, err := c.Cookie(cc.name()); err == nil && v != "" {
		return v, true
	}
	return "", false
}
