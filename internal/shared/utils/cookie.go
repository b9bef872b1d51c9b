package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blink-inc/blink/internal/shared/config"
)

// SetCeremonyCookie stores a ceremony id in an HttpOnly cookie that lives as long
// as the challenge it refers to.
func SetCeremonyCookie(c *gin.Context, cookieConfig config.CookieConfig, name, ceremonyID string, ttl time.Duration) {
	c.SetSameSite(parseSameSite(cookieConfig.SameSite))
	c.SetCookie(
		name,
		ceremonyID,
		int(ttl.Seconds()),
		cookiePath(cookieConfig),
		cookieConfig.Domain,
		cookieConfig.Secure,
		true, // HttpOnly
	)
}

// ClearCeremonyCookie expires a ceremony cookie once the ceremony is consumed.
func ClearCeremonyCookie(c *gin.Context, cookieConfig config.CookieConfig, name string) {
	c.SetSameSite(parseSameSite(cookieConfig.SameSite))
	c.SetCookie(
		name,
		"",
		-1,
		cookiePath(cookieConfig),
		cookieConfig.Domain,
		cookieConfig.Secure,
		true,
	)
}

// CeremonyIDFromCookie returns the ceremony id stored under name, or "".
func CeremonyIDFromCookie(c *gin.Context, name string) string {
	v, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return v
}

func cookiePath(cookieConfig config.CookieConfig) string {
	if cookieConfig.Path == "" {
		return "/"
	}
	return cookieConfig.Path
}

// parseSameSite converts string to http.SameSite. Ceremony cookies default to Strict.
func parseSameSite(sameSite string) http.SameSite {
	switch sameSite {
	case "Lax":
		return http.SameSiteLaxMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}
