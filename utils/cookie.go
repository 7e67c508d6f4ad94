package utils

import (
	"time"

	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/gofiber/fiber/v2"
)

func authCookie(name, value string, ttl time.Duration) *fiber.Cookie {
	prod := config.IsProduction()
	cookie := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   prod,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if prod {
		cookie.SameSite = fiber.CookieSameSiteNoneMode
		cookie.Domain = config.Config("COOKIE_DOMAIN")
	}
	if ttl > 0 {
		cookie.Expires = time.Now().Add(ttl)
		cookie.MaxAge = int(ttl.Seconds())
	} else {
		cookie.Expires = time.Unix(0, 0)
		cookie.MaxAge = -1
	}
	return cookie
}

func SetAccessCookie(c *fiber.Ctx, role models.Role, token string) {
	c.Cookie(authCookie(CookieName(role, AccessToken), token, AccessTTL()))
}

func SetAuthCookies(c *fiber.Ctx, role models.Role, pair TokenPair) {
	SetAccessCookie(c, role, pair.Access)
	c.Cookie(authCookie(CookieName(role, RefreshToken), pair.Refresh, RefreshTTL()))
}

func ClearAuthCookies(c *fiber.Ctx, role models.Role) {
	c.Cookie(authCookie(CookieName(role, AccessToken), "", 0))
	c.Cookie(authCookie(CookieName(role, RefreshToken), "", 0))
}
