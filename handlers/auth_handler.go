package handlers

import (
	"net/url"
	"strings"
	"time"

	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/services"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func GenerateOTP(c *fiber.Ctx) error {
	f := middleware.Form[forms.GenerateOTP](c)
	if err := services.GenerateOTP(c.UserContext(), f); err != nil {
		return err
	}
	return utils.OK(c, "OTP sent to "+utils.NormalizeEmail(f.Email), nil)
}

func VerifyOTP(c *fiber.Ctx) error {
	if err := services.VerifyOTP(c.UserContext(), middleware.Form[forms.VerifyOTP](c)); err != nil {
		return err
	}
	return utils.OK(c, "OTP verified", nil)
}

func signIn(c *fiber.Ctx, role models.Role, acc models.Accountable) error {
	pair, err := utils.IssueTokenPair(acc.Base().ID, role)
	if err != nil {
		return err
	}
	utils.SetAuthCookies(c, role, pair)
	return nil
}

func Signup(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, err := services.Signup(c.UserContext(), role, middleware.Form[forms.Signup](c))
		if err != nil {
			return err
		}
		if err := signIn(c, role, acc); err != nil {
			return err
		}
		return utils.Success(c, fiber.StatusCreated, "Account created", acc)
	}
}

func AdminSignup(c *fiber.Ctx) error {
	acc, err := services.AdminSignup(c.UserContext(), middleware.Form[forms.Signup](c), c.Get("X-Admin-Key"))
	if err != nil {
		return err
	}
	if err := signIn(c, models.RoleAdmin, acc); err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusCreated, "Admin account created", acc)
}

func Login(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, err := services.Login(c.UserContext(), role, middleware.Form[forms.Login](c))
		if err != nil {
			return err
		}
		if err := signIn(c, role, acc); err != nil {
			return err
		}
		return utils.OK(c, "Logged in", acc)
	}
}

func Logout(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		utils.ClearAuthCookies(c, role)
		return utils.OK(c, "Logged out", nil)
	}
}

// RefreshToken issues a new access cookie from the refresh cookie.
func RefreshToken(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.ParseToken(utils.RefreshToken, c.Cookies(utils.CookieName(role, utils.RefreshToken)))
		if err != nil || claims.Role != role {
			utils.ClearAuthCookies(c, role)
			return fiber.NewError(fiber.StatusUnauthorized, "Session expired, please log in again")
		}
		access, err := utils.SignToken(utils.AccessToken, claims.ID, role)
		if err != nil {
			return err
		}
		utils.SetAccessCookie(c, role, access)
		return utils.OK(c, "Token refreshed", nil)
	}
}

func ForgotPassword(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := services.ForgotPassword(c.UserContext(), role, middleware.Form[forms.ForgotPassword](c)); err != nil {
			return err
		}
		return utils.OK(c, "Password reset OTP sent", nil)
	}
}

func ResetPassword(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := services.ResetPassword(c.UserContext(), role, middleware.Form[forms.ResetPassword](c)); err != nil {
			return err
		}
		return utils.OK(c, "Password has been reset, please log in", nil)
	}
}

// AuthLoad returns the signed-in account for session restore.
func AuthLoad(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, err := services.LoadAccount(c.UserContext(), role, middleware.AccountID(c))
		if err != nil {
			return err
		}
		return utils.OK(c, "Authenticated", acc)
	}
}

func IsBlocked(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		blocked, err := services.IsBlocked(c.UserContext(), role, middleware.AccountID(c))
		if err != nil {
			return err
		}
		return utils.OK(c, "Block status", fiber.Map{"is_blocked": blocked})
	}
}

func IsVerified(c *fiber.Ctx) error {
	acc, err := services.LoadAccount(c.UserContext(), models.RoleTutor, middleware.AccountID(c))
	if err != nil {
		return err
	}
	t := acc.(*models.Tutor)
	return utils.OK(c, "Verification status", fiber.Map{
		"is_verified":         t.IsVerified,
		"verification_status": t.VerificationStatus,
		"rejection_reason":    t.RejectionReason,
	})
}

func clientURL() string {
	return strings.TrimRight(config.Get("CLIENT_URL", "http://localhost:5173"), "/")
}

// GoogleLogin redirects to the Google consent screen with a state cookie.
func GoogleLogin(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !services.GoogleEnabled() {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Google sign-in is not configured")
		}
		state, err := services.NewOAuthState()
		if err != nil {
			return err
		}
		c.Cookie(&fiber.Cookie{
			Name:     services.OAuthStateCookie,
			Value:    state,
			Path:     "/api/" + string(role),
			HTTPOnly: true,
			Secure:   config.IsProduction(),
			SameSite: fiber.CookieSameSiteLaxMode,
			Expires:  time.Now().Add(10 * time.Minute),
		})
		return c.Redirect(services.Google.AuthCodeURL(role, state), fiber.StatusTemporaryRedirect)
	}
}

// GoogleCallback finishes the OAuth flow and sends the browser back to the
// client, or to the failure route.
func GoogleCallback(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state := c.Cookies(services.OAuthStateCookie)
		c.Cookie(&fiber.Cookie{Name: services.OAuthStateCookie, Path: "/api/" + string(role), Expires: time.Unix(0, 0), MaxAge: -1})

		acc, err := services.CompleteGoogleSignIn(c.UserContext(), role, c.Query("state"), state, c.Query("code"))
		if err == nil {
			err = signIn(c, role, acc)
		}
		if err != nil {
			logger.Module("auth").Warn("google sign-in failed", zap.String("role", string(role)), zap.Error(err))
			return c.Redirect("/api/"+string(role)+"/auth-failure?reason="+url.QueryEscape(err.Error()), fiber.StatusSeeOther)
		}

		target := clientURL()
		if role == models.RoleTutor {
			target += "/tutor"
		}
		return c.Redirect(target, fiber.StatusSeeOther)
	}
}

func AuthFailure(c *fiber.Ctx) error {
	msg := "Google authentication failed"
	if reason := c.Query("reason"); reason != "" {
		msg += ": " + reason
	}
	return fiber.NewError(fiber.StatusUnauthorized, msg)
}
