package middleware

import (
	"errors"

	"github.com/anjiri1684/elevate_lms/database"
	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	tokenKey   = "jwt"
	accountKey = "account_id"
	roleKey    = "role"
)

// RequireRole verifies the role's access cookie. When the access token is
// missing or expired but the refresh cookie is still valid, a new access
// cookie is issued and the request continues.
func RequireRole(role models.Role) fiber.Handler {
	secret := utils.AccessSecret()
	if len(secret) == 0 {
		logger.Module("auth").Error("access secret missing, rejecting every request", zap.String("role", string(role)))
		return func(c *fiber.Ctx) error {
			return utils.Fail(c, fiber.StatusUnauthorized, "Unauthorized, please log in")
		}
	}
	return jwtware.New(jwtware.Config{
		SigningKey:    secret,
		SigningMethod: "HS256",
		TokenLookup:   "cookie:" + utils.CookieName(role, utils.AccessToken),
		ContextKey:    tokenKey,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals(tokenKey).(*jwt.Token)
			if !ok {
				return refreshOrReject(c, role)
			}
			mc, _ := token.Claims.(jwt.MapClaims)
			claims, err := utils.ClaimsFromMap(mc, utils.AccessToken)
			if err != nil {
				return refreshOrReject(c, role)
			}
			if claims.Role != role {
				return utils.Fail(c, fiber.StatusForbidden, "Access denied")
			}
			setIdentity(c, claims.ID, claims.Role)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return refreshOrReject(c, role)
		},
	})
}

func refreshOrReject(c *fiber.Ctx, role models.Role) error {
	raw := c.Cookies(utils.CookieName(role, utils.RefreshToken))
	if raw == "" {
		return utils.Fail(c, fiber.StatusUnauthorized, "Unauthorized, please log in")
	}
	claims, err := utils.ParseToken(utils.RefreshToken, raw)
	if err != nil || claims.Role != role {
		utils.ClearAuthCookies(c, role)
		return utils.Fail(c, fiber.StatusUnauthorized, "Session expired, please log in again")
	}

	access, err := utils.SignToken(utils.AccessToken, claims.ID, role)
	if err != nil {
		logger.Module("auth").Error("failed to refresh access token", zap.Error(err))
		return fiber.ErrInternalServerError
	}
	utils.SetAccessCookie(c, role, access)
	setIdentity(c, claims.ID, role)
	return c.Next()
}

func setIdentity(c *fiber.Ctx, id uuid.UUID, role models.Role) {
	c.Locals(accountKey, id)
	c.Locals(roleKey, role)
}

// AccountID returns the authenticated account id set by RequireRole.
func AccountID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(accountKey).(uuid.UUID)
	return id
}

func CurrentRole(c *fiber.Ctx) models.Role {
	role, _ := c.Locals(roleKey).(models.Role)
	return role
}

// NotBlocked rejects accounts that were removed, blocked by an admin or
// deactivated by their owner.
func NotBlocked(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc := models.NewAccount(role)
		err := database.DB.WithContext(c.UserContext()).
			Select("id", "is_blocked", "is_active").
			First(acc, "id = ?", AccountID(c)).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Fail(c, fiber.StatusNotFound, "Account not found")
		}
		if err != nil {
			return err
		}

		base := acc.Base()
		if base.IsBlocked {
			utils.ClearAuthCookies(c, role)
			return utils.Fail(c, fiber.StatusForbidden, "Your account has been blocked")
		}
		if !base.IsActive {
			utils.ClearAuthCookies(c, role)
			return utils.Fail(c, fiber.StatusForbidden, "Your account is deactivated")
		}
		return c.Next()
	}
}
