package handlers

import (
	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/services"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
)

func GetProfile(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acc, err := services.LoadAccount(c.UserContext(), role, middleware.AccountID(c))
		if err != nil {
			return err
		}
		return utils.OK(c, "Profile fetched", acc)
	}
}

// UpdateUserProfile also serves /update-profile/:id, where the id must be
// the caller's own.
func UpdateUserProfile(c *fiber.Ctx) error {
	if c.Params("id") != "" {
		if err := self(c); err != nil {
			return err
		}
	}
	u, err := services.UpdateUserProfile(c.UserContext(), middleware.AccountID(c), middleware.Form[forms.UserProfile](c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Profile updated", u)
}

func UpdateTutorProfile(c *fiber.Ctx) error {
	t, err := services.UpdateTutorProfile(c.UserContext(), middleware.AccountID(c), middleware.Form[forms.TutorProfile](c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Profile updated", t)
}

func UpdateAdminProfile(c *fiber.Ctx) error {
	a, err := services.UpdateAdminProfile(c.UserContext(), middleware.AccountID(c), middleware.Form[forms.AdminProfile](c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Profile updated", a)
}

func UpdateEmail(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := middleware.Form[forms.UpdateEmail](c)
		if err := services.RequestEmailChange(c.UserContext(), role, middleware.AccountID(c), f); err != nil {
			return err
		}
		return utils.OK(c, "OTP sent to "+utils.NormalizeEmail(f.Email), nil)
	}
}

func VerifyEmail(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, err := services.ConfirmEmailChange(c.UserContext(), role, middleware.AccountID(c), middleware.Form[forms.OTPOnly](c).OTP)
		if err != nil {
			return err
		}
		return utils.OK(c, "Email updated", fiber.Map{"email": email})
	}
}

func UpdatePassword(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := services.RequestPasswordChange(c.UserContext(), role, middleware.AccountID(c), middleware.Form[forms.UpdatePassword](c))
		if err != nil {
			return err
		}
		return utils.OK(c, "OTP sent to your email, confirm it to change the password", nil)
	}
}

func ResendPasswordOTP(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := services.ResendPasswordOTP(c.UserContext(), role, middleware.AccountID(c)); err != nil {
			return err
		}
		return utils.OK(c, "OTP re-sent", nil)
	}
}

func VerifyPasswordOTP(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := services.ConfirmPasswordChange(c.UserContext(), role, middleware.AccountID(c), middleware.Form[forms.OTPOnly](c).OTP)
		if err != nil {
			return err
		}
		return utils.OK(c, "Password updated", nil)
	}
}

func DeactivateAccount(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := services.Deactivate(c.UserContext(), role, middleware.AccountID(c)); err != nil {
			return err
		}
		utils.ClearAuthCookies(c, role)
		return utils.OK(c, "Account deactivated", nil)
	}
}
