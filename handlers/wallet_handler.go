package handlers

import (
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/services"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
)

// Wallet returns the balance with one page of ledger entries.
func Wallet(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := utils.Paginate(c)
		view, err := services.GetWallet(c.UserContext(), role, middleware.AccountID(c), p)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success":      true,
			"message":      "Wallet fetched",
			"data":         view.Wallet,
			"transactions": view.Transactions.Items,
			"meta":         utils.Meta(p, view.Transactions.Total),
		})
	}
}
