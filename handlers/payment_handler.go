package handlers

import (
	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/anjiri1684/elevate_lms/services"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
)

func CreateOrder(c *fiber.Ctx) error {
	out, err := services.CreateOrder(c.UserContext(), middleware.AccountID(c), middleware.Form[forms.CreateOrder](c))
	if err != nil {
		return err
	}
	msg := "Order created"
	if out.Gateway == nil {
		msg = "Enrolled successfully"
	}
	return utils.Success(c, fiber.StatusCreated, msg, out)
}

func VerifyPayment(c *fiber.Ctx) error {
	order, err := services.VerifyPayment(c.UserContext(), middleware.AccountID(c), middleware.Form[forms.VerifyPayment](c))
	if err != nil {
		return err
	}
	return utils.OK(c, "Payment verified, you are now enrolled", order)
}

// PaymentFailed accepts an optional {"reason": "..."} body.
func PaymentFailed(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&body)
	order, err := services.PaymentFailed(c.UserContext(), middleware.AccountID(c), id, body.Reason)
	if err != nil {
		return err
	}
	return utils.OK(c, "Payment marked as failed", order)
}

func EnrollFree(c *fiber.Ctx) error {
	order, err := services.EnrollFree(c.UserContext(), middleware.AccountID(c), middleware.Form[forms.CourseRef](c))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.StatusCreated, "Enrolled successfully", order)
}

// PaymentWebhook verifies the raw body against X-Razorpay-Signature before
// anything is parsed.
func PaymentWebhook(c *fiber.Ctx) error {
	if err := services.HandleWebhook(c.UserContext(), c.Body(), c.Get("X-Razorpay-Signature")); err != nil {
		return err
	}
	return utils.OK(c, "Webhook processed", nil)
}
