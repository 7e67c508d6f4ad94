package routes

import (
	"github.com/anjiri1684/elevate_lms/handlers"
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/gofiber/fiber/v2"
)

func CommonRoutes(api fiber.Router) {
	strict := middleware.RateLimit(middleware.TierStrict)
	public := middleware.RateLimit(middleware.TierPublic)

	api.Post("/generate-otp", strict, common("generate-otp"), handlers.GenerateOTP)
	api.Post("/verify-otp", strict, common("verify-otp"), handlers.VerifyOTP)

	api.Get("/load-categories", public, handlers.LoadCategories)
	api.Get("/courses", public, handlers.BrowseCourses)
	api.Get("/courses/:id", public, handlers.PublicCourse)
	api.Get("/top-categories", public, handlers.TopCategories)
	api.Get("/top-courses", public, handlers.TopCourses)
	api.Get("/course-titles", public, handlers.CourseTitles)
	api.Get("/best-selling-courses", public, handlers.BestSellingCourses)

	// signed by the gateway; no cookie auth or rate limit
	api.Post("/payments/webhook", handlers.PaymentWebhook)
}
