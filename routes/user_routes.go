package routes

import (
	"github.com/anjiri1684/elevate_lms/handlers"
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/gofiber/fiber/v2"
)

func UserRoutes(api fiber.Router) {
	role := models.RoleUser
	public := api.Group("/user")

	public.Post("/signup", middleware.RateLimit(middleware.TierAuth), form(role, "signup"), handlers.Signup(role))
	googleRoutes(public, role)
	publicAccountRoutes(public, role)

	private := signedIn(api, role)
	accountRoutes(private, role)

	private.Post("/update-profile", form(role, "profile"), handlers.UpdateUserProfile)
	private.Post("/update-profile/:id", form(role, "profile"), handlers.UpdateUserProfile)
	private.Patch("/profile/deactivate-account", handlers.DeactivateAccount(role))

	private.Post("/bookmark-course", form(role, "course-ref"), handlers.AddBookmark)
	private.Get("/bookmark-course", handlers.Bookmarks)
	private.Get("/isBookmarked-course/:id", handlers.IsBookmarked)
	private.Patch("/bookmark-course/:id", handlers.RemoveBookmark)

	private.Post("/cart", form(role, "course-ref"), handlers.AddToCart)
	private.Get("/cart", handlers.Cart)
	private.Get("/cart/:id", handlers.CartDetails)
	private.Delete("/cart/:id", handlers.RemoveFromCart)

	private.Get("/get-pricing/:id", handlers.Pricing)
	private.Get("/get-applied-coupon/:id", handlers.AppliedCoupon)
	private.Post("/apply-coupon", form(role, "apply-coupon"), handlers.ApplyCoupon)
	private.Delete("/remove-applied-coupon/:id", handlers.RemoveAppliedCoupon)

	private.Post("/create-order", form(role, "create-order"), handlers.CreateOrder)
	private.Post("/verify-payment", form(role, "verify-payment"), handlers.VerifyPayment)
	private.Patch("/failed-payment/:id", handlers.PaymentFailed)
	private.Post("/enroll-course", form(role, "course-ref"), handlers.EnrollFree)
	private.Get("/orders", handlers.UserOrders)

	private.Get("/enrolled-courses", handlers.EnrolledCourses)
	private.Get("/check-enrollment/:id", handlers.CheckEnrollment)
	private.Patch("/update-progress-tracker/:id", handlers.SelectLesson)
	private.Get("/enrolled-course/course-details/:id", handlers.EnrolledCourseDetails)
	private.Get("/enrolled-course/current-status/:id", handlers.CurrentStatus)
	private.Put("/enrolled-course/lesson-status", form(role, "lesson-status"), handlers.SetLessonStatus)
	private.Get("/lesson", handlers.Lesson)
	private.Put("/reset-progress/:id", handlers.ResetProgress)
	private.Get("/certificates", handlers.Certificates)
}
