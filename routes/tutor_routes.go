package routes

import (
	"github.com/anjiri1684/elevate_lms/handlers"
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/gofiber/fiber/v2"
)

func TutorRoutes(api fiber.Router) {
	role := models.RoleTutor
	public := api.Group("/tutor")

	public.Post("/signup", middleware.RateLimit(middleware.TierAuth), form(role, "signup"), handlers.Signup(role))
	googleRoutes(public, role)
	publicAccountRoutes(public, role)

	private := signedIn(api, role)
	accountRoutes(private, role)

	private.Get("/is-verified", handlers.IsVerified)
	private.Post("/update-profile", form(role, "profile"), handlers.UpdateTutorProfile)
	private.Patch("/profile/deactivate-account", handlers.DeactivateAccount(role))
	private.Patch("/request-verification/:id", handlers.RequestVerification)

	private.Post("/create-course", form(role, "course"), handlers.CreateCourse)
	private.Get("/courses", handlers.TutorCourses)
	private.Get("/view-course/:id", handlers.ViewTutorCourse)
	private.Post("/update-course/:id", form(role, "course"), handlers.UpdateCourse)
	private.Post("/publish-course/:id", handlers.PublishCourse)
	private.Delete("/delete-course/:id", handlers.DeleteTutorCourse)
	private.Get("/check-title", handlers.CheckTitle)

	private.Get("/bank-details", handlers.BankDetails)
	private.Post("/bank-details", form(role, "bank-account"), handlers.AddBankDetails)
	private.Post("/withdrawal-request", form(role, "withdrawal"), handlers.RequestWithdrawal)
	private.Get("/withdrawal-request", handlers.TutorWithdrawals)
}
