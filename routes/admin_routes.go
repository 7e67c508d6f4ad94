package routes

import (
	"github.com/anjiri1684/elevate_lms/handlers"
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(api fiber.Router) {
	role := models.RoleAdmin
	public := api.Group("/admin")

	public.Post("/signup", middleware.RateLimit(middleware.TierStrict), form(role, "signup"), handlers.AdminSignup)
	publicAccountRoutes(public, role)

	private := signedIn(api, role)
	accountRoutes(private, role)

	private.Post("/update-profile", form(role, "profile"), handlers.UpdateAdminProfile)

	for _, r := range []struct {
		role   models.Role
		plural string
		single string
	}{
		{models.RoleUser, "users", "user"},
		{models.RoleTutor, "tutors", "tutor"},
	} {
		private.Post("/add-"+r.single, form(role, "add-account"), handlers.AddAccount(r.role))
		private.Get("/"+r.plural+"-details", handlers.ListAccounts(r.role))
		private.Get("/"+r.single+"-details/:id", handlers.AccountDetails(r.role))
		private.Post("/update-"+r.single+"-details/:id", form(role, "update-account"), handlers.UpdateAccount(r.role))
		private.Patch("/toggle-"+r.single+"-block/:id", handlers.ToggleBlock(r.role))
		private.Delete("/delete-"+r.single+"/:id", handlers.DeleteAccount(r.role))
	}

	private.Get("/verification-request", handlers.VerificationRequests)
	private.Post("/control-verification/:id", form(role, "verification-decision"), handlers.ControlVerification)

	private.Get("/categories", handlers.Categories)
	private.Get("/category", handlers.Category)
	private.Post("/add-category", form(role, "category"), handlers.AddCategory)
	private.Post("/update-category/:id", form(role, "category"), handlers.UpdateCategory)
	private.Delete("/delete-category/:id", handlers.DeleteCategory)

	private.Post("/create-coupon", form(role, "coupon"), handlers.CreateCoupon)
	private.Get("/load-coupons", handlers.LoadCoupons)
	private.Post("/update-coupon/:id", form(role, "coupon"), handlers.UpdateCoupon)
	private.Delete("/delete-coupon/:id", handlers.DeleteCoupon)

	private.Get("/pending-request", handlers.PendingCourses)
	private.Post("/verify-course/:id", form(role, "course-review"), handlers.VerifyCourse)
	private.Get("/view-courses", handlers.ViewCourses)
	private.Get("/view-course/:id", handlers.AdminCourse)
	private.Post("/assign-category/:id", form(role, "assign-category"), handlers.AssignCategory)
	private.Post("/course-status/:id", form(role, "course-status"), handlers.CourseStatus)
	private.Delete("/delete-course/:id", handlers.DeleteCourse)

	private.Get("/orders", handlers.Orders)
	private.Post("/wallet/withdraw", form(role, "withdraw"), handlers.AdminWithdraw)
	private.Get("/withdraw-request", handlers.WithdrawalRequests)
	private.Patch("/withdraw-request/approve-or-reject", form(role, "withdrawal-decision"), handlers.DecideWithdrawal)
	private.Get("/transactions", handlers.Transactions)

	private.Get("/dashboard", handlers.Dashboard)
	private.Get("/dashboard/best-selling-course", handlers.BestSellingCourses)
	private.Get("/dashboard/best-selling-category", handlers.BestSellingCategories)
	private.Get("/dashboard/revenue-chart-data", handlers.RevenueChart)
}
