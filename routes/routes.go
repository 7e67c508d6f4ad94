// Package routes mounts the API: /api for public and OTP endpoints, one group
// per role under /api/{role}, and a websocket endpoint per role under /ws.
package routes

import (
	"github.com/anjiri1684/elevate_lms/handlers"
	"github.com/anjiri1684/elevate_lms/metrics"
	"github.com/anjiri1684/elevate_lms/middleware"
	"github.com/anjiri1684/elevate_lms/models"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func Setup(app *fiber.App) {
	app.Get("/health", handlers.Health)
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")
	CommonRoutes(api)
	UserRoutes(api)
	TutorRoutes(api)
	AdminRoutes(api)
	SocketRoutes(app)

	app.Use(handlers.NotFound)
}

// protected is the middleware chain for signed-in routes of a role.
func protected(role models.Role) []fiber.Handler {
	return []fiber.Handler{
		middleware.RequireRole(role),
		middleware.NotBlocked(role),
		middleware.AuthenticatedLimiter(),
	}
}

func form(role models.Role, name string) fiber.Handler {
	return middleware.ValidateForm(string(role), name)
}

func common(name string) fiber.Handler {
	return middleware.ValidateForm("common", name)
}

// signedIn groups the signed-in routes of a role. It must be created after the
// role's public routes: the group middleware is mounted on the whole prefix
// and fiber runs the earlier public routes first.
func signedIn(api fiber.Router, role models.Role) fiber.Router {
	return api.Group("/"+string(role), protected(role)...)
}

// publicAccountRoutes are the auth endpoints every role shares.
func publicAccountRoutes(public fiber.Router, role models.Role) {
	strict := middleware.RateLimit(middleware.TierStrict)
	auth := middleware.RateLimit(middleware.TierAuth)

	public.Post("/login", strict, common("login"), handlers.Login(role))
	public.Post("/forgot-password", strict, common("forgot-password"), handlers.ForgotPassword(role))
	public.Post("/reset-password", strict, common("reset-password"), handlers.ResetPassword(role))
	public.Patch("/refresh-token", auth, handlers.RefreshToken(role))
	public.Delete("/logout", handlers.Logout(role))
}

// accountRoutes are the profile and inbox endpoints every role shares.
func accountRoutes(private fiber.Router, role models.Role) {
	strict := middleware.RateLimit(middleware.TierStrict)

	private.Get("/auth-load", handlers.AuthLoad(role))
	private.Get("/isblocked", handlers.IsBlocked(role))
	private.Get("/profile", handlers.GetProfile(role))
	private.Patch("/update-email", strict, common("update-email"), handlers.UpdateEmail(role))
	private.Patch("/verify-email", strict, common("otp"), handlers.VerifyEmail(role))
	private.Patch("/profile/update-password", strict, common("update-password"), handlers.UpdatePassword(role))
	private.Patch("/profile/update-password/re-send-otp", strict, handlers.ResendPasswordOTP(role))
	private.Patch("/profile/update-password/verify-otp", strict, common("otp"), handlers.VerifyPasswordOTP(role))
	private.Get("/load-notifications", handlers.LoadNotifications(role))
	private.Post("/read-notifications", common("read-notifications"), handlers.ReadNotifications(role))
	private.Get("/wallet", handlers.Wallet(role))
	private.Get("/upload-signature/:kind", handlers.UploadSignature(role))
}

// googleRoutes wire the OAuth redirect flow for roles that can sign in with
// Google.
func googleRoutes(public fiber.Router, role models.Role) {
	auth := middleware.RateLimit(middleware.TierAuth)
	public.Get("/google", auth, handlers.GoogleLogin(role))
	public.Get("/auth-callback", auth, handlers.GoogleCallback(role))
	public.Get("/auth-failure", handlers.AuthFailure)
}

func SocketRoutes(app *fiber.App) {
	ws := app.Group("/ws")
	for _, role := range []models.Role{models.RoleUser, models.RoleTutor, models.RoleAdmin} {
		ws.Get("/"+string(role),
			middleware.RequireRole(role),
			middleware.NotBlocked(role),
			handlers.SocketUpgrade,
			websocketcontrib.New(handlers.ServeWs),
		)
	}
}
