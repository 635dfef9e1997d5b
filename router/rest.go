package router

import (
	"github.com/Top-Pesinde/backend-sub001/controller"
	"github.com/Top-Pesinde/backend-sub001/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

type RestDeps struct {
	Controller *controller.Controller
	AccessKey  []byte
	Sessions   middleware.Authenticator
	Enforcer   middleware.Enforcer
}

func Rest(app *fiber.App, d RestDeps) {
	h := d.Controller
	api := app.Group("/v1", logger.New())

	jwt := middleware.JWT(d.AccessKey)
	live := middleware.Session(d.Sessions)
	otp := middleware.OTP()

	// Auth
	auth := api.Group("/auth")
	auth.Post("/signup", h.AuthSignup)
	auth.Post("/signin", h.AuthSignin)
	auth.Post("/token/renew", h.AuthTokenRenew)
	auth.Post("/logout", jwt, live, h.AuthLogout)
	auth.Post("/2fa/secret", jwt, live, otp, h.AuthOtpSecret)
	auth.Post("/2fa/verify", jwt, live, otp, h.AuthOtpVerify)
	auth.Post("/2fa/validate", jwt, live, h.AuthOtpValidate)
	auth.Post("/2fa/disable", jwt, live, otp, h.AuthOtpDisable)

	// User
	user := api.Group("/user", jwt, live, otp)
	user.Get("/profile", h.UserProfile)

	// Sessions
	sessions := api.Group("/sessions", jwt, live, otp)
	sessions.Get("", h.SessionList)
	sessions.Post("/terminate-others", h.SessionTerminateOthers)
	sessions.Post("/terminate-all", h.SessionTerminateAll)
	sessions.Delete("/:id", h.SessionTerminate)

	// Messenger
	conversations := api.Group("/conversations", jwt, live, otp)
	conversations.Get("", h.MessengerConversations)
	conversations.Get("/unread", h.MessengerUnreadTotal)
	conversations.Get("/:id/messages", h.MessengerHistory)
	conversations.Get("/:id/unread", h.MessengerUnread)
	conversations.Post("/:id/read", h.MessengerMarkRead)
	api.Post("/messages", jwt, live, otp, h.MessengerSend)

	// Blocks
	blocks := api.Group("/blocks", jwt, live, otp)
	blocks.Get("", h.BlockList)
	blocks.Get("/:userId/status", h.BlockStatus)
	blocks.Post("/:userId", h.BlockCreate)
	blocks.Delete("/:userId", h.BlockDelete)

	// Admin
	admin := api.Group("/admin", jwt, live, otp, middleware.RBAC(d.Enforcer))
	admin.Post("/bans/:userId", h.AdminBan)
	admin.Delete("/bans/:userId", h.AdminUnban)
	admin.Post("/sessions/sweep", h.AdminSweepSessions)
}
