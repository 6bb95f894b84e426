package router

import (
	"realtime_chat_service/internal/account/app"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	fiberSwagger "github.com/gofiber/swagger"
)

// RegisterRoutes mount the account routes; register and login stay public
func RegisterRoutes(r *fiber.App, accountHandler *app.AccountHandler) {
	r.Get("/swagger/*", fiberSwagger.HandlerDefault)

	account := r.Group("/account")
	account.Post("/register", accountHandler.Register)
	account.Post("/login", accountHandler.Login)

	account.Use(middlewares.JWTMiddleware())
	account.Post("/logout", accountHandler.Logout)
	account.Get("/search", accountHandler.Search)
	account.Post("/avatar", accountHandler.UploadAvatar)
}
