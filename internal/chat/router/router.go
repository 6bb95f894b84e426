package router

import (
	"context"

	"realtime_chat_service/internal/chat/app"
	"realtime_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	fiberSwagger "github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes mount the chat REST routes and the websocket entry point
func RegisterRoutes(r *fiber.App, chatHandler *app.ChatHandler, chatWebsocket *app.ChatWebsocketHandler) {
	r.Get("/swagger/*", fiberSwagger.HandlerDefault)

	r.Use(middlewares.JWTMiddleware())

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))

	chat := r.Group("/chat")
	chat.Post("/", chatHandler.AccessChat)
	chat.Get("/", chatHandler.FetchChats)

	group := chat.Group("/group")
	group.Get("/", chatHandler.FetchGroups)
	group.Post("/", chatHandler.CreateGroup)
	group.Put("/:chatID", chatHandler.UpdateGroupInfo)
	group.Post("/:chatID/icon", chatHandler.UploadGroupIcon)
	group.Put("/:chatID/members/add", chatHandler.AddMember)
	group.Put("/:chatID/members/remove", chatHandler.RemoveMember)
	group.Put("/:chatID/admins/add", chatHandler.PromoteAdmin)
	group.Put("/:chatID/admins/remove", chatHandler.DemoteAdmin)
	group.Put("/:chatID/mute", chatHandler.MuteMember)
	group.Put("/:chatID/unmute", chatHandler.UnmuteMember)
	group.Put("/:chatID/transfer", chatHandler.TransferOwnership)
	group.Put("/:chatID/leave", chatHandler.LeaveGroup)
	group.Delete("/:chatID", chatHandler.DeleteGroup)

	chat.Get("/:chatID", chatHandler.GetChat)
	chat.Get("/:chatID/messages", chatHandler.FetchMessages)
	chat.Get("/:chatID/messages/search", chatHandler.SearchMessages)
	chat.Put("/:chatID/pin/:messageID", chatHandler.PinMessage)
	chat.Put("/:chatID/unpin/:messageID", chatHandler.UnpinMessage)

	message := r.Group("/message")
	message.Post("/", chatHandler.SendMessage)
	message.Put("/:messageID/delivered", chatHandler.MarkDelivered)
	message.Put("/:messageID/read", chatHandler.MarkRead)
	message.Put("/:messageID/reaction", chatHandler.AddReaction)
	message.Delete("/:messageID/reaction", chatHandler.RemoveReaction)
}
