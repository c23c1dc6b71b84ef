package routes

import (
	"net/http"

	"hqchat_backend/internal/auth"
	"hqchat_backend/internal/handlers"
	"hqchat_backend/internal/middleware"
	"hqchat_backend/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes подключает REST-адаптер и websocket-эндпоинт.
func RegisterRoutes(r *gin.Engine, resolver *auth.Resolver, chatHandler *handlers.ChatHandler, wsHandler *ws.Handler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(resolver))
	{
		rooms := api.Group("/rooms")
		{
			rooms.POST("", chatHandler.CreateRoom)
			rooms.GET("", chatHandler.ListRooms)
			rooms.GET("/:roomID", chatHandler.GetRoom)
			rooms.PATCH("/:roomID", chatHandler.UpdateRoom)
			rooms.DELETE("/:roomID", chatHandler.DeleteRoom)
			rooms.DELETE("/:roomID/unread", chatHandler.ClearUnread)

			rooms.GET("/:roomID/members", chatHandler.ListMembers)
			rooms.POST("/:roomID/members", chatHandler.AddMember)
			rooms.DELETE("/:roomID/members/:memberID", chatHandler.RemoveMember)

			rooms.GET("/:roomID/messages", chatHandler.ListMessages)
			rooms.POST("/:roomID/messages", chatHandler.SendMessage)
			rooms.GET("/:roomID/messages/:messageID/read", chatHandler.GetMessageReadState)
			rooms.PATCH("/:roomID/messages/:messageID", chatHandler.EditMessage)
			rooms.DELETE("/:roomID/messages/:messageID", chatHandler.DeleteMessage)
		}
	}

	SetupWebSocketRoutes(r, wsHandler)
}
