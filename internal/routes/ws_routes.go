package routes

import (
	"hqchat_backend/ws"

	"github.com/gin-gonic/gin"
)

// SetupWebSocketRoutes регистрирует websocket-эндпоинт комнат.
// Аутентификация выполняется внутри рукопожатия (токен может прийти
// и в заголовке, и в query), поэтому HTTP auth-middleware здесь не
// вешается.
func SetupWebSocketRoutes(r *gin.Engine, wsHandler *ws.Handler) {
	r.GET("/ws/rooms/:roomID", wsHandler.ServeWS)
}
