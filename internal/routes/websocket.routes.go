package routes

import (
	"sysmon/internal/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes registers the WebSocket endpoint only.
// Token generation must be done via CLI (no HTTP endpoints).
func RegisterWebSocketRoutes(r *gin.Engine, ws *controllers.WebSocketController) {
	r.GET("/ws", ws.HandleWebSocket)
}
